package analytics

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/openshelf/bookdiscovery/internal/pkg/errors"
)

// DefaultQueueCap bounds the durable queue. Oldest entries are evicted
// first once the cap is hit.
const DefaultQueueCap = 50

// Queue is a small durable event store backing the failed-search
// beacon. Events that could not be delivered are appended here and
// retried on the next run. The whole queue lives in one JSON file;
// writes go through a temp file plus rename so a crash never leaves a
// half-written queue behind.
type Queue struct {
	path string
	cap  int

	mu sync.Mutex
}

// NewQueue creates a queue persisted at path. A capacity <= 0 falls
// back to DefaultQueueCap.
func NewQueue(path string, capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCap
	}
	return &Queue{path: path, cap: capacity}
}

// Append adds an event, evicting the oldest entries beyond capacity.
func (q *Queue) Append(ev Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	events, err := q.load()
	if err != nil {
		return err
	}

	events = append(events, ev)
	if len(events) > q.cap {
		events = events[len(events)-q.cap:]
	}

	return q.store(events)
}

// Drain returns all queued events and empties the queue. Callers that
// fail to deliver an event are expected to Append it again.
func (q *Queue) Drain() ([]Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	events, err := q.load()
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	if err := q.store(nil); err != nil {
		return nil, err
	}
	return events, nil
}

// Len reports the number of queued events.
func (q *Queue) Len() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	events, err := q.load()
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

func (q *Queue) load() ([]Event, error) {
	data, err := os.ReadFile(q.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrAnalyticsQueue)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		// A corrupt queue is not worth failing a search over. Start
		// over.
		return nil, nil
	}
	return events, nil
}

func (q *Queue) store(events []Event) error {
	if events == nil {
		events = []Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrAnalyticsQueue)
	}

	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.ErrAnalyticsQueue)
	}

	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrAnalyticsQueue)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		return apperrors.Wrap(err, apperrors.ErrAnalyticsQueue)
	}
	return nil
}
