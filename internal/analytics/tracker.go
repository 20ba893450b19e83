// Package analytics reports searches that produced no results, so the
// collection gaps they reveal can be filled later. Delivery is strictly
// best-effort: a failed send lands in a bounded durable queue and is
// retried on the next run, and nothing here ever slows down or fails a
// search.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/openshelf/bookdiscovery/internal/pkg/errors"
	"github.com/openshelf/bookdiscovery/internal/pkg/logger"
)

// Event is one failed-search record.
type Event struct {
	ID         string `json:"id"`
	Query      string `json:"query"`
	Timestamp  string `json:"timestamp"`
	UserAgent  string `json:"user_agent"`
	Referrer   string `json:"referrer"`
	Language   string `json:"language"`
	ScreenSize string `json:"screen_size"`
	SearchPage string `json:"search_page"`
	StoredAt   string `json:"stored_at,omitempty"`
}

// Config holds the tracker settings.
type Config struct {
	// Endpoint receives the JSON events via POST. Empty disables
	// network delivery; events go straight to the queue.
	Endpoint string `mapstructure:"endpoint"`

	// QueuePath locates the durable queue file.
	QueuePath string `mapstructure:"queue_path"`

	// QueueCap bounds the queue; 0 means DefaultQueueCap.
	QueueCap int `mapstructure:"queue_cap"`

	// RetryDelay is how long after startup the pending-event retry
	// runs.
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	// Timeout bounds each delivery attempt.
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns the stock tracker settings.
func DefaultConfig() *Config {
	return &Config{
		QueuePath:  defaultQueuePath(),
		QueueCap:   DefaultQueueCap,
		RetryDelay: 3 * time.Second,
		Timeout:    10 * time.Second,
	}
}

func defaultQueuePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bookfinder/failed-searches.json"
	}
	return home + "/.bookfinder/failed-searches.json"
}

// ClientInfo describes the environment the search ran in. The fields
// mirror what a browser would report about itself.
type ClientInfo struct {
	UserAgent  string
	Referrer   string
	Language   string
	ScreenSize string
	SearchPage string
}

// DefaultClientInfo fills ClientInfo from the process environment.
func DefaultClientInfo(version string) ClientInfo {
	lang := os.Getenv("LANG")
	if lang == "" {
		lang = "unknown"
	}
	return ClientInfo{
		UserAgent:  "bookfinder/" + version,
		Referrer:   "direct",
		Language:   lang,
		ScreenSize: "terminal",
		SearchPage: "cli",
	}
}

// Tracker sends failed-search events and owns the retry queue.
type Tracker struct {
	cfg    *Config
	client *http.Client
	queue  *Queue
	info   ClientInfo
	log    *logger.Logger

	wg sync.WaitGroup
}

// NewTracker creates a tracker. A nil config gets defaults.
func NewTracker(cfg *Config, info ClientInfo, log *logger.Logger) *Tracker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = logger.L()
	}
	return &Tracker{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		queue:  NewQueue(cfg.QueuePath, cfg.QueueCap),
		info:   info,
		log:    log.Named("analytics"),
	}
}

// TrackFailedSearch records a search that produced no results. Queries
// shorter than two characters are ignored. Delivery happens in the
// background; a failed send is queued for a later retry.
func (t *Tracker) TrackFailedSearch(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 2 {
		return
	}

	ev := Event{
		ID:         uuid.NewString(),
		Query:      query,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		UserAgent:  t.info.UserAgent,
		Referrer:   t.info.Referrer,
		Language:   t.info.Language,
		ScreenSize: t.info.ScreenSize,
		SearchPage: t.info.SearchPage,
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.deliver(ctx, ev)
	}()
}

// RetryPending drains the queue and re-sends every event, re-queueing
// the ones that still fail. Meant to run once per process start.
func (t *Tracker) RetryPending(ctx context.Context) {
	events, err := t.queue.Drain()
	if err != nil {
		t.log.Warn("could not read pending events", zap.Error(err))
		return
	}
	if len(events) == 0 {
		return
	}

	t.log.Debug("retrying pending events", zap.Int("count", len(events)))
	for _, ev := range events {
		t.deliver(ctx, ev)
	}
}

// ScheduleRetry runs RetryPending after the configured delay, in the
// background. The context cancels the wait.
func (t *Tracker) ScheduleRetry(ctx context.Context) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.cfg.RetryDelay):
		}
		t.RetryPending(ctx)
	}()
}

// Flush waits for all in-flight deliveries. Call before exiting so
// short-lived runs do not lose events to a dying process.
func (t *Tracker) Flush() {
	t.wg.Wait()
}

func (t *Tracker) deliver(ctx context.Context, ev Event) {
	if err := t.send(ctx, ev); err != nil {
		t.log.Debug("event delivery failed, queueing",
			zap.String("query", ev.Query),
			zap.Error(err))
		ev.StoredAt = time.Now().UTC().Format(time.RFC3339)
		if qErr := t.queue.Append(ev); qErr != nil {
			t.log.Warn("could not queue event", zap.Error(qErr))
		}
	}
}

func (t *Tracker) send(ctx context.Context, ev Event) error {
	if t.cfg.Endpoint == "" {
		return apperrors.New(apperrors.ErrAnalyticsSend, "no endpoint configured")
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrAnalyticsSend)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrAnalyticsSend)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrAnalyticsSend)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apperrors.New(apperrors.ErrAnalyticsSend, fmt.Sprintf("status %d", resp.StatusCode))
	}
	return nil
}
