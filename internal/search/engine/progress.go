package engine

import (
	"sync"
	"time"
)

// rotator cycles through a message pool on a fixed interval, emitting
// each line through a callback. Stop is idempotent and safe from any
// goroutine; once stopped a rotator never emits again, so a finished or
// superseded session cannot keep mutating the presentation.
type rotator struct {
	messages []string
	interval time.Duration
	emit     func(string)

	stopOnce sync.Once
	done     chan struct{}
}

func newRotator(messages []string, interval time.Duration, emit func(string)) *rotator {
	return &rotator{
		messages: messages,
		interval: interval,
		emit:     emit,
		done:     make(chan struct{}),
	}
}

// Start emits the first message immediately and advances on each tick
// until Stop is called.
func (r *rotator) Start() {
	if len(r.messages) == 0 || r.interval <= 0 {
		return
	}

	r.emit(r.messages[0])

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-r.done:
				return
			case <-ticker.C:
				i = (i + 1) % len(r.messages)
				select {
				case <-r.done:
					return
				default:
				}
				r.emit(r.messages[i])
			}
		}
	}()
}

// Stop cancels the rotation. Safe to call more than once.
func (r *rotator) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
}
