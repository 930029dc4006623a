package fetch

import (
	"context"
	"sync"
)

// Dispatcher hands a function to the goroutine that owns consumer state. Dispatch must not block and must run
// functions in the order they were dispatched.
type Dispatcher interface {
	Dispatch(fn func())
}

// Inline runs functions on the calling goroutine. Consumers used with it must be safe for concurrent use.
type Inline struct{}

func (Inline) Dispatch(fn func()) { fn() }

// Loop is a serial mailbox: functions dispatched from any goroutine run one at a time on the goroutine calling
// [Loop.Run].
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

// NewLoop returns an idle loop. Functions dispatched before Run starts are kept.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Dispatch queues fn.
func (l *Loop) Dispatch(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes queued functions until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		batch, err := l.Take(ctx)
		if err != nil {
			return err
		}
		for _, fn := range batch {
			fn()
		}
	}
}

// Take blocks until functions are queued and returns them in dispatch order, leaving the mailbox empty. The caller
// becomes responsible for running them; an event loop that owns consumer state can pull work this way instead of
// calling Run.
func (l *Loop) Take(ctx context.Context) ([]func(), error) {
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()
		if len(batch) > 0 {
			return batch, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-l.wake:
		}
	}
}

// Drain waits until every function dispatched before the call has run. It requires Run (or a Take caller) to be
// running.
func (l *Loop) Drain(ctx context.Context) error {
	done := make(chan struct{})
	l.Dispatch(func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
