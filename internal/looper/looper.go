// Package looper provides single-goroutine execution contexts. The activity runs its
// UI domain on one looper and every runtime effect on a separate render looper.
package looper

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("looper: closed")

// Looper runs posted functions one at a time, in post order, on the goroutine that
// called Run.
type Looper struct {
	name string

	mu      sync.Mutex
	queue   []func()
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
}

func New(name string) *Looper {
	return &Looper{
		name:    name,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

func (l *Looper) Name() string {
	return l.name
}

// Post enqueues fn and returns immediately. It returns false once the looper is closed.
func (l *Looper) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
	return true
}

// Call posts fn and waits for it to finish. It must not be used from the looper itself.
func (l *Looper) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-l.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes posted work until Close drains the queue or ctx is cancelled. Work still
// queued when ctx is cancelled is dropped.
func (l *Looper) Run(ctx context.Context) error {
	defer close(l.stopped)
	log.Debug().Str("looper", l.name).Msg("looper.Looper.Run start")
	for {
		batch, closed := l.take()
		for _, fn := range batch {
			l.exec(fn)
		}
		if closed && len(batch) == 0 {
			log.Debug().Str("looper", l.name).Msg("looper.Looper.Run stopped")
			return nil
		}
		if len(batch) > 0 {
			continue
		}
		select {
		case <-l.wake:
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		}
	}
}

// Close stops accepting work. Run returns after finishing what was already queued.
func (l *Looper) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.signal()
}

func (l *Looper) take() ([]func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch, l.closed
}

func (l *Looper) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("looper", l.name).Interface("panic", r).Msg("looper.Looper.exec recovered")
		}
	}()
	fn()
}

func (l *Looper) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
