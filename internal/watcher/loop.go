package watcher

import (
	"context"
	"sync"
)

// defaultQueueSize bounds completions waiting for the loop.
const defaultQueueSize = 64

// Loop runs posted functions one at a time on the goroutine that calls Run.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once

	// Owned by the loop goroutine.
	quitting bool
	status   int
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{
		queue: make(chan func(), defaultQueueSize),
		done:  make(chan struct{}),
	}
}

// Post queues fn to run on the loop. It returns false if the loop has
// already exited, in which case fn is dropped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Quit asks the loop to stop with the given status once the current
// function returns. The first request wins. Must be called on the loop.
func (l *Loop) Quit(status int) {
	if l.quitting {
		return
	}
	l.quitting = true
	l.status = status
}

// Run processes posted functions until Quit is called or ctx is done. A
// cancelled context is an orderly shutdown and yields status 0.
func (l *Loop) Run(ctx context.Context) int {
	defer l.once.Do(func() { close(l.done) })

	for !l.quitting {
		select {
		case <-ctx.Done():
			return 0
		case fn := <-l.queue:
			fn()
		}
	}
	return l.status
}

// onLoop wraps fn so that calling the result from any goroutine runs fn on
// the loop.
func onLoop[T any](l *Loop, fn func(T)) func(T) {
	return func(v T) {
		l.Post(func() { fn(v) })
	}
}

// onLoop2 is onLoop for two-argument callbacks.
func onLoop2[A, B any](l *Loop, fn func(A, B)) func(A, B) {
	return func(a A, b B) {
		l.Post(func() { fn(a, b) })
	}
}
