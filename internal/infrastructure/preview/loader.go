package preview

import (
	"context"
	"fmt"
	"sync"
)

type LoaderState string

const (
	StateIdle    LoaderState = "idle"
	StateLoading LoaderState = "loading"
	StateLoaded  LoaderState = "loaded"
	StateFailed  LoaderState = "failed"
)

// Loader runs an expensive initialisation at most once. Concurrent callers
// wait for the same attempt; a failure is kept and returned to every later
// caller.
type Loader[T any] struct {
	init func() (T, error)

	mu     sync.Mutex
	state  LoaderState
	done   chan struct{}
	handle T
	err    error
}

func NewLoader[T any](init func() (T, error)) *Loader[T] {
	return &Loader[T]{init: init, state: StateIdle}
}

func (l *Loader[T]) State() LoaderState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Load returns the handle, starting the initialisation on first use.
// Cancelling ctx stops the wait, not the initialisation.
func (l *Loader[T]) Load(ctx context.Context) (T, error) {
	l.mu.Lock()
	switch l.state {
	case StateLoaded:
		defer l.mu.Unlock()
		return l.handle, nil
	case StateFailed:
		defer l.mu.Unlock()
		var zero T
		return zero, l.err
	case StateIdle:
		l.state = StateLoading
		l.done = make(chan struct{})
		go l.run(l.done)
	}
	done := l.done
	l.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateFailed {
		var zero T
		return zero, l.err
	}
	return l.handle, nil
}

func (l *Loader[T]) run(done chan struct{}) {
	handle, err := l.safeInit()

	l.mu.Lock()
	if err != nil {
		l.state = StateFailed
		l.err = err
	} else {
		l.state = StateLoaded
		l.handle = handle
	}
	l.mu.Unlock()
	close(done)
}

func (l *Loader[T]) safeInit() (handle T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("preview engine init panic: %v", r)
		}
	}()
	return l.init()
}
