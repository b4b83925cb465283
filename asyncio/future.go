// Package asyncio mirrors the store capability set over an async variant:
// every call returns a Future instead of blocking directly, and suspension
// happens at Future.Await rather than inline, so every store interaction
// is a cooperative suspension point. The BlockOn adapters bridge such an
// async store back to the sync store.Readable/Writable/Listable set the
// core engine (package array) actually drives, via an embedder-supplied
// "block on" callback.
package asyncio

import "context"

// Future represents the eventual result of one async store operation. It
// is the suspension point: constructing a Future does no work by itself,
// and Await blocks (cooperatively, respecting ctx) until the producing
// goroutine completes.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// NewFuture returns a Future together with the resolve function its
// producer goroutine must call exactly once.
func NewFuture[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	resolve := func(v T, err error) {
		f.val, f.err = v, err
		close(f.done)
	}
	return f, resolve
}

// Resolved returns a Future that is already complete, for adapters over
// backends that have no genuine asynchrony of their own.
func Resolved[T any](v T, err error) *Future[T] {
	f, resolve := NewFuture[T]()
	resolve(v, err)
	return f
}

// Go runs fn on a new goroutine and returns a Future for its result, the
// usual way an asyncio implementation produces one.
func Go[T any](fn func() (T, error)) *Future[T] {
	f, resolve := NewFuture[T]()
	go func() {
		v, err := fn()
		resolve(v, err)
	}()
	return f
}

// Await suspends until the Future resolves or ctx is cancelled, whichever
// comes first. This is the async path's one cancellation point.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
