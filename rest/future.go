package rest

import (
	"context"
	"sync"
)

// Future is the deferred result of an execution. It resolves exactly once,
// either with a value or with an error.
//
// A Future is safe for concurrent use; any number of goroutines may wait on it.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(v T) {
	f.once.Do(func() {
		f.value = v
		close(f.done)
	})
}

func (f *Future[T]) reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed once the future has resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves and returns its outcome.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// Await is Wait bounded by ctx. If ctx ends first, Await returns ctx.Err();
// the request itself keeps running and the future still resolves. A nil ctx
// waits without a bound.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if ctx == nil {
		return f.Wait()
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then registers fn to run once with the outcome. fn runs on its own
// goroutine; registering after resolution still runs it.
func (f *Future[T]) Then(fn func(T, error)) {
	go func() {
		<-f.done
		fn(f.value, f.err)
	}()
}
