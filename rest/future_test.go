package rest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_ResolvesOnce(t *testing.T) {
	f := newFuture[int]()
	f.resolve(1)
	f.resolve(2)
	f.reject(errors.New("late"))

	v, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFuture_RejectsOnce(t *testing.T) {
	f := newFuture[int]()
	boom := errors.New("boom")
	f.reject(boom)
	f.resolve(3)

	v, err := f.Wait()
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, v)
}

func TestFuture_ConcurrentResolution(t *testing.T) {
	f := newFuture[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				f.resolve(i)
			} else {
				f.reject(errors.New("odd"))
			}
		}(i)
	}
	wg.Wait()

	first, firstErr := f.Wait()
	for i := 0; i < 10; i++ {
		v, err := f.Wait()
		assert.Equal(t, first, v)
		assert.Equal(t, firstErr, err)
	}
}

func TestFuture_AwaitStopsWaitingOnContext(t *testing.T) {
	transport := &recordingTransport{release: make(chan struct{})}
	future := NewBuilder(transport).Go(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := future.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(transport.release)
	resp, err := future.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestFuture_AwaitNilContextWaits(t *testing.T) {
	transport := &recordingTransport{response: jsonResponse(200, `{"ok":true}`)}
	future := NewBuilder(transport).Go(context.Background())

	var ctx context.Context
	resp, err := future.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestFuture_Then(t *testing.T) {
	transport := &recordingTransport{response: jsonResponse(200, `{"ok":true}`)}
	future := NewBuilder(transport).Go(context.Background())

	got := make(chan any, 1)
	future.Then(func(resp *ClientResponse[any], err error) {
		if err != nil {
			got <- err
			return
		}
		got <- resp.Body
	})

	select {
	case body := <-got:
		assert.Equal(t, map[string]any{"ok": true}, body)
	case <-time.After(5 * time.Second):
		t.Fatal("continuation did not run")
	}
}

func TestFuture_ThenAfterResolution(t *testing.T) {
	f := newFuture[string]()
	f.reject(errors.New("failed"))

	done := make(chan error, 1)
	f.Then(func(_ string, err error) { done <- err })

	select {
	case err := <-done:
		assert.EqualError(t, err, "failed")
	case <-time.After(5 * time.Second):
		t.Fatal("continuation did not run")
	}
}

func TestFuture_IndependentBuildersRunConcurrently(t *testing.T) {
	transport := &recordingTransport{}

	futures := make([]*Future[*ClientResponse[any]], 0, 20)
	for i := 0; i < 20; i++ {
		futures = append(futures, NewBuilder(transport).WithURI("/items").WithURISegment(i).Go(context.Background()))
	}
	for _, f := range futures {
		_, err := f.Wait()
		require.NoError(t, err)
	}

	assert.Len(t, transport.sent(), 20)
}
