package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_CollapsesBursts(t *testing.T) {
	mock := clock.NewMock()
	fired := make(chan struct{}, 10)
	d := newDebouncer(mock, 100*time.Millisecond, func() { fired <- struct{}{} })

	d.trigger()
	mock.Add(50 * time.Millisecond)
	d.trigger()
	mock.Add(50 * time.Millisecond)
	d.trigger()

	select {
	case <-fired:
		t.Fatal("fired before the file went quiet")
	case <-time.After(20 * time.Millisecond):
	}

	mock.Add(100 * time.Millisecond)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}

	select {
	case <-fired:
		t.Fatal("fired more than once")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	mock := clock.NewMock()
	var calls atomic.Int32
	d := newDebouncer(mock, 100*time.Millisecond, func() { calls.Add(1) })

	d.trigger()
	d.stop()
	d.trigger()
	mock.Add(time.Second)
	time.Sleep(20 * time.Millisecond)

	assert.Zero(t, calls.Load())
}

func TestWatcher_RunFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requests.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o600))

	w := New(path, zerolog.Nop())
	w.Delay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { fired <- struct{}{} })
	}()

	// Writes to other files in the directory are ignored; the watched
	// file is rewritten until the watcher has started and reports it.
	deadline := time.After(5 * time.Second)
	for {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))
		require.NoError(t, os.WriteFile(path, []byte("b"), 0o600))

		select {
		case <-fired:
			cancel()
			require.NoError(t, <-done)
			return
		case <-deadline:
			t.Fatal("change was never reported")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestWatcher_RunMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "requests.yaml"), zerolog.Nop())

	err := w.Run(context.Background(), func() {})
	assert.Error(t, err)
}
