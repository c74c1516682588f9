package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatch(t *testing.T, paths []string, onChange func(context.Context) error) (cancel func(), done <-chan error) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(t.Context())
	errc := make(chan error, 1)
	go func() {
		errc <- Watch(ctx, paths, 50*time.Millisecond, onChange, nil)
	}()
	// Let the watcher register its directories.
	time.Sleep(100 * time.Millisecond)
	return cancelCtx, errc
}

func TestWatch(t *testing.T) {
	t.Parallel()

	t.Run("DebouncesBurst", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		target := filepath.Join(dir, "graph.graphml")
		require.NoError(t, os.WriteFile(target, []byte("v0"), 0o644))

		var calls atomic.Int32
		cancel, done := startWatch(t, []string{target}, func(context.Context) error {
			calls.Add(1)
			return nil
		})

		for i := range 5 {
			require.NoError(t, os.WriteFile(target, []byte{byte('a' + i)}, 0o644))
		}

		assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
		time.Sleep(200 * time.Millisecond)
		assert.Equal(t, int32(1), calls.Load())

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("IgnoresOtherFiles", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		target := filepath.Join(dir, "graph.graphml")

		var calls atomic.Int32
		cancel, done := startWatch(t, []string{target}, func(context.Context) error {
			calls.Add(1)
			return nil
		})

		require.NoError(t, os.WriteFile(filepath.Join(dir, "kv_store.json"), []byte("{}"), 0o644))
		time.Sleep(300 * time.Millisecond)
		assert.Equal(t, int32(0), calls.Load())

		require.NoError(t, os.WriteFile(target, []byte("created"), 0o644))
		assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

		cancel()
		<-done
	})

	t.Run("KeepsWatchingAfterError", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		target := filepath.Join(dir, "vdb_entities.json")

		var calls atomic.Int32
		cancel, done := startWatch(t, []string{target}, func(context.Context) error {
			calls.Add(1)
			return os.ErrInvalid
		})

		require.NoError(t, os.WriteFile(target, []byte("1"), 0o644))
		assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

		require.NoError(t, os.WriteFile(target, []byte("2"), 0o644))
		assert.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)

		cancel()
		<-done
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		t.Parallel()
		err := Watch(t.Context(), []string{filepath.Join(t.TempDir(), "nope", "graph.graphml")}, 0, func(context.Context) error { return nil }, nil)
		assert.Error(t, err)
	})
}
