package rebuild

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("relies on unix shell utilities")
	}

	ctx := context.Background()

	t.Run("CapturesOutput", func(t *testing.T) {
		t.Parallel()
		runner := &Runner{ProjectPath: "/tmp/project", Command: []string{"echo", "indexed"}}

		result, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Contains(t, result.Output, "indexed")
		assert.Contains(t, result.Output, "/tmp/project")
		assert.Greater(t, result.Duration, time.Duration(0))
	})

	t.Run("NoCommand", func(t *testing.T) {
		t.Parallel()
		runner := &Runner{ProjectPath: "/tmp/project"}

		_, err := runner.Run(ctx)

		assert.Error(t, err)
	})

	t.Run("FailureCarriesOutput", func(t *testing.T) {
		t.Parallel()
		runner := &Runner{ProjectPath: ".", Command: []string{"false"}}

		result, err := runner.Run(ctx)

		require.Error(t, err)
		require.NotNil(t, result)
		assert.Contains(t, err.Error(), "indexer failed")
	})

	t.Run("Timeout", func(t *testing.T) {
		t.Parallel()
		runner := &Runner{
			ProjectPath: ".",
			Command:     []string{"sleep", "5"},
			Timeout:     50 * time.Millisecond,
		}

		_, err := runner.Run(ctx)

		assert.Error(t, err)
	})
}

func TestWatchSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("FiresAfterWrite", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		snapshot := filepath.Join(dir, "graph.sqlite")
		require.NoError(t, os.WriteFile(snapshot, []byte("v1"), 0o644))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		fired := make(chan struct{}, 1)
		done := make(chan error, 1)
		go func() {
			done <- WatchSnapshot(ctx, snapshot, func() error {
				select {
				case fired <- struct{}{}:
				default:
				}
				return nil
			})
		}()

		// Give the watcher time to register, then touch the file.
		time.Sleep(200 * time.Millisecond)
		require.NoError(t, os.WriteFile(snapshot, []byte("v2"), 0o644))

		select {
		case <-fired:
		case <-time.After(10 * time.Second):
			t.Fatal("watcher did not fire after snapshot write")
		}

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("IgnoresUnrelatedFiles", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		snapshot := filepath.Join(dir, "graph.sqlite")
		require.NoError(t, os.WriteFile(snapshot, []byte("v1"), 0o644))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		fired := make(chan struct{}, 1)
		go func() {
			_ = WatchSnapshot(ctx, snapshot, func() error {
				select {
				case fired <- struct{}{}:
				default:
				}
				return nil
			})
		}()

		time.Sleep(200 * time.Millisecond)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

		select {
		case <-fired:
			t.Fatal("watcher fired for an unrelated file")
		case <-time.After(3 * time.Second):
		}
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		t.Parallel()
		err := WatchSnapshot(context.Background(), "/no/such/dir/graph.sqlite", func() error {
			return nil
		})

		assert.Error(t, err)
	})
}
