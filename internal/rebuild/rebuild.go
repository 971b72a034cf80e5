// Package rebuild supervises the external indexer that produces the
// ctxgraph snapshot. The engine itself never builds the graph; this
// package runs the indexer command, and watches the snapshot file so
// the vocabulary cache can be refreshed after an out-of-band rebuild.
package rebuild

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultTimeout bounds one indexer run.
const DefaultTimeout = 5 * time.Minute

// debounceInterval batches rapid snapshot writes into one reload.
const debounceInterval = 2 * time.Second

// Runner invokes the external indexer for one project.
type Runner struct {
	// ProjectPath is passed to the indexer as its final argument.
	ProjectPath string

	// Command is the indexer invocation, e.g. ["ctxgraph-indexer", "--full"].
	Command []string

	// Timeout bounds the run; zero means DefaultTimeout.
	Timeout time.Duration
}

// Result is the outcome of one indexer run.
type Result struct {
	Output   string
	Duration time.Duration
}

// Run executes the indexer and captures its combined output. A non-zero
// exit is returned as an error carrying the output, so callers can show
// the indexer's own diagnostics.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if len(r.Command) == 0 {
		return nil, fmt.Errorf("no indexer command configured")
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(r.Command[1:], r.ProjectPath)
	cmd := exec.CommandContext(ctx, r.Command[0], args...)

	start := time.Now()
	out, err := cmd.CombinedOutput()
	result := &Result{Output: string(out), Duration: time.Since(start)}
	if err != nil {
		return result, fmt.Errorf("indexer failed: %w\n%s", err, out)
	}
	return result, nil
}

// WatchSnapshot watches the directory containing the snapshot file and
// invokes onChange after writes to it settle. Blocks until the context
// is cancelled. Used to refresh the vocabulary cache when an external
// indexer rewrites the snapshot underneath a running server.
func WatchSnapshot(ctx context.Context, snapshotPath string, onChange func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: SQLite writes via rename leave
	// a file-level watch dangling.
	dir := filepath.Dir(snapshotPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	base := filepath.Base(snapshotPath)
	debounce := time.NewTimer(debounceInterval)
	debounce.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			// The -wal and -shm companions change on every write too.
			if name != base && name != base+"-wal" && name != base+"-shm" {
				continue
			}
			pending = true
			debounce.Reset(debounceInterval)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)

		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			if err := onChange(); err != nil {
				return err
			}
		}
	}
}
