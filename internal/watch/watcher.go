// Package watch converts CSV files dropped into a directory.
//
// A Watcher monitors a single directory (non-recursive) for CSV files.
// Each file is converted once it has been quiet for the debounce window,
// so partially written files are not picked up mid-copy. Converted output
// lands in OutputDir and the processed input moves to DoneDir.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/JonMunkholm/ContactPort/internal/core"
)

const (
	DefaultOutputDir = "converted"
	DefaultDoneDir   = "done"
	DefaultDebounce  = 2 * time.Second
)

// Options configure a Watcher.
type Options struct {
	// Dir is the directory to watch. Required.
	Dir string

	// OutputDir receives converted files. Relative paths are resolved
	// against Dir. Default: "converted".
	OutputDir string

	// DoneDir receives processed inputs. Relative paths are resolved
	// against Dir. Default: "done".
	DoneDir string

	// Debounce is how long a file must be quiet before conversion.
	Debounce time.Duration

	// Convert holds the source format and topic configuration applied
	// to every file.
	Convert core.Options
}

// Watcher monitors a directory and converts settled CSV files.
type Watcher struct {
	opts    Options
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New validates options, creates the output directories, and starts
// watching. Call Run to begin processing events.
func New(opts Options) (*Watcher, error) {
	if opts.Dir == "" {
		return nil, errors.New("watch: directory required")
	}

	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if !filepath.IsAbs(opts.OutputDir) {
		opts.OutputDir = filepath.Join(opts.Dir, opts.OutputDir)
	}
	if opts.DoneDir == "" {
		opts.DoneDir = DefaultDoneDir
	}
	if !filepath.IsAbs(opts.DoneDir) {
		opts.DoneDir = filepath.Join(opts.Dir, opts.DoneDir)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.DoneDir, 0755); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(opts.Dir); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		opts:    opts,
		watcher: fsw,
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Run converts CSV files already present in the directory, then blocks
// processing filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.convertExisting(ctx); err != nil {
		return err
	}

	slog.Info("watching directory",
		"dir", w.opts.Dir,
		"output_dir", w.opts.OutputDir,
		"format", w.opts.Convert.Format,
	)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isCSV(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

// convertExisting processes CSV files already sitting in the directory
// when the watcher starts.
func (w *Watcher) convertExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !isCSV(entry.Name()) {
			continue
		}
		w.convertOne(ctx, filepath.Join(w.opts.Dir, entry.Name()))
	}
	return nil
}

// schedule resets the debounce timer for a path. The conversion fires
// once no further events arrive within the debounce window.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.convertOne(ctx, path)
	})
}

// stopTimers cancels all pending debounce timers.
func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// convertOne converts a single file and moves it to DoneDir on success.
// Failures leave the input in place so it can be inspected and retried.
func (w *Watcher) convertOne(ctx context.Context, path string) {
	// The file may have been renamed or deleted since the event fired.
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		slog.Warn("stat failed", "file", path, "error", err)
		return
	}

	outputPath := filepath.Join(w.opts.OutputDir, filepath.Base(path))
	start := time.Now()

	rows, err := core.ConvertFile(ctx, path, outputPath, w.opts.Convert)
	if err != nil {
		slog.Error("conversion failed", "file", path, "error", err)
		return
	}

	donePath := filepath.Join(w.opts.DoneDir, filepath.Base(path))
	if err := os.Rename(path, donePath); err != nil {
		slog.Warn("move to done failed", "file", path, "error", err)
	}

	slog.Info("converted file",
		"file", path,
		"output", outputPath,
		"rows", rows,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
