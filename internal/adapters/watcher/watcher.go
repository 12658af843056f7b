// Package watcher reloads charts when files change in the chart directory.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jobrunner/s57geojson/internal/domain"
)

// Event is a settled change to one chart. Path always names the chart
// itself; changes to S-57 update files are reported as a modification of
// their base cell.
type Event struct {
	Path      string
	ChartID   string
	Operation Operation
}

// Operation is what happened to a chart.
type Operation int

// Chart operations.
const (
	OpCreate Operation = iota
	OpModify
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Handler receives settled chart events, one at a time.
type Handler func(ctx context.Context, event Event) error

// Config holds watcher configuration.
type Config struct {
	Paths []string
	// Quiet is how long a chart must see no further file events before
	// its change is delivered. Defaults to 500ms.
	Quiet time.Duration
}

// Watcher turns bursts of file system events into one Event per chart.
type Watcher struct {
	fs      *fsnotify.Watcher
	handler Handler
	logger  *slog.Logger
	dirs    []string
	quiet   time.Duration

	mu      sync.Mutex
	pending map[string]*settle
	ready   chan Event
	done    chan struct{}
	once    sync.Once
}

// settle collects the events of one chart until it has been quiet long enough.
type settle struct {
	op    Operation
	timer *time.Timer
}

// New creates a watcher. Nothing is watched until Start.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	quiet := cfg.Quiet
	if quiet <= 0 {
		quiet = 500 * time.Millisecond
	}

	return &Watcher{
		fs:      fs,
		handler: handler,
		logger:  logger,
		dirs:    cfg.Paths,
		quiet:   quiet,
		pending: make(map[string]*settle),
		ready:   make(chan Event, 32),
		done:    make(chan struct{}),
	}, nil
}

// Start watches the configured directories and delivers events until ctx
// ends or Stop is called. Directories that cannot be watched are logged
// and skipped.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			w.logger.Warn("invalid watch path", "path", dir, "error", err)
			continue
		}
		if err := w.fs.Add(abs); err != nil {
			w.logger.Warn("failed to watch path", "path", abs, "error", err)
			continue
		}
		w.logger.Info("watching chart directory", "path", abs)
	}

	go w.run(ctx)
	return nil
}

// Stop ends watching. Changes that have not settled yet are dropped.
func (w *Watcher) Stop() error {
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		for path, s := range w.pending {
			s.timer.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()
	})
	return w.fs.Close()
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleFsEvent(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		case e := <-w.ready:
			w.deliver(ctx, e)
		}
	}
}

func (w *Watcher) deliver(ctx context.Context, e Event) {
	w.logger.Info("chart changed", "path", e.Path, "operation", e.Operation.String())
	if err := w.handler(ctx, e); err != nil {
		w.logger.Error("chart reload failed",
			"path", e.Path,
			"operation", e.Operation.String(),
			"error", err,
		)
	}
}

// handleFsEvent records one raw event against the chart it affects and
// restarts that chart's quiet period.
func (w *Watcher) handleFsEvent(ev fsnotify.Event) {
	path, op, ok := chartEvent(ev.Name, fsnotifyOpToOperation(ev.Op))
	if !ok {
		return
	}
	w.logger.Debug("file event", "path", ev.Name, "op", ev.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()

	if s, ok := w.pending[path]; ok {
		s.op = merge(s.op, op)
		s.timer.Reset(w.quiet)
		return
	}
	w.pending[path] = &settle{
		op:    op,
		timer: time.AfterFunc(w.quiet, func() { w.flush(path) }),
	}
}

// flush hands a settled chart change to the run loop.
func (w *Watcher) flush(path string) {
	w.mu.Lock()
	s, ok := w.pending[path]
	if ok {
		delete(w.pending, path)
	}
	w.mu.Unlock()
	if !ok {
		return
	}

	select {
	case w.ready <- Event{Path: path, ChartID: domain.ChartID(path), Operation: s.op}:
	case <-w.done:
	}
}

// merge folds a new operation into the one already pending for a chart.
// A delete wins, a re-created file is a create, and a modify never
// downgrades a pending create.
func merge(pending, next Operation) Operation {
	switch {
	case next == OpDelete:
		return OpDelete
	case pending == OpDelete && next == OpCreate:
		return OpCreate
	default:
		return pending
	}
}

// fsnotifyOpToOperation converts fsnotify.Op to an Operation. A rename
// moves the file away, so it counts as a delete.
func fsnotifyOpToOperation(op fsnotify.Op) Operation {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpDelete
	case op.Has(fsnotify.Create):
		return OpCreate
	default:
		return OpModify
	}
}

// chartEvent maps a file event to the chart it affects. Hidden files, such
// as partial downloads, and unrelated files are ignored. An update file
// touches its base cell, which must be reloaded to apply the update.
func chartEvent(path string, op Operation) (string, Operation, bool) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return "", op, false
	}
	if domain.IsUpdateFile(path) {
		return baseCellPath(path), OpModify, true
	}
	if domain.IsChartFile(path) {
		return path, op, true
	}
	return "", op, false
}

// baseCellPath returns the path of the .000 cell an update file belongs to.
func baseCellPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".000"
}
