package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tphakala/orderlens/internal/errors"
	"github.com/tphakala/orderlens/internal/logger"
)

// DefaultSettleDelay is how long a file must stay quiet before it is ingested.
const DefaultSettleDelay = 500 * time.Millisecond

// exportExt is the extension of export files picked up by the watcher.
const exportExt = ".json"

// FileHandler ingests one export file.
type FileHandler func(ctx context.Context, path string) error

// Watcher ingests export files dropped into a directory. Files already
// present when it starts are ingested first.
type Watcher struct {
	dir    string
	handle FileHandler
	settle time.Duration
	log    logger.Logger

	// seen holds the modification time of each file last handled.
	seen map[string]time.Time
}

// NewWatcher creates a watcher over dir. A zero settle uses DefaultSettleDelay.
func NewWatcher(dir string, handle FileHandler, settle time.Duration, log logger.Logger) *Watcher {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	return &Watcher{
		dir:    dir,
		handle: handle,
		settle: settle,
		log:    log.Module("ingest").With(logger.String("watch_dir", dir)),
		seen:   make(map[string]time.Time),
	}
}

// Run watches until ctx is done. Handler failures are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("operation", "create_watcher").
			Build()
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("operation", "watch_dir").
			Context("dir", w.dir).
			Build()
	}
	w.log.Info("watching for exports")

	w.ingestExisting(ctx)

	pending := newDebouncer(w.settle)
	defer pending.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isExportFile(event.Name) || !(event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) {
				continue
			}
			pending.touch(ctx, event.Name)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", logger.Error(err))

		case s := <-pending.ready:
			if pending.take(s) {
				w.process(ctx, s.path)
			}
		}
	}
}

// settled reports that path has been quiet since the timer with seq was armed.
type settled struct {
	path string
	seq  uint64
}

// debouncer delays each path until no event has touched it for the settle
// delay. It is owned by a single goroutine; only the timers send on ready.
type debouncer struct {
	settle time.Duration
	ready  chan settled
	timers map[string]*time.Timer
	seqs   map[string]uint64
	next   uint64
}

func newDebouncer(settle time.Duration) *debouncer {
	return &debouncer{
		settle: settle,
		ready:  make(chan settled, 16),
		timers: make(map[string]*time.Timer),
		seqs:   make(map[string]uint64),
	}
}

// touch restarts the quiet period of path. A timer that already fired is
// replaced, and its pending notification is dropped by take.
func (d *debouncer) touch(ctx context.Context, path string) {
	if t, ok := d.timers[path]; ok && t.Stop() {
		t.Reset(d.settle)
		return
	}
	d.next++
	s := settled{path: path, seq: d.next}
	d.seqs[path] = s.seq
	d.timers[path] = time.AfterFunc(d.settle, func() {
		select {
		case d.ready <- s:
		case <-ctx.Done():
		}
	})
}

// take reports whether s is the current notification for its path and
// forgets the path when it is.
func (d *debouncer) take(s settled) bool {
	if d.seqs[s.path] != s.seq {
		return false
	}
	delete(d.seqs, s.path)
	delete(d.timers, s.path)
	return true
}

func (d *debouncer) stop() {
	for _, t := range d.timers {
		t.Stop()
	}
}

func (w *Watcher) ingestExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Warn("failed to list watch directory", logger.Error(err))
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isExportFile(e.Name()) {
			names = append(names, filepath.Join(w.dir, e.Name()))
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, name)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.log.Debug("export file vanished before ingest", logger.String("file", path))
		return
	}
	if last, ok := w.seen[path]; ok && last.Equal(info.ModTime()) {
		return
	}
	w.seen[path] = info.ModTime()

	if err := w.handle(ctx, path); err != nil {
		w.log.Error("failed to ingest export file",
			logger.String("file", path),
			logger.Error(err))
		return
	}
	w.log.Info("export file ingested", logger.String("file", path))
}

func isExportFile(name string) bool {
	base := filepath.Base(name)
	return strings.EqualFold(filepath.Ext(base), exportExt) && !strings.HasPrefix(base, ".")
}
