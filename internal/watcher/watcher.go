// Package watcher auto-ingests documents dropped into a watched directory.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragtimehq/ragtime/internal/extract"
	"github.com/ragtimehq/ragtime/internal/rag"
)

// debounceDelay lets a file settle before ingestion; editors and copies
// emit several write events for one save.
const debounceDelay = 500 * time.Millisecond

// Sink receives files picked up from the watched directory.
type Sink interface {
	IngestCorpus(ctx context.Context, uploads []rag.Upload) (int, []rag.IngestFailure)
}

// Seen is notified after a successful pickup so periodic rescans skip the
// file. Optional.
type Seen interface {
	MarkSeen(path string, modTime time.Time)
}

type Watcher struct {
	dir   string
	sink  Sink
	seen  Seen
	fsw   *fsnotify.Watcher
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func New(dir string, sink Sink, seen Seen) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		dir:     dir,
		sink:    sink,
		seen:    seen,
		fsw:     fsw,
		delay:   debounceDelay,
		pending: make(map[string]*time.Timer),
	}, nil
}

// Run consumes filesystem events until the context is canceled. Blocking;
// callers run it in a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	logutil.GetLogger(ctx).Info("watching documents directory", zap.String("dir", w.dir))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !extract.Supported(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logutil.GetLogger(ctx).Warn("watch error", zap.Error(err))
		}
	}
}

// schedule coalesces bursts of events for one path into a single pickup.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.delay)
		return
	}
	w.pending[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.pickup(ctx, path)
	})
}

func (w *Watcher) pickup(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	logger := logutil.GetLogger(ctx).With(zap.String("path", path))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read watched file", zap.Error(err))
		return
	}
	added, failures := w.sink.IngestCorpus(ctx, []rag.Upload{
		rag.FileUpload{FileName: filepath.Base(path), Data: data},
	})
	if len(failures) > 0 {
		logger.Warn("watched file not ingested", zap.String("reason", failures[0].Err))
		return
	}
	if w.seen != nil {
		w.seen.MarkSeen(path, info.ModTime())
	}
	logger.Info("watched file ingested", zap.Int("chunks", added))
}
