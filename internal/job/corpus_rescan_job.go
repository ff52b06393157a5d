package job

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragtimehq/ragtime/internal/extract"
	"github.com/ragtimehq/ragtime/internal/rag"
)

// CorpusRescanJob sweeps the documents directory and ingests files the
// filesystem watcher missed (events dropped, files present before startup).
// Files are tracked by path and modification time so an unchanged file is
// never re-indexed.
type CorpusRescanJob struct {
	engine *rag.Engine
	dir    string

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewCorpusRescanJob(engine *rag.Engine, dir string) *CorpusRescanJob {
	return &CorpusRescanJob{
		engine: engine,
		dir:    dir,
		seen:   make(map[string]time.Time),
	}
}

func (j *CorpusRescanJob) Name() string {
	return "corpus_rescan"
}

func (j *CorpusRescanJob) Run(ctx context.Context) error {
	if j.engine == nil || j.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return err
	}
	var uploads []rag.Upload
	j.mu.Lock()
	for _, entry := range entries {
		if entry.IsDir() || !extract.Supported(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if prev, ok := j.seen[path]; ok && !info.ModTime().After(prev) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logutil.GetLogger(ctx).Warn("rescan read failed", zap.String("path", path), zap.Error(err))
			continue
		}
		j.seen[path] = info.ModTime()
		uploads = append(uploads, rag.FileUpload{FileName: entry.Name(), Data: data})
	}
	j.mu.Unlock()
	if len(uploads) == 0 {
		return nil
	}
	added, failures := j.engine.IngestCorpus(ctx, uploads)
	logutil.GetLogger(ctx).Info("corpus rescan ingested",
		zap.Int("files", len(uploads)),
		zap.Int("chunks", added),
		zap.Int("failures", len(failures)))
	return nil
}

// MarkSeen records a path the watcher already ingested so the next sweep
// skips it.
func (j *CorpusRescanJob) MarkSeen(path string, modTime time.Time) {
	j.mu.Lock()
	j.seen[path] = modTime
	j.mu.Unlock()
}
