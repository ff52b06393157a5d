package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragtimehq/ragtime/internal/extract"
	"github.com/ragtimehq/ragtime/internal/model"
	apperrors "github.com/ragtimehq/ragtime/internal/pkg/errors"
)

const defaultChunkWords = 300

// Upload is one input item to ingestion: a name plus its raw bytes.
type Upload interface {
	Name() string
	Bytes() ([]byte, error)
}

// FileUpload is the trivial in-memory Upload.
type FileUpload struct {
	FileName string
	Data     []byte
}

func (f FileUpload) Name() string           { return f.FileName }
func (f FileUpload) Bytes() ([]byte, error) { return f.Data, nil }

// IngestFailure reports one skipped file from a batch.
type IngestFailure struct {
	Name string `json:"name"`
	Err  string `json:"error"`
}

// Ingestor extracts plain text from uploads and splits it into fixed-size
// word-count chunks, memoized through the chunk cache.
type Ingestor struct {
	cache      *ChunkCache
	chunkWords int
}

func NewIngestor(cache *ChunkCache, chunkWords int) *Ingestor {
	if chunkWords <= 0 {
		chunkWords = defaultChunkWords
	}
	return &Ingestor{cache: cache, chunkWords: chunkWords}
}

// Ingest turns one upload into chunks. The cache key is the content hash
// only; on a hit the cached chunks are rebound to the current upload's name
// so the same bytes under a different filename still deduplicate.
func (in *Ingestor) Ingest(ctx context.Context, name string, raw []byte) ([]model.Chunk, error) {
	hash := HashBytes(raw)
	if in.cache != nil {
		if cached, ok := in.cache.Get(ctx, hash); ok {
			logutil.GetLogger(ctx).Debug("chunk cache hit", zap.String("file", name))
			return rebindFilename(cached, name), nil
		}
	}

	text, err := extract.ForFilename(name).Extract(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrIngestion, name, err)
	}
	chunks := splitWords(text, in.chunkWords)
	out := make([]model.Chunk, 0, len(chunks))
	for _, content := range chunks {
		out = append(out, model.Chunk{Filename: name, Content: content, OriginHash: hash})
	}
	if in.cache != nil {
		if err := in.cache.Put(ctx, hash, out); err != nil {
			logutil.GetLogger(ctx).Warn("chunk cache write failed", zap.String("file", name), zap.Error(err))
		}
	}
	return out, nil
}

// IngestAll processes a batch. A failing file is reported and skipped, it
// never aborts the remaining files.
func (in *Ingestor) IngestAll(ctx context.Context, uploads []Upload) ([]model.Chunk, []IngestFailure) {
	var all []model.Chunk
	var failures []IngestFailure
	for _, u := range uploads {
		raw, err := u.Bytes()
		if err == nil {
			var chunks []model.Chunk
			chunks, err = in.Ingest(ctx, u.Name(), raw)
			if err == nil {
				all = append(all, chunks...)
				continue
			}
		}
		logutil.GetLogger(ctx).Warn("skipping file", zap.String("file", u.Name()), zap.Error(err))
		failures = append(failures, IngestFailure{Name: u.Name(), Err: err.Error()})
	}
	return all, failures
}

func rebindFilename(chunks []model.Chunk, name string) []model.Chunk {
	out := make([]model.Chunk, len(chunks))
	for i, c := range chunks {
		c.Filename = name
		out[i] = c
	}
	return out
}

// splitWords cuts text into non-overlapping windows of n words each.
func splitWords(text string, n int) []string {
	words := strings.Fields(text)
	var out []string
	for i := 0; i < len(words); i += n {
		end := i + n
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[i:end], " "))
	}
	return out
}
