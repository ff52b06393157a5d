package rag

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragtimehq/ragtime/internal/ai"
	"github.com/ragtimehq/ragtime/internal/model"
)

const (
	defaultTopK          = 3
	defaultMinSimilarity = 0.0
	snippetMaxChars      = 300
	snippetMarker        = "..."
)

// Engine is the retrieval side of the pipeline: it ingests a corpus into the
// index and answers similarity queries. Retrieval is an optional augmentation
// of a chat turn; with no embedder or an empty corpus it returns nothing
// instead of failing.
type Engine struct {
	ingestor      *Ingestor
	index         *Index
	embedder      ai.IEmbedder
	topK          int
	minSimilarity float64
}

type EngineOptions struct {
	TopK          int
	MinSimilarity float64
}

func NewEngine(ingestor *Ingestor, index *Index, embedder ai.IEmbedder, opts EngineOptions) *Engine {
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Engine{
		ingestor:      ingestor,
		index:         index,
		embedder:      embedder,
		topK:          topK,
		minSimilarity: opts.MinSimilarity,
	}
}

// IngestCorpus chunks every upload and extends the index. Per-file ingestion
// and embedding failures are reported, never fatal.
func (e *Engine) IngestCorpus(ctx context.Context, uploads []Upload) (int, []IngestFailure) {
	chunks, failures := e.ingestor.IngestAll(ctx, uploads)
	chunks = e.dropIndexedOrigins(ctx, chunks)
	if len(chunks) == 0 {
		return 0, failures
	}
	if e.embedder == nil {
		logutil.GetLogger(ctx).Warn("no embedder configured, chunks not indexed", zap.Int("chunks", len(chunks)))
		return 0, failures
	}
	// Embed everything first so chunks and vectors land in the index in a
	// single aligned append.
	vectors := make([][]float32, 0, len(chunks))
	indexed := make([]model.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := e.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			logutil.GetLogger(ctx).Warn("embedding failed, chunk skipped",
				zap.String("file", chunk.Filename), zap.Error(err))
			failures = append(failures, IngestFailure{Name: chunk.Filename, Err: err.Error()})
			continue
		}
		vectors = append(vectors, vec)
		indexed = append(indexed, chunk)
	}
	if err := e.index.Extend(indexed, vectors); err != nil {
		logutil.GetLogger(ctx).Error("index extend failed", zap.Error(err))
		return 0, failures
	}
	return len(indexed), failures
}

// dropIndexedOrigins filters out chunks whose source document is already in
// the index, so re-uploading the same bytes neither re-embeds nor duplicates
// snippets.
func (e *Engine) dropIndexedOrigins(ctx context.Context, chunks []model.Chunk) []model.Chunk {
	kept := chunks[:0]
	skipped := 0
	for _, c := range chunks {
		if e.index.ContainsOrigin(c.OriginHash) {
			skipped++
			continue
		}
		kept = append(kept, c)
	}
	if skipped > 0 {
		logutil.GetLogger(ctx).Info("skipping already indexed chunks", zap.Int("chunks", skipped))
	}
	return kept
}

// Retrieve embeds the query and returns the top-k most similar chunks above
// the similarity threshold, as truncated snippets. An unavailable embedder or
// empty corpus yields an empty result and no error.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) []model.RetrievalResult {
	if e.embedder == nil || e.index.Len() == 0 {
		return nil
	}
	if k <= 0 {
		k = e.topK
	}
	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		logutil.GetLogger(ctx).Warn("query embedding failed, retrieval skipped", zap.Error(err))
		return nil
	}
	matches := e.index.Search(queryVec, k, e.minSimilarity)
	results := make([]model.RetrievalResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, model.RetrievalResult{
			Filename:   m.chunk.Filename,
			Snippet:    truncateSnippet(m.chunk.Content),
			Similarity: m.similarity,
		})
	}
	return results
}

// ChunkCount reports how many chunks are searchable.
func (e *Engine) ChunkCount() int {
	return e.index.Len()
}

func truncateSnippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetMaxChars {
		return content
	}
	return string(runes[:snippetMaxChars]) + snippetMarker
}
