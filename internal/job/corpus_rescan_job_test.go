package job

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ragtimehq/ragtime/internal/rag"
)

type fixedEmbedder struct{}

func (fixedEmbedder) ModelName() string { return "test-embed" }

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = float32(binary.BigEndian.Uint16(sum[i*2:]))
	}
	return vec, nil
}

func newRescanEngine(t *testing.T) *rag.Engine {
	t.Helper()
	cache, err := rag.NewChunkCache(t.TempDir())
	require.NoError(t, err)
	return rag.NewEngine(rag.NewIngestor(cache, 0), rag.NewIndex(), fixedEmbedder{}, rag.EngineOptions{})
}

func TestCorpusRescanIngestsOnceUntilModified(t *testing.T) {
	dir := t.TempDir()
	engine := newRescanEngine(t)
	j := NewCorpusRescanJob(engine, dir)
	ctx := context.Background()

	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha beta gamma"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.bin"), []byte{0x1}, 0o644))

	require.NoError(t, j.Run(ctx))
	require.Equal(t, 1, engine.ChunkCount())

	// Unchanged file, second sweep is a no-op.
	require.NoError(t, j.Run(ctx))
	require.Equal(t, 1, engine.ChunkCount())

	// Touch with a newer mtime to force a re-read.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
	require.NoError(t, os.WriteFile(path, []byte("delta epsilon zeta eta"), 0o644))
	require.NoError(t, os.Chtimes(path, future, future))
	require.NoError(t, j.Run(ctx))
	require.Equal(t, 2, engine.ChunkCount())
}

func TestCorpusRescanMarkSeenSkipsWatcherHandledFile(t *testing.T) {
	dir := t.TempDir()
	engine := newRescanEngine(t)
	j := NewCorpusRescanJob(engine, dir)

	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# already ingested"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)
	j.MarkSeen(path, info.ModTime())

	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, 0, engine.ChunkCount())
}

func TestCorpusRescanMissingDirErrors(t *testing.T) {
	j := NewCorpusRescanJob(newRescanEngine(t), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, j.Run(context.Background()))
}
