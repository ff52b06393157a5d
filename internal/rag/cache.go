package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragtimehq/ragtime/internal/model"
	apperrors "github.com/ragtimehq/ragtime/internal/pkg/errors"
)

// ChunkCache is a content-addressed on-disk cache mapping a document's byte
// hash to its pre-computed chunk list. Entries are append-only; identical
// bytes map to the same key regardless of filename so a re-upload under a
// new name never recomputes. An unreadable entry is treated as a miss.
type ChunkCache struct {
	dir string
}

func NewChunkCache(dir string) (*ChunkCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &ChunkCache{dir: dir}, nil
}

// HashBytes returns the cache key for a document's raw bytes.
func HashBytes(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func (c *ChunkCache) Get(ctx context.Context, hash string) ([]model.Chunk, bool) {
	data, err := os.ReadFile(c.path(hash))
	if err != nil {
		return nil, false
	}
	var chunks []model.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		// Treated as a miss, the caller recomputes.
		logutil.GetLogger(ctx).Warn("dropping unreadable cache entry",
			zap.String("hash", hash),
			zap.Error(fmt.Errorf("%w: %v", apperrors.ErrCacheCorrupt, err)))
		return nil, false
	}
	return chunks, true
}

func (c *ChunkCache) Put(ctx context.Context, hash string, chunks []model.Chunk) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	tmp := c.path(hash) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	// Rename keeps concurrent writers of the same key from exposing a half
	// written entry; last writer wins, which is fine for identical content.
	if err := os.Rename(tmp, c.path(hash)); err != nil {
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}

func (c *ChunkCache) path(hash string) string {
	return filepath.Join(c.dir, hash+".json")
}
