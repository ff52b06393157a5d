package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ragtimehq/ragtime/internal/model"
)

// EmbeddingCacheRepo persists computed embeddings keyed by model name and
// content hash. Vectors are stored JSON-encoded; the table is small enough
// locally that the extra decode cost does not matter.
type EmbeddingCacheRepo struct {
	db *sqlx.DB
}

func NewEmbeddingCacheRepo(db *sqlx.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

func (r *EmbeddingCacheRepo) Get(ctx context.Context, modelName, contentHash string) ([]float32, bool, error) {
	const query = `
		SELECT embedding
		FROM embedding_cache
		WHERE model_name = ? AND content_hash = ?
	`
	var encoded string
	if err := r.db.GetContext(ctx, &encoded, query, modelName, contentHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var embedding []float32
	if err := json.Unmarshal([]byte(encoded), &embedding); err != nil {
		// Unreadable row, treat as a miss and let the caller recompute.
		return nil, false, nil
	}
	return embedding, true, nil
}

func (r *EmbeddingCacheRepo) Save(ctx context.Context, item *model.EmbeddingCache) error {
	encoded, err := json.Marshal(item.Embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	const query = `
		INSERT INTO embedding_cache (model_name, content_hash, embedding, ctime)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (model_name, content_hash) DO UPDATE SET
			embedding = excluded.embedding,
			ctime = excluded.ctime
	`
	_, err = r.db.ExecContext(ctx, query, item.ModelName, item.ContentHash, string(encoded), item.Ctime)
	return err
}

func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	const query = `DELETE FROM embedding_cache WHERE ctime < ?`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
