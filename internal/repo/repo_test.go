package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ragtimehq/ragtime/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMessageRepoAppendAndRecent(t *testing.T) {
	repo := NewMessageRepo(newTestDB(t))
	ctx := context.Background()

	id1, err := repo.Append(ctx, model.RoleUser, "first")
	require.NoError(t, err)
	id2, err := repo.Append(ctx, model.RoleAssistant, "second")
	require.NoError(t, err)
	require.Greater(t, id2, id1)

	turns, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	require.Equal(t, "first", turns[0].Content)
	require.Equal(t, model.RoleUser, turns[0].Role)
	require.Equal(t, "second", turns[1].Content)
}

func TestMessageRepoRecentKeepsNewestWithinLimit(t *testing.T) {
	repo := NewMessageRepo(newTestDB(t))
	ctx := context.Background()

	for _, content := range []string{"a", "b", "c", "d"} {
		_, err := repo.Append(ctx, model.RoleUser, content)
		require.NoError(t, err)
	}

	turns, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	// The newest two, still oldest first.
	require.Equal(t, "c", turns[0].Content)
	require.Equal(t, "d", turns[1].Content)
}

func TestEmbeddingCacheRepoRoundtrip(t *testing.T) {
	repo := NewEmbeddingCacheRepo(newTestDB(t))
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "nomic-embed-text", "hash1")
	require.NoError(t, err)
	require.False(t, ok)

	item := &model.EmbeddingCache{
		ModelName:   "nomic-embed-text",
		ContentHash: "hash1",
		Embedding:   []float32{0.1, 0.2, 0.3},
		Ctime:       time.Now().Unix(),
	}
	require.NoError(t, repo.Save(ctx, item))

	got, ok, err := repo.Get(ctx, "nomic-embed-text", "hash1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, item.Embedding, got)

	// Same hash under another model is a distinct entry.
	_, ok, err = repo.Get(ctx, "mxbai-embed-large", "hash1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEmbeddingCacheRepoSaveOverwrites(t *testing.T) {
	repo := NewEmbeddingCacheRepo(newTestDB(t))
	ctx := context.Background()

	first := &model.EmbeddingCache{ModelName: "m", ContentHash: "h", Embedding: []float32{1}, Ctime: 1}
	require.NoError(t, repo.Save(ctx, first))
	second := &model.EmbeddingCache{ModelName: "m", ContentHash: "h", Embedding: []float32{2}, Ctime: 2}
	require.NoError(t, repo.Save(ctx, second))

	got, ok, err := repo.Get(ctx, "m", "h")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{2}, got)
}

func TestEmbeddingCacheRepoDeleteBefore(t *testing.T) {
	repo := NewEmbeddingCacheRepo(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &model.EmbeddingCache{ModelName: "m", ContentHash: "old", Embedding: []float32{1}, Ctime: 100}))
	require.NoError(t, repo.Save(ctx, &model.EmbeddingCache{ModelName: "m", ContentHash: "new", Embedding: []float32{2}, Ctime: 200}))

	deleted, err := repo.DeleteBefore(ctx, 150)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	_, ok, err := repo.Get(ctx, "m", "old")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = repo.Get(ctx, "m", "new")
	require.NoError(t, err)
	require.True(t, ok)
}
