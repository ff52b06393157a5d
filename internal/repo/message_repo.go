package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ragtimehq/ragtime/internal/model"
)

// MessageRepo is the append-only conversation store. The orchestration core
// depends on it only for durability across sessions, not for correctness of
// a single session.
type MessageRepo struct {
	db *sqlx.DB
}

func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Append(ctx context.Context, role, content string) (int64, error) {
	const query = `INSERT INTO messages (role, content, ctime) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, role, content, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Recent returns up to limit turns, oldest first.
func (r *MessageRepo) Recent(ctx context.Context, limit int) ([]model.Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, role, content, ctime FROM messages ORDER BY id DESC LIMIT ?`
	var turns []model.Turn
	if err := r.db.SelectContext(ctx, &turns, query, limit); err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}
