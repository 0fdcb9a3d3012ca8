package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/sandevgo/membot/internal/core"
	"github.com/sandevgo/membot/internal/index"
)

type Index struct {
	db *sql.DB
}

func NewIndex(db *sql.DB) *Index {
	return &Index{db: db}
}

// Add appends all chunks in one transaction, so a message either lands
// fully or not at all.
func (x *Index) Add(ctx context.Context, chunks []core.IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (user_id, user_name, timestamp, message_id, text, embedding)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		blob, err := serializeVector(c.Vector)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			c.Meta.UserID, c.Meta.UserName, c.Meta.Timestamp, c.Meta.MessageID, c.Text, blob,
		); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	return tx.Commit()
}

// Search loads the user's chunks and ranks them by cosine similarity in
// process. The WHERE clause is the isolation boundary: chunks of other
// users never enter the candidate set.
func (x *Index) Search(ctx context.Context, vector []float32, k int, userID string) ([]core.ScoredChunk, error) {
	if k <= 0 {
		k = 4
	}

	rows, err := x.db.QueryContext(ctx,
		`SELECT user_id, user_name, timestamp, message_id, text, embedding
		 FROM chunks WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var hits []core.ScoredChunk
	for rows.Next() {
		var (
			hit  core.ScoredChunk
			blob []byte
		)
		if err := rows.Scan(&hit.Meta.UserID, &hit.Meta.UserName, &hit.Meta.Timestamp,
			&hit.Meta.MessageID, &hit.Text, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		vec, err := deserializeVector(blob)
		if err != nil {
			return nil, err
		}
		hit.Score = index.Cosine(vector, vec)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count reports the number of stored chunks. Used by the status endpoint.
func (x *Index) Count(ctx context.Context) (int64, error) {
	var n int64
	err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}
