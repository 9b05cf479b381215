package records

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/focussync/internal/dbx"
	"github.com/dmitrijs2005/focussync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec models.Record) (bool, error) {
	query := `
		INSERT INTO records (user_id, collection, id, created_at, updated_at, is_deleted, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, collection, id) DO UPDATE
		SET created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at,
		    is_deleted = EXCLUDED.is_deleted,
		    data = EXCLUDED.data
		WHERE records.updated_at <= EXCLUDED.updated_at
	`
	res, err := r.db.ExecContext(ctx, query,
		rec.UserID, rec.Collection, rec.ID, rec.CreatedAt, rec.UpdatedAt, rec.IsDeleted, []byte(rec.Data))
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) ListSince(ctx context.Context, userID, collection string, since *time.Time) ([]models.Record, error) {
	query := `
		SELECT user_id, collection, id, created_at, updated_at, is_deleted, data
		FROM records
		WHERE user_id = $1 AND collection = $2`
	args := []any{userID, collection}
	if since != nil {
		query += ` AND updated_at > $3`
		args = append(args, *since)
	}
	query += `
		ORDER BY updated_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.Record, 0)
	for rows.Next() {
		var rec models.Record
		var data []byte
		if err := rows.Scan(&rec.UserID, &rec.Collection, &rec.ID, &rec.CreatedAt, &rec.UpdatedAt, &rec.IsDeleted, &data); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rec.Data = data
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
