package records

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/dbx"
	"github.com/dmitrijs2005/focussync/internal/timex"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) LoadAll(ctx context.Context, collection string) ([]models.Record, error) {
	query := `select id, created_at, updated_at, is_deleted, data from records
		where collection = ? order by position`
	rows, err := r.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	result := make([]models.Record, 0)
	for rows.Next() {
		var (
			rec                  models.Record
			createdAt, updatedAt string
			data                 string
		)
		if err := rows.Scan(&rec.ID, &createdAt, &updatedAt, &rec.Deleted, &data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if rec.CreatedAt, err = parseOptional(createdAt); err != nil {
			return nil, fmt.Errorf("record %s created_at: %w", rec.ID, err)
		}
		if rec.UpdatedAt, err = parseOptional(updatedAt); err != nil {
			return nil, fmt.Errorf("record %s updated_at: %w", rec.ID, err)
		}
		rec.Data = []byte(data)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, collection string, recs []models.Record) error {
	if _, err := r.db.ExecContext(ctx, `delete from records where collection = ?`, collection); err != nil {
		return fmt.Errorf("failed to clear collection %s: %w", collection, err)
	}

	query := `insert into records (collection, id, position, created_at, updated_at, is_deleted, data)
		values (?, ?, ?, ?, ?, ?, ?)`
	for i, rec := range recs {
		data := string(rec.Data)
		if data == "" {
			data = "{}"
		}
		_, err := r.db.ExecContext(ctx, query, collection, rec.ID, i,
			formatOptional(rec.CreatedAt), formatOptional(rec.UpdatedAt), rec.Deleted, data)
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}
	return nil
}

func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return timex.FormatInstant(t)
}

func parseOptional(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return timex.ParseInstant(s)
}
