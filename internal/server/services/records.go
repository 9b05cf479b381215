package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/focussync/internal/common"
	"github.com/dmitrijs2005/focussync/internal/dbx"
	"github.com/dmitrijs2005/focussync/internal/server/models"
	"github.com/dmitrijs2005/focussync/internal/server/repositories/repomanager"
)

// PushResult counts how a push was applied. Skipped rows lost to a stored
// row with a newer updated_at.
type PushResult struct {
	Written int
	Skipped int
}

// RecordService is the authoritative store behind the sync API.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager) *RecordService {
	return &RecordService{db: db, repomanager: m}
}

// Push upserts rows into the user's collection in one transaction. Every row
// is bound to userID whatever user_id it carried. One malformed row rejects
// the whole batch with common.ErrorValidation.
func (s *RecordService) Push(ctx context.Context, userID, collection string, rows []map[string]any) (PushResult, error) {
	if !common.IsKnownCollection(collection) {
		return PushResult{}, common.ErrUnknownCollection
	}

	recs := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := models.RecordFromRow(userID, collection, row)
		if err != nil {
			return PushResult{}, fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		recs = append(recs, rec)
	}

	var res PushResult
	if len(recs) == 0 {
		return res, nil
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx)
		for _, rec := range recs {
			written, err := repo.Upsert(ctx, rec)
			if err != nil {
				return err
			}
			if written {
				res.Written++
			} else {
				res.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return PushResult{}, fmt.Errorf("error storing records: %w", err)
	}
	return res, nil
}

// Pull returns the stored rows of the user's collection updated strictly
// after since, or all of them when since is nil.
func (s *RecordService) Pull(ctx context.Context, userID, collection string, since *time.Time) ([]json.RawMessage, error) {
	if !common.IsKnownCollection(collection) {
		return nil, common.ErrUnknownCollection
	}

	recs, err := s.repomanager.Records(s.db).ListSince(ctx, userID, collection, since)
	if err != nil {
		return nil, fmt.Errorf("error loading records: %w", err)
	}

	out := make([]json.RawMessage, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Data)
	}
	return out, nil
}
