package records

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/focussync/internal/dbx"
)

// Persister saves whole collections transactionally and remembers which
// collections have been written at least once.
type Persister struct {
	db *sql.DB
}

func NewPersister(db *sql.DB) *Persister {
	return &Persister{db: db}
}

// Load returns the stored collection and whether it was ever saved.
func (p *Persister) Load(ctx context.Context, collection string) ([]models.Record, bool, error) {
	var (
		recs        []models.Record
		initialized bool
	)
	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, ok, err := metadata.NewSQLiteRepository(tx).Get(ctx, metadata.CollectionKey(collection))
		if err != nil {
			return err
		}
		initialized = ok

		recs, err = NewSQLiteRepository(tx).LoadAll(ctx, collection)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", collection, err)
	}
	return recs, initialized, nil
}

// Save replaces every given collection in one transaction.
func (p *Persister) Save(ctx context.Context, collections map[string][]models.Record) error {
	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		recs := NewSQLiteRepository(tx)
		meta := metadata.NewSQLiteRepository(tx)
		for name, list := range collections {
			if err := recs.ReplaceAll(ctx, name, list); err != nil {
				return err
			}
			if err := meta.Set(ctx, metadata.CollectionKey(name), "1"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save collections: %w", err)
	}
	return nil
}
