package records

import (
	"context"

	"github.com/dmitrijs2005/focussync/internal/client/models"
)

// Repository stores ordered collections of records.
type Repository interface {
	// LoadAll returns the collection in stored order, tombstones included.
	LoadAll(ctx context.Context, collection string) ([]models.Record, error)

	// ReplaceAll overwrites the collection with recs, keeping their order.
	ReplaceAll(ctx context.Context, collection string, recs []models.Record) error
}
