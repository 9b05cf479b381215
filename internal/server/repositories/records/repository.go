// Package records persists the synced rows of every user's collections.
package records

import (
	"context"
	"time"

	"github.com/dmitrijs2005/focussync/internal/server/models"
)

type Repository interface {
	// Upsert writes rec keyed by (user, collection, id). A stored row with a
	// newer updated_at is left in place; the call reports whether rec was
	// written.
	Upsert(ctx context.Context, rec models.Record) (bool, error)

	// ListSince returns the user's rows of collection with updated_at
	// strictly after since, or all of them when since is nil, oldest first.
	ListSince(ctx context.Context, userID, collection string, since *time.Time) ([]models.Record, error)
}
