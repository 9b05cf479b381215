package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/focussync/internal/timex"
)

// MarkStore persists the high-water mark. Load returns nil when no cycle
// has completed yet.
type MarkStore interface {
	Load(ctx context.Context) (*time.Time, error)
	Store(ctx context.Context, mark time.Time) error
}

// MetadataMark keeps the mark in the metadata table.
type MetadataMark struct {
	repo metadata.Repository
}

func NewMetadataMark(repo metadata.Repository) *MetadataMark {
	return &MetadataMark{repo: repo}
}

func (m *MetadataMark) Load(ctx context.Context) (*time.Time, error) {
	v, ok, err := m.repo.Get(ctx, metadata.KeyLastSyncTime)
	if err != nil || !ok {
		return nil, err
	}
	t, err := timex.ParseInstant(v)
	if err != nil {
		return nil, fmt.Errorf("stored %s: %w", metadata.KeyLastSyncTime, err)
	}
	return &t, nil
}

func (m *MetadataMark) Store(ctx context.Context, mark time.Time) error {
	return m.repo.Set(ctx, metadata.KeyLastSyncTime, timex.FormatInstant(mark))
}
