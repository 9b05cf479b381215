package store

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/focussync/internal/client/models"
)

// stamp sets createdAt once and moves updatedAt to now, never backwards and
// never before createdAt.
func (s *Store) stamp(r *models.Record, prev *models.Record) {
	now := s.clock.Now()
	if prev != nil {
		r.CreatedAt = prev.CreatedAt
		if now.Before(prev.UpdatedAt) {
			now = prev.UpdatedAt
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if now.Before(r.CreatedAt) {
		now = r.CreatedAt
	}
	r.UpdatedAt = now
}

// Upsert inserts rec or replaces the record with the same id, stamping it.
// An empty id gets a fresh one. New records are appended.
func (s *Store) Upsert(ctx context.Context, collection string, rec models.Record) (models.Record, error) {
	return s.UpsertAt(ctx, collection, rec, -1)
}

// UpsertAt is Upsert that inserts a new record at index at. A negative or
// out of range index appends. Existing records keep their position.
func (s *Store) UpsertAt(ctx context.Context, collection string, rec models.Record, at int) (models.Record, error) {
	if err := checkCollection(collection); err != nil {
		return models.Record{}, err
	}
	if rec.ID == "" {
		rec.ID = models.NewID()
	}
	rec = rec.Clone()

	s.mu.Lock()
	cur := s.cols[collection]
	next := slices.Clone(cur)
	if i := indexOf(cur, rec.ID); i >= 0 {
		s.stamp(&rec, &cur[i])
		next[i] = rec
	} else {
		s.stamp(&rec, nil)
		if at < 0 || at > len(next) {
			at = len(next)
		}
		next = slices.Insert(next, at, rec)
	}
	err := s.commitLocked(ctx, map[string][]models.Record{collection: next})
	s.mu.Unlock()
	if err != nil {
		return models.Record{}, err
	}

	s.notify(Change{Collections: []string{collection}, Origin: OriginLocal})
	return rec.Clone(), nil
}

// Update applies fn to a copy of the record and stores the stamped result.
// fn cannot change the id or createdAt.
func (s *Store) Update(ctx context.Context, collection, id string, fn func(*models.Record) error) (models.Record, error) {
	return s.Reposition(ctx, collection, id, fn, nil)
}

// Reposition is Update that may also move the record: place receives the
// collection without the record and returns the index to insert it at.
// A nil place keeps the current position.
func (s *Store) Reposition(ctx context.Context, collection, id string, fn func(*models.Record) error, place func(others []models.Record) int) (models.Record, error) {
	if err := checkCollection(collection); err != nil {
		return models.Record{}, err
	}

	s.mu.Lock()
	cur := s.cols[collection]
	i := indexOf(cur, id)
	if i < 0 {
		s.mu.Unlock()
		return models.Record{}, ErrNotFound
	}

	rec := cur[i].Clone()
	if fn != nil {
		if err := fn(&rec); err != nil {
			s.mu.Unlock()
			return models.Record{}, err
		}
	}
	rec.ID = id
	s.stamp(&rec, &cur[i])

	next := slices.Clone(cur)
	if place == nil {
		next[i] = rec
	} else {
		next = slices.Delete(next, i, i+1)
		at := place(models.CloneAll(next))
		at = max(0, min(at, len(next)))
		next = slices.Insert(next, at, rec)
	}

	err := s.commitLocked(ctx, map[string][]models.Record{collection: next})
	s.mu.Unlock()
	if err != nil {
		return models.Record{}, err
	}

	s.notify(Change{Collections: []string{collection}, Origin: OriginLocal})
	return rec.Clone(), nil
}

// SoftDelete tombstones a record. Deleting a tombstone again only re-stamps it.
func (s *Store) SoftDelete(ctx context.Context, collection, id string) error {
	_, err := s.Update(ctx, collection, id, func(r *models.Record) error {
		r.Deleted = true
		return nil
	})
	return err
}
