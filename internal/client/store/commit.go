package store

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/common"
)

// Commit folds a reconciled snapshot into the current collections without
// re-stamping: a merged record replaces the current one only when it is
// strictly newer, and unknown ids are appended. Records changed locally while
// the snapshot was being built therefore survive. Both collections are
// persisted in one write. Nothing is written when no record changes unless
// force is set. It returns the number of records applied.
//
// gen is the generation the merge was computed against. If Replace,
// ReplaceIf or Restore ran since then, the merge would resurrect records
// they removed, so Commit writes nothing and returns ErrSuperseded.
func (s *Store) Commit(ctx context.Context, merged models.Snapshot, gen uint64, force bool) (int, error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return 0, ErrSuperseded
	}

	applied := 0
	next := make(map[string][]models.Record, len(Collections))
	for _, c := range Collections {
		list := slices.Clone(s.cols[c])
		for _, m := range seedFor(merged, c) {
			i := indexOf(list, m.ID)
			switch {
			case i < 0:
				list = append(list, m.Clone())
				applied++
			case m.UpdatedAt.After(list[i].UpdatedAt):
				list[i] = m.Clone()
				applied++
			}
		}
		next[c] = list
	}

	if applied == 0 && !force {
		s.mu.Unlock()
		return 0, nil
	}

	err := s.commitLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	s.notify(Change{Collections: changed(next), Origin: OriginSync})
	return applied, nil
}

// Replace overwrites both collections with snap as given, without stamping.
func (s *Store) Replace(ctx context.Context, snap models.Snapshot, origin Origin) error {
	next := map[string][]models.Record{
		common.CollectionTasks:  models.CloneAll(snap.Tasks),
		common.CollectionHabits: models.CloneAll(snap.Habits),
	}

	s.mu.Lock()
	err := s.replaceLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(Change{Collections: changed(next), Origin: origin})
	return nil
}

// Restore overwrites both collections with snap as a local mutation. Every
// record is re-stamped so that the restored state wins the next
// reconciliation against older remote copies.
func (s *Store) Restore(ctx context.Context, snap models.Snapshot) error {
	s.mu.Lock()

	next := make(map[string][]models.Record, len(Collections))
	for _, c := range Collections {
		cur := s.cols[c]
		list := models.CloneAll(seedFor(snap, c))
		for i := range list {
			var prev *models.Record
			if j := indexOf(cur, list[i].ID); j >= 0 {
				p := cur[j]
				p.CreatedAt = list[i].CreatedAt
				prev = &p
			}
			s.stamp(&list[i], prev)
		}
		next[c] = list
	}

	err := s.replaceLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(Change{Collections: changed(next), Origin: OriginLocal})
	return nil
}

// ReplaceIf atomically replaces both collections with snap when match
// accepts the current raw snapshot. It reports whether the replace happened.
func (s *Store) ReplaceIf(ctx context.Context, match func(models.Snapshot) bool, snap models.Snapshot, origin Origin) (bool, error) {
	s.mu.Lock()
	cur := models.Snapshot{
		Tasks:  models.CloneAll(s.cols[common.CollectionTasks]),
		Habits: models.CloneAll(s.cols[common.CollectionHabits]),
	}
	if !match(cur) {
		s.mu.Unlock()
		return false, nil
	}

	next := map[string][]models.Record{
		common.CollectionTasks:  models.CloneAll(snap.Tasks),
		common.CollectionHabits: models.CloneAll(snap.Habits),
	}
	err := s.replaceLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	s.notify(Change{Collections: changed(next), Origin: origin})
	return true, nil
}

// replaceLocked is commitLocked for whole-collection replaces: it also moves
// the generation so that merges computed before it are rejected.
func (s *Store) replaceLocked(ctx context.Context, next map[string][]models.Record) error {
	if err := s.commitLocked(ctx, next); err != nil {
		return err
	}
	s.gen++
	return nil
}
