package store

import (
	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/common"
)

// Get returns a copy of the record, tombstones included.
func (s *Store) Get(collection, id string) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.cols[collection]
	if i := indexOf(recs, id); i >= 0 {
		return recs[i].Clone(), true
	}
	return models.Record{}, false
}

// Active returns the records that are not tombstoned, in collection order.
func (s *Store) Active(collection string) []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, 0, len(s.cols[collection]))
	for _, r := range s.cols[collection] {
		if !r.Deleted {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Raw returns every record of the collection, tombstones included.
func (s *Store) Raw(collection string) []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneAll(s.cols[collection])
}

// Snapshot returns both raw collections taken under one read lock.
func (s *Store) Snapshot() models.Snapshot {
	snap, _ := s.VersionedSnapshot()
	return snap
}

// VersionedSnapshot is Snapshot plus the replace generation it was taken
// at, for a later Commit.
func (s *Store) VersionedSnapshot() (models.Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Snapshot{
		Tasks:  models.CloneAll(s.cols[common.CollectionTasks]),
		Habits: models.CloneAll(s.cols[common.CollectionHabits]),
	}, s.gen
}

// Generation returns the current replace generation.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}
