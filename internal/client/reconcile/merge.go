package reconcile

import (
	"slices"

	"github.com/dmitrijs2005/focussync/internal/client/models"
)

// Merge folds remote records into local by id and returns the merged
// collection with the number of inserts and replacements. A remote record
// replaces the local one only when its updatedAt is strictly later; ties
// keep the local value, so merging the same input twice is a no-op. Unknown
// ids are appended in remote order. local is not modified.
func Merge(local, remote []models.Record) ([]models.Record, int) {
	out := slices.Clone(local)
	index := make(map[string]int, len(out))
	for i, r := range out {
		index[r.ID] = i
	}

	n := 0
	for _, rt := range remote {
		i, ok := index[rt.ID]
		if !ok {
			index[rt.ID] = len(out)
			out = append(out, rt)
			n++
			continue
		}
		if rt.UpdatedAt.After(out[i].UpdatedAt) {
			out[i] = rt
			n++
		}
	}
	return out, n
}
