package reconcile

import (
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/models"
)

// Partition splits recs into those updated strictly after mark and the rest.
// A nil mark means nothing has been synchronized yet: everything changed.
func Partition(recs []models.Record, mark *time.Time) (changed, unchanged []models.Record) {
	changed = make([]models.Record, 0, len(recs))
	unchanged = make([]models.Record, 0)
	for _, r := range recs {
		if mark == nil || r.UpdatedAt.After(*mark) {
			changed = append(changed, r)
		} else {
			unchanged = append(unchanged, r)
		}
	}
	return changed, unchanged
}

// Delta returns the records updated strictly after mark.
func Delta(recs []models.Record, mark *time.Time) []models.Record {
	changed, _ := Partition(recs, mark)
	return changed
}
