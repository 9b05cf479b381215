package replica

import (
	"context"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/common"
)

type HabitItem struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	models.Habit
}

const defaultHabitIcon = "Check"

func (r *Replica) AddHabit(ctx context.Context, title, color, frequency string) (HabitItem, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return HabitItem{}, err
	}
	if frequency == "" {
		frequency = "1d"
	}

	data, err := models.Encode(models.Habit{
		Title:          title,
		Color:          color,
		Icon:           defaultHabitIcon,
		CompletedDates: []string{},
		Frequency:      frequency,
	})
	if err != nil {
		return HabitItem{}, err
	}

	rec, err := r.store.Upsert(ctx, common.CollectionHabits, models.Record{ID: models.NewID(), Data: data})
	if err != nil {
		return HabitItem{}, err
	}
	return toHabitItem(rec)
}

// ToggleHabit marks or unmarks day (YYYY-MM-DD, empty for today) and
// recomputes the streak.
func (r *Replica) ToggleHabit(ctx context.Context, id, day string) (HabitItem, error) {
	today := r.today()
	if day == "" {
		day = today.Format(models.DateLayout)
	}
	if err := checkDate(day); err != nil {
		return HabitItem{}, err
	}

	rec, err := updatePayload(ctx, r.store, common.CollectionHabits, id, func(h *models.Habit) error {
		h.Toggle(day, today)
		return nil
	})
	if err != nil {
		return HabitItem{}, err
	}
	return toHabitItem(rec)
}

// DeleteHabit tombstones a habit.
func (r *Replica) DeleteHabit(ctx context.Context, id string) error {
	return r.store.SoftDelete(ctx, common.CollectionHabits, id)
}

// Habits returns all active habits.
func (r *Replica) Habits() []HabitItem {
	recs := r.store.Active(common.CollectionHabits)
	out := make([]HabitItem, 0, len(recs))
	for _, rec := range recs {
		item, err := toHabitItem(rec)
		if err != nil {
			r.log.Warn(context.Background(), "unreadable habit", "id", rec.ID, "error", err)
			continue
		}
		out = append(out, item)
	}
	return out
}

func toHabitItem(rec models.Record) (HabitItem, error) {
	h, err := models.Decode[models.Habit](rec)
	if err != nil {
		return HabitItem{}, err
	}
	return HabitItem{ID: rec.ID, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt, Habit: h}, nil
}
