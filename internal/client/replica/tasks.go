package replica

import (
	"context"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/common"
)

// TaskItem is an active task as seen by the presentation layer.
type TaskItem struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	models.Task
}

// NewTask holds the user input for AddTask. An empty category means inbox.
type NewTask struct {
	Title       string
	Category    models.Category
	PlannedDate string
	Description string
	Duration    string
}

func (r *Replica) AddTask(ctx context.Context, in NewTask) (TaskItem, error) {
	title, err := cleanTitle(in.Title)
	if err != nil {
		return TaskItem{}, err
	}
	if in.Category == "" {
		in.Category = models.CategoryInbox
	}
	if !in.Category.Valid() {
		return TaskItem{}, ErrInvalidCategory
	}
	if err := checkDate(in.PlannedDate); err != nil {
		return TaskItem{}, err
	}

	data, err := models.Encode(models.Task{
		Title:       title,
		Description: in.Description,
		Category:    in.Category,
		PlannedDate: in.PlannedDate,
		Duration:    in.Duration,
	})
	if err != nil {
		return TaskItem{}, err
	}

	// New tasks go first.
	rec, err := r.store.UpsertAt(ctx, common.CollectionTasks, models.Record{ID: models.NewID(), Data: data}, 0)
	if err != nil {
		return TaskItem{}, err
	}
	return toTaskItem(rec)
}

// UpdateTask applies fn to the task payload.
func (r *Replica) UpdateTask(ctx context.Context, id string, fn func(*models.Task) error) (TaskItem, error) {
	rec, err := updatePayload(ctx, r.store, common.CollectionTasks, id, func(t *models.Task) error {
		if err := fn(t); err != nil {
			return err
		}
		if !t.Category.Valid() {
			return ErrInvalidCategory
		}
		var err error
		t.Title, err = cleanTitle(t.Title)
		return err
	})
	if err != nil {
		return TaskItem{}, err
	}
	return toTaskItem(rec)
}

// MoveTask puts a task into another category, keeping its position.
func (r *Replica) MoveTask(ctx context.Context, id string, to models.Category) (TaskItem, error) {
	return r.UpdateTask(ctx, id, func(t *models.Task) error {
		t.Category = to
		return nil
	})
}

// ReorderTask moves a task into category to at position index among the
// open tasks of that category. An index past the end places it after the
// last open task of the category.
func (r *Replica) ReorderTask(ctx context.Context, id string, to models.Category, index int) (TaskItem, error) {
	if !to.Valid() {
		return TaskItem{}, ErrInvalidCategory
	}

	rec, err := r.store.Reposition(ctx, common.CollectionTasks, id,
		func(rec *models.Record) error {
			return editPayload(rec, func(t *models.Task) error {
				t.Category = to
				return nil
			})
		},
		func(others []models.Record) int {
			return insertPosition(others, to, index)
		})
	if err != nil {
		return TaskItem{}, err
	}
	return toTaskItem(rec)
}

func insertPosition(others []models.Record, to models.Category, index int) int {
	var slots []int
	for i, rec := range others {
		if rec.Deleted {
			continue
		}
		t, err := models.Decode[models.Task](rec)
		if err != nil || t.Completed || t.Category != to {
			continue
		}
		slots = append(slots, i)
	}

	switch {
	case len(slots) == 0:
		return len(others)
	case index < 0:
		return slots[0]
	case index >= len(slots):
		return slots[len(slots)-1] + 1
	default:
		return slots[index]
	}
}

// CompleteTask toggles completion and records when it happened.
func (r *Replica) CompleteTask(ctx context.Context, id string) (TaskItem, error) {
	now := r.clock.Now()
	rec, err := updatePayload(ctx, r.store, common.CollectionTasks, id, func(t *models.Task) error {
		t.Completed = !t.Completed
		if t.Completed {
			t.CompletedAt = &now
		} else {
			t.CompletedAt = nil
		}
		return nil
	})
	if err != nil {
		return TaskItem{}, err
	}
	return toTaskItem(rec)
}

// DeleteTask tombstones a task.
func (r *Replica) DeleteTask(ctx context.Context, id string) error {
	return r.store.SoftDelete(ctx, common.CollectionTasks, id)
}

// Tasks returns all active tasks in display order.
func (r *Replica) Tasks() []TaskItem {
	return r.taskItems(func(models.Task) bool { return true })
}

// TasksByCategory returns the open tasks of one category.
func (r *Replica) TasksByCategory(c models.Category) []TaskItem {
	return r.taskItems(func(t models.Task) bool { return t.Category == c && !t.Completed })
}

func (r *Replica) taskItems(keep func(models.Task) bool) []TaskItem {
	recs := r.store.Active(common.CollectionTasks)
	out := make([]TaskItem, 0, len(recs))
	for _, rec := range recs {
		item, err := toTaskItem(rec)
		if err != nil {
			r.log.Warn(context.Background(), "unreadable task", "id", rec.ID, "error", err)
			continue
		}
		if keep(item.Task) {
			out = append(out, item)
		}
	}
	return out
}

func toTaskItem(rec models.Record) (TaskItem, error) {
	t, err := models.Decode[models.Task](rec)
	if err != nil {
		return TaskItem{}, err
	}
	return TaskItem{ID: rec.ID, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt, Task: t}, nil
}
