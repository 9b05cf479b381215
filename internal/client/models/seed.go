package models

import "time"

// SeedTask and SeedHabit describe factory demo data shown before the user
// has done anything.
type SeedTask struct {
	ID   string
	Task Task
}

type SeedHabit struct {
	ID    string
	Habit Habit
}

type Seed struct {
	Tasks  []SeedTask
	Habits []SeedHabit
}

// DefaultSeed is the demo set a fresh replica starts with.
func DefaultSeed(today time.Time) Seed {
	return Seed{
		Tasks: []SeedTask{
			{ID: "1", Task: Task{Title: "Drag me to another quadrant", TranslationKey: "initial.task.drag", Category: CategoryQ3, PlannedDate: today.Format(DateLayout), Duration: "1m"}},
			{ID: "2", Task: Task{Title: "Swipe to complete", TranslationKey: "initial.task.swipe", Category: CategoryInbox}},
			{ID: "3", Task: Task{Title: "Try hardcore mode", TranslationKey: "initial.task.hardcore", Category: CategoryQ4}},
			{ID: "4", Task: Task{Title: "Workout", TranslationKey: "initial.task.workout", Category: CategoryQ2, Duration: "45m"}},
			{ID: "5", Task: Task{Title: "Read a book", TranslationKey: "initial.task.read", Category: CategoryQ2, Duration: "15m"}},
		},
		Habits: []SeedHabit{
			{ID: "h1", Habit: Habit{Title: "Drink water", TranslationKey: "initial.habit.water", Color: "bg-indigo-500", Icon: "Droplet", CompletedDates: []string{}, Frequency: "1d"}},
			{ID: "h2", Habit: Habit{Title: "Read", TranslationKey: "initial.habit.read", Color: "bg-blue-400", Icon: "Book", CompletedDates: []string{}, Frequency: "1d"}},
		},
	}
}

// Snapshot materializes the seed as records stamped at now.
func (s Seed) Snapshot(now time.Time) (Snapshot, error) {
	out := Snapshot{Tasks: make([]Record, 0, len(s.Tasks)), Habits: make([]Record, 0, len(s.Habits))}
	for _, t := range s.Tasks {
		data, err := Encode(t.Task)
		if err != nil {
			return Snapshot{}, err
		}
		out.Tasks = append(out.Tasks, Record{ID: t.ID, CreatedAt: now, UpdatedAt: now, Data: data})
	}
	for _, h := range s.Habits {
		data, err := Encode(h.Habit)
		if err != nil {
			return Snapshot{}, err
		}
		out.Habits = append(out.Habits, Record{ID: h.ID, CreatedAt: now, UpdatedAt: now, Data: data})
	}
	return out, nil
}
