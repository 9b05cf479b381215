package models

import (
	"slices"
	"time"
)

// DateLayout is the calendar-day format used for planned dates and habit
// completions.
const DateLayout = "2006-01-02"

type Habit struct {
	Title          string   `json:"title"`
	TranslationKey string   `json:"translationKey,omitempty"`
	Color          string   `json:"color"`
	Icon           string   `json:"icon"`
	CompletedDates []string `json:"completedDates"`
	Streak         int      `json:"streak"`
	Frequency      string   `json:"frequency"`
}

// Toggle flips the completion of day and recomputes the streak as of today.
func (h *Habit) Toggle(day string, today time.Time) {
	if i := slices.Index(h.CompletedDates, day); i >= 0 {
		h.CompletedDates = slices.Delete(slices.Clone(h.CompletedDates), i, i+1)
	} else {
		h.CompletedDates = append(slices.Clone(h.CompletedDates), day)
		slices.Sort(h.CompletedDates)
	}
	h.Streak = Streak(h.CompletedDates, today)
}

// Streak counts consecutive completed days ending today. A missing today
// does not break the streak; counting then starts from yesterday.
func Streak(dates []string, today time.Time) int {
	done := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		done[d] = struct{}{}
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	streak := 0
	if _, ok := done[day.Format(DateLayout)]; ok {
		streak = 1
	}
	for {
		day = day.AddDate(0, 0, -1)
		if _, ok := done[day.Format(DateLayout)]; !ok {
			break
		}
		streak++
	}
	return streak
}
