package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStreak(t *testing.T) {
	today := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		dates []string
		want  int
	}{
		{"empty", nil, 0},
		{"today only", []string{"2025-03-10"}, 1},
		{"today and two before", []string{"2025-03-08", "2025-03-09", "2025-03-10"}, 3},
		{"yesterday run without today", []string{"2025-03-08", "2025-03-09"}, 2},
		{"gap breaks run", []string{"2025-03-07", "2025-03-09", "2025-03-10"}, 2},
		{"across month boundary", []string{"2025-02-28", "2025-03-01"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Streak(tt.dates, today))
		})
	}
}

func TestHabitToggle(t *testing.T) {
	today := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	h := Habit{CompletedDates: []string{"2025-02-28"}}

	h.Toggle("2025-03-01", today)
	assert.Equal(t, []string{"2025-02-28", "2025-03-01"}, h.CompletedDates)
	assert.Equal(t, 2, h.Streak)

	h.Toggle("2025-02-28", today)
	assert.Equal(t, []string{"2025-03-01"}, h.CompletedDates)
	assert.Equal(t, 1, h.Streak)
}
