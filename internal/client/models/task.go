package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category is the bucket a task lives in: the inbox or one of the four
// quadrants of the urgency/importance matrix.
type Category string

const (
	CategoryInbox Category = "inbox"
	CategoryQ1    Category = "q1"
	CategoryQ2    Category = "q2"
	CategoryQ3    Category = "q3"
	CategoryQ4    Category = "q4"
)

var Categories = []Category{CategoryInbox, CategoryQ1, CategoryQ2, CategoryQ3, CategoryQ4}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

type Task struct {
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Category       Category   `json:"category"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	PlannedDate    string     `json:"plannedDate,omitempty"`
	Duration       string     `json:"duration,omitempty"`
	AutoSorted     bool       `json:"autoSorted,omitempty"`
	TranslationKey string     `json:"translationKey,omitempty"`
}

// UnmarshalJSON accepts completedAt as an RFC3339 string or as epoch
// milliseconds, like the record envelope.
func (t *Task) UnmarshalJSON(b []byte) error {
	type plain Task
	var aux struct {
		plain
		CompletedAt json.RawMessage `json:"completedAt"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*t = Task(aux.plain)
	t.CompletedAt = nil
	if len(aux.CompletedAt) == 0 || isNull(aux.CompletedAt) {
		return nil
	}
	at, err := decodeInstant(aux.CompletedAt)
	if err != nil {
		return fmt.Errorf("completedAt: %w", err)
	}
	t.CompletedAt = &at
	return nil
}
