package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/focussync/internal/client/replica"
)

const shortIDLen = 8

var (
	errNoID        = errors.New("no record matches that id")
	errAmbiguousID = errors.New("id prefix matches more than one record")
)

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// resolveID maps what the user typed to a full id: an exact match wins,
// otherwise the prefix has to be unique.
func resolveID(typed string, ids []string) (string, error) {
	var found string
	for _, id := range ids {
		if id == typed {
			return id, nil
		}
		if strings.HasPrefix(id, typed) {
			if found != "" {
				return "", fmt.Errorf("%w: %q", errAmbiguousID, typed)
			}
			found = id
		}
	}
	if found == "" {
		return "", fmt.Errorf("%w: %q", errNoID, typed)
	}
	return found, nil
}

func formatTask(t replica.TaskItem) string {
	mark := "[ ]"
	if t.Completed {
		mark = "[x]"
	}
	line := fmt.Sprintf("%s %-8s %-5s %s", mark, shortID(t.ID), t.Category, t.Title)
	if t.PlannedDate != "" {
		line += " @" + t.PlannedDate
	}
	if t.Duration != "" {
		line += " (" + t.Duration + ")"
	}
	return line
}

func formatHabit(h replica.HabitItem) string {
	return fmt.Sprintf("%-8s %s  streak %d  every %s", shortID(h.ID), h.Title, h.Streak, h.Frequency)
}
