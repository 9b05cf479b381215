package cli

import (
	"context"
	"strings"
)

// Habit handles the "habit add|toggle|delete" subcommands.
func (a *App) Habit(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "add":
		h, err := a.replica.AddHabit(ctx, strings.Join(rest, " "), "", "")
		if err != nil {
			return err
		}
		printlnFn("Added", formatHabit(h))

	case "toggle":
		if len(rest) > 2 {
			return errUsage
		}
		id, err := a.habitID(rest[0])
		if err != nil {
			return err
		}
		day := ""
		if len(rest) == 2 {
			day = rest[1]
		}
		h, err := a.replica.ToggleHabit(ctx, id, day)
		if err != nil {
			return err
		}
		printlnFn(formatHabit(h))

	case "delete", "rm":
		if len(rest) != 1 {
			return errUsage
		}
		id, err := a.habitID(rest[0])
		if err != nil {
			return err
		}
		if err := a.replica.DeleteHabit(ctx, id); err != nil {
			return err
		}
		printlnFn("Deleted", shortID(id))

	default:
		return errUsage
	}
	return nil
}

// ListHabits handles "habits".
func (a *App) ListHabits(ctx context.Context) error {
	items := a.replica.Habits()
	if len(items) == 0 {
		printlnFn("No habits")
		return nil
	}
	for _, h := range items {
		printlnFn(formatHabit(h))
	}
	return nil
}

func (a *App) habitID(typed string) (string, error) {
	items := a.replica.Habits()
	ids := make([]string, 0, len(items))
	for _, h := range items {
		ids = append(ids, h.ID)
	}
	return resolveID(typed, ids)
}
