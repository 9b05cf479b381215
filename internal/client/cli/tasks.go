package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/client/replica"
)

var errUsage = errors.New("wrong arguments, see 'help'")

// AddTask handles "add [category] <title...>".
func (a *App) AddTask(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	in := replica.NewTask{}
	if c := models.Category(args[0]); c.Valid() && len(args) > 1 {
		in.Category = c
		args = args[1:]
	}
	in.Title = strings.Join(args, " ")

	t, err := a.replica.AddTask(ctx, in)
	if err != nil {
		return err
	}
	printlnFn("Added", formatTask(t))
	return nil
}

// ListTasks handles "list" (every active task) and "list <category>" (open
// tasks of one category in display order).
func (a *App) ListTasks(ctx context.Context, args []string) error {
	var items []replica.TaskItem
	switch len(args) {
	case 0:
		items = a.replica.Tasks()
	case 1:
		c := models.Category(args[0])
		if !c.Valid() {
			return fmt.Errorf("%w: %q", replica.ErrInvalidCategory, args[0])
		}
		items = a.replica.TasksByCategory(c)
	default:
		return errUsage
	}

	if len(items) == 0 {
		printlnFn("No tasks")
		return nil
	}
	for _, t := range items {
		printlnFn(formatTask(t))
	}
	return nil
}

func (a *App) taskID(typed string) (string, error) {
	items := a.replica.Tasks()
	ids := make([]string, 0, len(items))
	for _, t := range items {
		ids = append(ids, t.ID)
	}
	return resolveID(typed, ids)
}

// CompleteTask handles "done <id>"; running it again reopens the task.
func (a *App) CompleteTask(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := a.taskID(args[0])
	if err != nil {
		return err
	}
	t, err := a.replica.CompleteTask(ctx, id)
	if err != nil {
		return err
	}
	printlnFn(formatTask(t))
	return nil
}

// MoveTask handles "move <id> <category>".
func (a *App) MoveTask(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	id, err := a.taskID(args[0])
	if err != nil {
		return err
	}
	t, err := a.replica.MoveTask(ctx, id, models.Category(args[1]))
	if err != nil {
		return err
	}
	printlnFn(formatTask(t))
	return nil
}

// ReorderTask handles "reorder <id> <category> <index>".
func (a *App) ReorderTask(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	id, err := a.taskID(args[0])
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	t, err := a.replica.ReorderTask(ctx, id, models.Category(args[1]), index)
	if err != nil {
		return err
	}
	printlnFn(formatTask(t))
	return nil
}

// DeleteTask handles "delete <id>".
func (a *App) DeleteTask(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := a.taskID(args[0])
	if err != nil {
		return err
	}
	if err := a.replica.DeleteTask(ctx, id); err != nil {
		return err
	}
	printlnFn("Deleted", shortID(id))
	return nil
}
