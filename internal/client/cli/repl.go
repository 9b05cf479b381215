package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error

	AddTask(ctx context.Context, args []string) error
	ListTasks(ctx context.Context, args []string) error
	CompleteTask(ctx context.Context, args []string) error
	MoveTask(ctx context.Context, args []string) error
	ReorderTask(ctx context.Context, args []string) error
	DeleteTask(ctx context.Context, args []string) error

	Habit(ctx context.Context, args []string) error
	ListHabits(ctx context.Context) error

	Sync(ctx context.Context) error
	Export(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Backup(ctx context.Context) error
	RestoreBackup(ctx context.Context) error
	Clear(ctx context.Context) error
}

const helpLocal = `Tasks:   add [category] <title>, list [category], done <id>, move <id> <category>,
         reorder <id> <category> <index>, delete <id>
Habits:  habit add <title>, habit toggle <id> [YYYY-MM-DD], habit delete <id>, habits
Data:    export <file>, import <file>, clear
Other:   help, exit`

const helpSignedOut = "Account: register, login"
const helpSignedIn = "Account: sync, backup, restore, logout"

// runREPL reads commands line by line from reader and dispatches them to a.
// The prompt shows statusFn(). Command errors are printed and the loop goes
// on; it ends on EOF, "exit" or "quit", or when ctx is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("fs %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) > 0 {
			if !dispatch(ctx, a, parts[0], parts[1:]) {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// dispatch runs one command and reports whether the loop should continue.
func dispatch(ctx context.Context, a execIface, cmd string, args []string) bool {
	var err error

	switch cmd {
	case "help":
		printlnFn(helpLocal)
		if a.isLoggedIn(ctx) {
			printlnFn(helpSignedIn)
		} else {
			printlnFn(helpSignedOut)
		}

	case "register":
		err = a.Register(ctx)
	case "login":
		err = a.Login(ctx)
	case "logout":
		err = a.Logout(ctx)

	case "add":
		err = a.AddTask(ctx, args)
	case "l", "list":
		err = a.ListTasks(ctx, args)
	case "done":
		err = a.CompleteTask(ctx, args)
	case "move":
		err = a.MoveTask(ctx, args)
	case "reorder":
		err = a.ReorderTask(ctx, args)
	case "delete", "rm":
		err = a.DeleteTask(ctx, args)

	case "habit":
		err = a.Habit(ctx, args)
	case "habits":
		err = a.ListHabits(ctx)

	case "sync":
		err = a.Sync(ctx)
	case "export":
		err = a.Export(ctx, args)
	case "import":
		err = a.Import(ctx, args)
	case "backup":
		err = a.Backup(ctx)
	case "restore":
		err = a.RestoreBackup(ctx)
	case "clear":
		err = a.Clear(ctx)

	case "exit", "quit":
		printlnFn("Bye!")
		return false

	default:
		printlnFn("Unknown command:", cmd)
	}

	if err != nil {
		printlnFn("Error:", err)
	}
	return true
}
