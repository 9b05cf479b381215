package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/focussync/internal/client/client"
	"github.com/dmitrijs2005/focussync/internal/client/reconcile"
	"github.com/dmitrijs2005/focussync/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotSignedIn = errors.New("not signed in, use 'login' first")

// getStatus renders the prompt decoration: user, connectivity and the
// sync indicator when it is not idle.
func (a *App) getStatus() string {
	a.mu.Lock()
	parts := make([]string, 0, 3)
	if a.userName != "" {
		parts = append(parts, a.userName)
	}
	if a.mode != "" {
		parts = append(parts, string(a.mode))
	}
	a.mu.Unlock()

	if a.replica != nil {
		if st := a.replica.Status(); st != "" && st != reconcile.StatusIdle {
			parts = append(parts, string(st))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Register prompts for an email and password and creates a new account.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Register(ctx, email, password); err != nil {
		return err
	}
	printlnFn("Success! You can now 'login'.")
	return nil
}

// Login authenticates against the server, then runs the first sync through
// the sign-in guard. A failed first sync does not undo the login; the data
// stays local and the next trigger retries.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.authService.Login(ctx, email, password); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return err
	}
	a.setUser(email)
	a.setMode(ModeOnline)
	printlnFn("Login successful")

	if err := a.replica.SignedIn(ctx); err != nil {
		a.log.Warn(ctx, "first sync after login failed", "error", err)
		printlnFn(fmt.Sprintf("First sync failed (%v); changes stay local for now", err))
		return nil
	}
	printlnFn("Synced")
	return nil
}

// Logout forgets the session. Local data is kept.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.setUser("")
	printlnFn("Logged out")
	return nil
}
