package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/filex"
)

// Sync runs a reconciliation cycle right away.
func (a *App) Sync(ctx context.Context) error {
	if !a.isLoggedIn(ctx) {
		return errNotSignedIn
	}
	if err := a.replica.Focus(ctx); err != nil {
		return err
	}
	printlnFn("Synced")
	return nil
}

// Export writes the raw snapshot, tombstones included, as JSON to a file.
func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	snap := a.replica.Export()
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if _, err := filex.EnsureParentDir(args[0]); err != nil {
		return err
	}
	if err := os.WriteFile(args[0], b, 0o600); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Exported %d tasks and %d habits to %s", len(snap.Tasks), len(snap.Habits), args[0]))
	return nil
}

// Import overwrites local data with a snapshot file written by Export.
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	ok, err := confirm(a.reader, "Replace all local tasks and habits?", a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.replica.Restore(ctx, snap); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Imported %d tasks and %d habits", len(snap.Tasks), len(snap.Habits)))
	return nil
}

// Backup uploads the snapshot to the server-side object store.
func (a *App) Backup(ctx context.Context) error {
	if !a.isLoggedIn(ctx) {
		return errNotSignedIn
	}
	n, err := a.backups.Upload(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Backed up %d records", n))
	return nil
}

// RestoreBackup replaces local data with the last uploaded backup.
func (a *App) RestoreBackup(ctx context.Context) error {
	if !a.isLoggedIn(ctx) {
		return errNotSignedIn
	}
	ok, err := confirm(a.reader, "Replace all local tasks and habits with the last backup?", a.out)
	if err != nil || !ok {
		return err
	}
	n, err := a.backups.RestoreLatest(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Restored %d records", n))
	return nil
}

// Clear wipes both collections locally. Remote copies are left alone.
func (a *App) Clear(ctx context.Context) error {
	ok, err := confirm(a.reader, "Delete all local tasks and habits?", a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.replica.ClearAll(ctx); err != nil {
		return err
	}
	printlnFn("Cleared")
	return nil
}
