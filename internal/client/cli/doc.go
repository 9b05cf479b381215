// Package cli provides the interactive focussync command-line client.
//
// The REPL works on the local replica at all times; signing in only adds
// synchronization with the server. A background watcher probes the server
// and runs a sync whenever connectivity comes back.
//
// Key features:
//   - Register / Login / Logout
//   - Tasks: add, list, complete, move, reorder, delete
//   - Habits: add, toggle, delete, list
//   - Sync on demand, export/import to a JSON file, backup/restore via the server
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
