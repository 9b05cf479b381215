// Package reconcile keeps the local store and the remote store converging.
//
// A cycle pushes local records changed since the high-water mark, pulls
// remote rows changed since the same mark, merges them per record with
// last-write-wins on updatedAt and commits the result to the store in one
// write. The mark moves to the cycle's start instant only after the whole
// cycle succeeded.
//
// The Scheduler decides when cycles run: after a quiet period following
// local mutations, immediately on focus, and through the Guard on sign-in.
package reconcile
