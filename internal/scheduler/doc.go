// Package scheduler runs setup tasks one at a time in a precomputed order.
// It dispatches each task to the routine for the active engine, records a
// per-task outcome, and stops at the first failure. Nothing is retried or
// rolled back; a rerun after fixing the cause skips whatever already applied
// because every routine re-derives its state from the live schema.
package scheduler
