// Package orchestrator evaluates compliance gates concurrently and
// aggregates their results.
//
// Evaluation runs every relevant gate for the requested modules under a
// bounded worker pool with a per-gate timeout. Gates are isolated from one
// another: a gate that fails, panics, or times out is recorded as an ERROR
// result and the batch continues. The aggregated result is keyed by gate
// id, so its content is deterministic regardless of goroutine scheduling.
package orchestrator
