// Package events carries the fire-and-forget task lifecycle events emitted
// by workers: exactly one started and one finished event per claimed task.
// Sinks must never block task processing and must not surface errors into
// the worker path.
package events
