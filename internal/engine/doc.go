// Package engine implements the background task execution engine: a fixed
// pool of workers that claim pending tasks from a durable queue, dispatch
// them to registered processors, and record the outcome before the task
// leaves the pending set. The queue, processor registry, and enablement
// controller are injected capabilities so hosts and tests can substitute
// their own implementations.
package engine
