// Package api exposes the engine's operational HTTP surface: health checks,
// Prometheus metrics, and per-worker enablement toggles. It is not the job
// submission API, which lives outside this service.
package api
