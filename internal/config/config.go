package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Engine   EngineConfig   `mapstructure:"engine"   validate:"required"`
	Events   EventsConfig   `mapstructure:"events"`
}

// ServerConfig contains the operational HTTP surface and logging settings.
type ServerConfig struct {
	// Addr is the listen address of the admin/ops server (healthz,
	// metrics, worker enablement).
	Addr string `mapstructure:"addr" validate:"required"`

	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// EngineConfig configures the worker pool and the claim cleanup sweep.
type EngineConfig struct {
	// WorkerCount is the fixed number of workers in the pool.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gte=1"`

	// QueuePollingDelay is the fixed delay between invocations of each
	// worker.
	QueuePollingDelay time.Duration `mapstructure:"queue_polling_delay" validate:"required,gt=0"`

	// CleanupInitialDelay is how long after startup the first stale-claim
	// sweep runs.
	CleanupInitialDelay time.Duration `mapstructure:"cleanup_initial_delay" validate:"gte=0"`

	// CleanupInterval is the delay between stale-claim sweeps.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"required,gt=0"`

	// ClaimAge is how long a claim may stand without finalization before
	// a sweep releases it back to the pending set.
	ClaimAge time.Duration `mapstructure:"claim_age" validate:"required,gt=0"`
}

// EventsConfig configures optional lifecycle event publishing.
type EventsConfig struct {
	// NATSURL enables the NATS event sink when non-empty.
	NATSURL string `mapstructure:"nats_url" validate:"omitempty,url"`
}
