package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all environment variables read by Load, e.g.
// TASKMILL_ENGINE_WORKER_COUNT.
const EnvPrefix = "TASKMILL"

// Load configuration from environment variables and optionally a config
// file. Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults for everything that has a sensible one; the database URL
	// deliberately has none.
	v.SetDefault("server.addr", ":8089")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("engine.worker_count", 2)
	v.SetDefault("engine.queue_polling_delay", "5s")
	v.SetDefault("engine.cleanup_initial_delay", "1m")
	v.SetDefault("engine.cleanup_interval", "5m")
	v.SetDefault("engine.claim_age", "30m")

	// Optional config file: taskmill.yaml in the working directory.
	v.SetConfigName("taskmill")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override file values: TASKMILL_SECTION_KEY.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not make viper aware of keys that exist only in
	// the environment, so bind every known key explicitly.
	for _, key := range []string{
		"server.addr",
		"server.log_level",
		"database.url",
		"engine.worker_count",
		"engine.queue_polling_delay",
		"engine.cleanup_initial_delay",
		"engine.cleanup_interval",
		"engine.claim_age",
		"events.nats_url",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
