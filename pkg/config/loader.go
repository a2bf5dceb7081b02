package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/fleetvalue")
	}

	// Environment variable settings
	v.SetEnvPrefix("FLEETVALUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "fleet-value-engine")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "fleetvalue")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")

	// Engine defaults
	v.SetDefault("engine.workers", 8)
	v.SetDefault("engine.bucket_size", "1h")
	v.SetDefault("engine.window_length", "24h")
	v.SetDefault("engine.source", "database")

	// Aligner defaults
	v.SetDefault("aligner.tolerance", "5s")

	// Classifier defaults
	v.SetDefault("classifier.min_episode_length", 3)
	v.SetDefault("classifier.max_gap", "2m")
	v.SetDefault("classifier.waste_factor", 0.4)

	// Reconciler defaults
	v.SetDefault("reconciler.min_overlap_fraction", 0.25)

	// Sweep defaults: 0.05 increments over [0, 1]
	v.SetDefault("sweep.grid_from", 0.0)
	v.SetDefault("sweep.grid_to", 1.0)
	v.SetDefault("sweep.grid_step", 0.05)

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.jwt_secret", "change-me-in-production")

	// WebSocket defaults
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
}
