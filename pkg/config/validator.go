package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, errors.New("database.port must be between 1 and 65535"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}

	// Engine validation
	if c.Engine.Workers <= 0 {
		errs = append(errs, errors.New("engine.workers must be positive"))
	}
	if c.Engine.BucketSize <= 0 {
		errs = append(errs, errors.New("engine.bucket_size must be positive"))
	}
	if c.Engine.WindowLength <= 0 {
		errs = append(errs, errors.New("engine.window_length must be positive"))
	}
	if c.Engine.Source != "database" && c.Engine.Source != "simulator" {
		errs = append(errs, errors.New("engine.source must be one of: database, simulator"))
	}

	// Aligner validation
	if c.Aligner.Tolerance <= 0 {
		errs = append(errs, errors.New("aligner.tolerance must be positive"))
	}

	// Classifier validation
	if c.Classifier.MinEpisodeLength < 1 {
		errs = append(errs, errors.New("classifier.min_episode_length must be at least 1"))
	}
	if c.Classifier.MaxGap <= 0 {
		errs = append(errs, errors.New("classifier.max_gap must be positive"))
	}
	if c.Classifier.WasteFactor < 0 || c.Classifier.WasteFactor > 1 {
		errs = append(errs, errors.New("classifier.waste_factor must be between 0 and 1"))
	}

	// Reconciler validation
	if c.Reconciler.MinOverlapFraction < 0 || c.Reconciler.MinOverlapFraction >= 1 {
		errs = append(errs, errors.New("reconciler.min_overlap_fraction must be in [0, 1)"))
	}

	// Sweep validation: an explicit grid overrides from/to/step
	if len(c.Sweep.Grid) == 0 {
		if c.Sweep.GridStep <= 0 {
			errs = append(errs, errors.New("sweep.grid_step must be positive"))
		}
		if c.Sweep.GridTo < c.Sweep.GridFrom {
			errs = append(errs, errors.New("sweep.grid_to must be >= grid_from"))
		}
	}

	// Model validation
	names := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if m.Name == "" {
			errs = append(errs, errors.New("models[].name is required"))
			continue
		}
		if names[m.Name] {
			errs = append(errs, fmt.Errorf("duplicate model name: %s", m.Name))
		}
		names[m.Name] = true

		switch m.Kind {
		case ModelKindGhostCycle:
			if m.LoadThresholdPct <= 0 || m.LoadThresholdPct > 100 {
				errs = append(errs, fmt.Errorf("model %s: load_threshold_pct must be between 0 and 100", m.Name))
			}
		case ModelKindChokePoint:
			if m.ZoneGridDeg <= 0 {
				errs = append(errs, fmt.Errorf("model %s: zone_grid_deg must be positive", m.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("model %s: kind must be one of: %s, %s", m.Name, ModelKindGhostCycle, ModelKindChokePoint))
		}
		if m.SpeedThresholdMPH < 0 {
			errs = append(errs, fmt.Errorf("model %s: speed_threshold_mph must be non-negative", m.Name))
		}
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
		errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}

// ThresholdGrid resolves the sweep grid: the explicit list when given,
// else the generated from/to/step grid.
func (c *Config) ThresholdGrid() []float64 {
	if len(c.Sweep.Grid) > 0 {
		return c.Sweep.Grid
	}
	var grid []float64
	for i := 0; ; i++ {
		v := c.Sweep.GridFrom + float64(i)*c.Sweep.GridStep
		if v > c.Sweep.GridTo+c.Sweep.GridStep/1e9 {
			break
		}
		grid = append(grid, v)
	}
	return grid
}
