package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{Name: "fleet-value-engine", Mode: "development", LogLevel: "info"},
		Database: DatabaseConfig{
			Host: "localhost", Port: 5432, Name: "fleetvalue", MaxConnections: 10,
		},
		Engine: EngineConfig{
			Workers: 4, BucketSize: time.Hour, WindowLength: 24 * time.Hour, Source: "database",
		},
		Aligner: AlignerConfig{Tolerance: 5 * time.Second},
		Classifier: ClassifierConfig{
			MinEpisodeLength: 3, MaxGap: 2 * time.Minute, WasteFactor: 0.4,
		},
		Reconciler: ReconcilerConfig{MinOverlapFraction: 0.25},
		Sweep:      SweepConfig{GridFrom: 0.1, GridTo: 0.6, GridStep: 0.05},
		Models: []ModelConfig{
			{Name: "ghost_cycle", Kind: ModelKindGhostCycle, SpeedThresholdMPH: 2, LoadThresholdPct: 30},
			{Name: "choke_point", Kind: ModelKindChokePoint, SpeedThresholdMPH: 5, ZoneGridDeg: 0.002},
		},
		API: APIConfig{Port: 8080, JWTSecret: "test-secret"},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }},
		{"bad mode", func(c *Config) { c.App.Mode = "staging" }},
		{"bad log level", func(c *Config) { c.App.LogLevel = "trace" }},
		{"missing db host", func(c *Config) { c.Database.Host = "" }},
		{"bad db port", func(c *Config) { c.Database.Port = 70000 }},
		{"zero workers", func(c *Config) { c.Engine.Workers = 0 }},
		{"zero bucket size", func(c *Config) { c.Engine.BucketSize = 0 }},
		{"bad source", func(c *Config) { c.Engine.Source = "kafka" }},
		{"zero tolerance", func(c *Config) { c.Aligner.Tolerance = 0 }},
		{"zero episode length", func(c *Config) { c.Classifier.MinEpisodeLength = 0 }},
		{"waste factor above one", func(c *Config) { c.Classifier.WasteFactor = 1.5 }},
		{"overlap fraction at one", func(c *Config) { c.Reconciler.MinOverlapFraction = 1.0 }},
		{"zero grid step", func(c *Config) { c.Sweep = SweepConfig{GridFrom: 0.1, GridTo: 0.6} }},
		{"inverted grid bounds", func(c *Config) { c.Sweep = SweepConfig{GridFrom: 0.6, GridTo: 0.1, GridStep: 0.05} }},
		{"unnamed model", func(c *Config) { c.Models[0].Name = "" }},
		{"duplicate model name", func(c *Config) { c.Models[1].Name = c.Models[0].Name }},
		{"unknown model kind", func(c *Config) { c.Models[0].Kind = "drift" }},
		{"load threshold over 100", func(c *Config) { c.Models[0].LoadThresholdPct = 120 }},
		{"zero zone grid", func(c *Config) { c.Models[1].ZoneGridDeg = 0 }},
		{"negative speed threshold", func(c *Config) { c.Models[0].SpeedThresholdMPH = -1 }},
		{"bad api port", func(c *Config) { c.API.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateRejectsDefaultSecretInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.App.Mode = "production"
	cfg.API.JWTSecret = "change-me-in-production"
	assert.Error(t, cfg.Validate())

	cfg.API.JWTSecret = "rotated-secret"
	assert.NoError(t, cfg.Validate())
}

func TestThresholdGridGenerated(t *testing.T) {
	cfg := validConfig()
	cfg.Sweep = SweepConfig{GridFrom: 0.10, GridTo: 0.30, GridStep: 0.05}

	grid := cfg.ThresholdGrid()
	require.Len(t, grid, 5)
	assert.InDelta(t, 0.10, grid[0], 1e-12)
	assert.InDelta(t, 0.30, grid[4], 1e-12)
}

func TestThresholdGridExplicitOverrides(t *testing.T) {
	cfg := validConfig()
	cfg.Sweep.Grid = []float64{0.2, 0.4}

	assert.Equal(t, []float64{0.2, 0.4}, cfg.ThresholdGrid())
}

func TestExplicitGridSkipsStepValidation(t *testing.T) {
	cfg := validConfig()
	cfg.Sweep = SweepConfig{Grid: []float64{0.2, 0.4}}

	assert.NoError(t, cfg.Validate())
}
