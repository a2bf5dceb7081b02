package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-value-engine/internal/simulator"
	"github.com/OldStager01/fleet-value-engine/internal/source"
	"github.com/OldStager01/fleet-value-engine/pkg/config"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

var windowStart = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{
			Workers:    2,
			BucketSize: time.Hour,
		},
		Aligner: config.AlignerConfig{Tolerance: 5 * time.Second},
		Classifier: config.ClassifierConfig{
			MinEpisodeLength: 3,
			MaxGap:           2 * time.Minute,
			WasteFactor:      0.4,
		},
		Reconciler: config.ReconcilerConfig{MinOverlapFraction: 0.25},
		Sweep:      config.SweepConfig{Grid: []float64{0.2, 0.4, 0.6}},
	}
}

func ghostModel() config.ModelConfig {
	return config.ModelConfig{
		Name:              "ghost_cycle",
		Kind:              config.ModelKindGhostCycle,
		SpeedThresholdMPH: 2.0,
		LoadThresholdPct:  30.0,
	}
}

// fakeSource serves hand-built telemetry: T-101 carries a clean ghost
// run, T-202 carries conflicting duplicate motion samples that fail
// alignment.
type fakeSource struct {
	breakT202 bool
}

func (f *fakeSource) Assets(ctx context.Context) ([]models.Asset, error) {
	return []models.Asset{
		{ID: "T-101", Type: models.AssetTypeHauler, SiteID: "north-pit", RatedCapacity: 240},
		{ID: "T-202", Type: models.AssetTypeHauler, SiteID: "north-pit", RatedCapacity: 240},
	}, nil
}

func (f *fakeSource) Hierarchy(ctx context.Context) (*models.Hierarchy, error) {
	return &models.Hierarchy{
		AssetSite:     map[string]string{"T-101": "north-pit", "T-202": "north-pit"},
		SitePortfolio: map[string]string{"north-pit": "fleet"},
	}, nil
}

func (f *fakeSource) MotionSamples(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.MotionSample, error) {
	out := map[string][]models.MotionSample{}
	for _, id := range assetIDs {
		var samples []models.MotionSample
		for i := 0; i < 10; i++ {
			speed := 8.0
			if id == "T-202" {
				speed = 18.0
			}
			samples = append(samples, models.MotionSample{
				AssetID: id, Timestamp: from.Add(time.Duration(i) * 30 * time.Second),
				Latitude: 44.05, Longitude: -110.42, SpeedMPH: speed,
			})
		}
		if id == "T-202" && f.breakT202 {
			// Same timestamp, different reading.
			bad := samples[0]
			bad.SpeedMPH = 3.0
			samples = append(samples, bad)
		}
		out[id] = samples
	}
	return out, nil
}

func (f *fakeSource) LoadSamples(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.LoadSample, error) {
	out := map[string][]models.LoadSample{}
	for _, id := range assetIDs {
		var samples []models.LoadSample
		for i := 0; i < 10; i++ {
			load := 20.0
			if id == "T-202" {
				load = 75.0
			}
			samples = append(samples, models.LoadSample{
				AssetID: id, Timestamp: from.Add(time.Duration(i) * 30 * time.Second),
				EngineLoad: load, FuelRateGPH: 22,
			})
		}
		out[id] = samples
	}
	return out, nil
}

func (f *fakeSource) GroundTruth(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.GroundTruthLabel, error) {
	return map[string][]models.GroundTruthLabel{
		"T-101": {{
			AssetID: "T-101", Start: from, End: from.Add(5 * time.Minute),
			IsTrueAnomaly: true, Source: "operator",
		}},
		"T-202": {{
			AssetID: "T-202", Start: from, End: from.Add(5 * time.Minute),
			IsTrueAnomaly: false, Source: "operator",
		}},
	}, nil
}

func (f *fakeSource) CostAssumptions(ctx context.Context, modelName string) ([]models.CostAssumption, error) {
	return source.DefaultAssumptions(modelName), nil
}

func (f *fakeSource) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeSource) Close() error                          { return nil }

func TestRuleForModelKinds(t *testing.T) {
	ghost, err := RuleFor(ghostModel())
	require.NoError(t, err)
	assert.Equal(t, "ghost_cycle", ghost.ModelName)

	choke, err := RuleFor(config.ModelConfig{
		Name: "choke_point", Kind: config.ModelKindChokePoint,
		SpeedThresholdMPH: 5.0, ZoneGridDeg: 0.002,
	})
	require.NoError(t, err)
	assert.Equal(t, "choke_point", choke.ModelName)

	_, err = RuleFor(config.ModelConfig{Name: "bogus", Kind: "drift"})
	assert.Error(t, err)
}

func TestRunCompletesOverCleanFleet(t *testing.T) {
	e := New(testConfig(), &fakeSource{}, nil, nil)

	report, err := e.Run(context.Background(), ghostModel(), windowStart, windowStart.Add(2*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, report.Run.Status)
	assert.Empty(t, report.AssetErrors)
	require.NotEmpty(t, report.Episodes)
	assert.Equal(t, "T-101", report.Episodes[0].AssetID)
	assert.NotEmpty(t, report.Outcomes)
	assert.NotEmpty(t, report.Values)
	assert.NotNil(t, report.Run.CompletedAt)

	// Run id is stamped through every persisted artifact.
	for _, ep := range report.Episodes {
		assert.Equal(t, report.Run.ID, ep.RunID)
	}
	for _, v := range report.Values {
		assert.Equal(t, report.Run.ID, v.RunID)
	}
}

func TestRunRollsUpToPortfolio(t *testing.T) {
	e := New(testConfig(), &fakeSource{}, nil, nil)

	report, err := e.Run(context.Background(), ghostModel(), windowStart, windowStart.Add(2*time.Hour))
	require.NoError(t, err)

	var sawSite, sawPortfolio bool
	for _, row := range report.Rollups {
		switch row.Level {
		case models.ScopeSite:
			sawSite = true
			assert.Equal(t, "north-pit", row.ScopeID)
		case models.ScopePortfolio:
			sawPortfolio = true
			assert.Equal(t, "fleet", row.ScopeID)
		}
	}
	assert.True(t, sawSite)
	assert.True(t, sawPortfolio)
}

func TestRunProducesProfitCurve(t *testing.T) {
	e := New(testConfig(), &fakeSource{}, nil, nil)

	report, err := e.Run(context.Background(), ghostModel(), windowStart, windowStart.Add(2*time.Hour))
	require.NoError(t, err)

	require.NotNil(t, report.Curve)
	assert.Len(t, report.Curve.Points, 3)
	assert.Equal(t, report.Run.ID, report.Curve.RunID)
}

func TestRunIsolatesAssetFailure(t *testing.T) {
	e := New(testConfig(), &fakeSource{breakT202: true}, nil, nil)

	report, err := e.Run(context.Background(), ghostModel(), windowStart, windowStart.Add(2*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusPartial, report.Run.Status)
	require.Len(t, report.AssetErrors, 1)
	assert.Equal(t, "T-202", report.AssetErrors[0].AssetID)
	assert.Equal(t, "align", report.AssetErrors[0].Stage)

	// The healthy asset's pipeline still ran to completion.
	assert.NotEmpty(t, report.Episodes)
	assert.NotEmpty(t, report.Values)
}

func TestRunAgainstSimulatedFleet(t *testing.T) {
	cfg := testConfig()
	cfg.Classifier.MaxGap = 5 * time.Minute
	cfg.Models = []config.ModelConfig{{
		Name: "ghost_cycle", Kind: config.ModelKindGhostCycle,
		SpeedThresholdMPH: 0.2, LoadThresholdPct: 35.0,
	}}

	fleet := simulator.NewFleet(simulator.Config{Seed: 42, Sites: 1, AssetsPerSite: 2})
	e := New(cfg, source.NewSimulatorSource(fleet, nil), nil, nil)

	report, err := e.Run(context.Background(), cfg.Models[0], windowStart, windowStart.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, report.AssetErrors)
	assert.NotEmpty(t, report.Outcomes)
}
