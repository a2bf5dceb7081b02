package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

func TestFleetLayout(t *testing.T) {
	f := NewFleet(Config{Seed: 7, Sites: 3, AssetsPerSite: 4})

	assert.Len(t, f.Sites(), 3)
	assert.Len(t, f.Assets(), 12)

	h := f.Hierarchy()
	for _, asset := range f.Assets() {
		siteID, ok := h.SiteOf(asset.ID)
		require.True(t, ok)
		portfolioID, ok := h.PortfolioOf(siteID)
		require.True(t, ok)
		assert.Equal(t, "portfolio-main", portfolioID)
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	from := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)

	first := NewFleet(Config{Seed: 42, Sites: 1, AssetsPerSite: 2}).Generate(from, to)
	second := NewFleet(Config{Seed: 42, Sites: 1, AssetsPerSite: 2}).Generate(from, to)

	assert.Equal(t, first.Motion, second.Motion)
	assert.Equal(t, first.Load, second.Load)
	assert.Equal(t, first.GroundTruth, second.GroundTruth)
}

func TestGenerateDifferentSeedsDiffer(t *testing.T) {
	from := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	first := NewFleet(Config{Seed: 1, Sites: 1, AssetsPerSite: 1}).Generate(from, to)
	second := NewFleet(Config{Seed: 2, Sites: 1, AssetsPerSite: 1}).Generate(from, to)

	assert.NotEqual(t, first.Motion, second.Motion)
}

func TestGenerateStreamsStayInWindow(t *testing.T) {
	from := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	telemetry := NewFleet(Config{Seed: 9, Sites: 1, AssetsPerSite: 2}).Generate(from, to)

	for assetID, samples := range telemetry.Motion {
		require.NotEmpty(t, samples, assetID)
		for _, s := range samples {
			assert.False(t, s.Timestamp.Before(from))
			assert.True(t, s.Timestamp.Before(to))
			assert.Equal(t, assetID, s.AssetID)
		}
	}
	for _, samples := range telemetry.Load {
		for _, s := range samples {
			assert.False(t, s.Timestamp.Before(from))
			assert.True(t, s.Timestamp.Before(to))
			assert.Positive(t, s.FuelRateGPH)
		}
	}
}

func TestGenerateLabelsMatchGhostBehavior(t *testing.T) {
	from := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	to := from.Add(8 * time.Hour)

	f := NewFleet(Config{Seed: 42, Sites: 1, AssetsPerSite: 3, GhostFraction: 0.9})
	telemetry := f.Generate(from, to)

	sawTrueLabel := false
	for assetID, labels := range telemetry.GroundTruth {
		loads := telemetry.Load[assetID]
		for _, label := range labels {
			if !label.IsTrueAnomaly {
				continue
			}
			sawTrueLabel = true

			// Ghost windows run with an idle engine and no payload.
			for _, s := range loads {
				if s.Timestamp.Before(label.Start) || !s.Timestamp.Before(label.End) {
					continue
				}
				assert.Less(t, s.EngineLoad, 30.0)
				assert.Zero(t, s.PayloadTons)
			}
		}
	}
	require.True(t, sawTrueLabel, "expected at least one ghost window over 8 hours")
}

func TestGenerateLabelRangesOrdered(t *testing.T) {
	from := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	to := from.Add(4 * time.Hour)

	telemetry := NewFleet(Config{Seed: 5, Sites: 1, AssetsPerSite: 1}).Generate(from, to)

	for _, labels := range telemetry.GroundTruth {
		var prev *models.GroundTruthLabel
		for i := range labels {
			l := labels[i]
			assert.True(t, l.End.After(l.Start))
			if prev != nil {
				assert.False(t, l.Start.Before(prev.End))
			}
			prev = &labels[i]
		}
	}
}
