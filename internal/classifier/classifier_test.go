package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

var base = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

func observation(offset time.Duration, speed, load float64) models.AlignedObservation {
	ts := base.Add(offset)
	return models.AlignedObservation{
		AssetID:   "T-101",
		Timestamp: ts,
		Motion: &models.MotionSample{
			AssetID: "T-101", Timestamp: ts,
			Latitude: 44.05, Longitude: -110.42, SpeedMPH: speed,
		},
		Load: &models.LoadSample{
			AssetID: "T-101", Timestamp: ts,
			EngineLoad: load, FuelRateGPH: 15 + load/100*35,
		},
	}
}

func TestGhostCycleRuleMatches(t *testing.T) {
	rule := GhostCycleRule("ghost_cycle", 2.0, 30.0)

	tests := []struct {
		name  string
		speed float64
		load  float64
		want  bool
	}{
		{"moving with low load", 8.0, 20.0, true},
		{"moving with working load", 8.0, 70.0, false},
		{"stopped with low load", 1.0, 20.0, false},
		{"at speed threshold", 2.0, 20.0, false},
		{"at load threshold", 8.0, 30.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := observation(0, tt.speed, tt.load)
			assert.Equal(t, tt.want, rule.Matches(&o))
		})
	}
}

func TestShortRunDiscarded(t *testing.T) {
	c := New(Config{MinEpisodeLength: 2})
	rule := GhostCycleRule("ghost_cycle", 2.0, 30.0)

	// First observation anomalous, second not: a run of length 1 never
	// becomes an episode under min-episode-length 2.
	observations := []models.AlignedObservation{
		observation(0, 8, 20),
		observation(60*time.Second, 1, 70),
	}

	episodes := c.Episodes(rule, observations)
	assert.Empty(t, episodes)
}

func TestContiguousRunBecomesEpisode(t *testing.T) {
	c := New(Config{MinEpisodeLength: 3})
	rule := GhostCycleRule("ghost_cycle", 2.0, 30.0)

	observations := []models.AlignedObservation{
		observation(0, 8, 20),
		observation(30*time.Second, 9, 22),
		observation(60*time.Second, 7, 18),
		observation(90*time.Second, 1, 70),
	}

	episodes := c.Episodes(rule, observations)
	require.Len(t, episodes, 1)

	ep := episodes[0]
	assert.Equal(t, "T-101", ep.AssetID)
	assert.Equal(t, "ghost_cycle", ep.ModelName)
	assert.Equal(t, 3, ep.ObservationCount)
	assert.Equal(t, base, ep.Start)
	assert.Equal(t, base.Add(60*time.Second), ep.End)
	assert.InDelta(t, 8.0, ep.MeanSpeedMPH, 1e-9)
	assert.InDelta(t, 20.0, ep.MeanEngineLoad, 1e-9)
}

func TestInterruptionBreaksRun(t *testing.T) {
	c := New(Config{MinEpisodeLength: 3})
	rule := GhostCycleRule("ghost_cycle", 2.0, 30.0)

	// Strict contiguity: the single normal observation splits two
	// two-observation runs, neither of which passes the length gate.
	observations := []models.AlignedObservation{
		observation(0, 8, 20),
		observation(30*time.Second, 9, 22),
		observation(60*time.Second, 1, 70),
		observation(90*time.Second, 8, 19),
		observation(120*time.Second, 9, 21),
	}

	episodes := c.Episodes(rule, observations)
	assert.Empty(t, episodes)
}

func TestStreamGapBreaksRun(t *testing.T) {
	c := New(Config{MinEpisodeLength: 3, MaxGap: 2 * time.Minute})
	rule := GhostCycleRule("ghost_cycle", 2.0, 30.0)

	observations := []models.AlignedObservation{
		observation(0, 8, 20),
		observation(30*time.Second, 9, 22),
		// 10 minute hole in the stream.
		observation(10*time.Minute, 8, 19),
		observation(10*time.Minute+30*time.Second, 9, 21),
	}

	episodes := c.Episodes(rule, observations)
	assert.Empty(t, episodes)
}

func TestEpisodesIdempotent(t *testing.T) {
	c := New(Config{})
	rule := GhostCycleRule("ghost_cycle", 2.0, 30.0)

	observations := []models.AlignedObservation{
		observation(0, 8, 20),
		observation(30*time.Second, 9, 22),
		observation(60*time.Second, 7, 18),
		observation(90*time.Second, 8, 25),
	}

	first := c.Episodes(rule, observations)
	second := c.Episodes(rule, observations)
	require.Len(t, first, 1)
	require.Len(t, second, 1)

	// Identical apart from the generated episode id.
	second[0].ID = first[0].ID
	assert.Equal(t, first[0], second[0])
}

func TestFuelWasteEstimate(t *testing.T) {
	c := New(Config{MinEpisodeLength: 3, MaxGap: time.Hour, WasteFactor: 0.4})
	rule := GhostCycleRule("ghost_cycle", 2.0, 30.0)

	// 1 hour episode at load 20% -> fuel rate 22 gph, waste 0.4 share.
	observations := []models.AlignedObservation{
		observation(0, 8, 20),
		observation(30*time.Minute, 8, 20),
		observation(time.Hour, 8, 20),
	}

	episodes := c.Episodes(rule, observations)
	require.Len(t, episodes, 1)
	assert.InDelta(t, 22.0*0.4, episodes[0].FuelWasteGal, 1e-9)
}

func TestChokePointRuleZoneKey(t *testing.T) {
	rule := ChokePointRule("choke_point", 5.0, 0.002)

	creeping := observation(0, 3.0, 80.0)
	assert.True(t, rule.Matches(&creeping))
	assert.NotEmpty(t, rule.ZoneKey(&creeping))

	hauling := observation(0, 18.0, 80.0)
	assert.False(t, rule.Matches(&hauling))

	// Same grid cell for nearby positions.
	nearby := observation(30*time.Second, 3.0, 75.0)
	nearby.Motion.Latitude = creeping.Motion.Latitude + 0.0001
	assert.Equal(t, rule.ZoneKey(&creeping), rule.ZoneKey(&nearby))
}

func TestLoadFractionFamily(t *testing.T) {
	family := LoadFractionFamily{Base: GhostCycleRule("ghost_cycle", 2.0, 30.0)}

	rule := family.Apply(0.45)
	assert.InDelta(t, 45.0, rule.LoadThreshold, 1e-9)
	assert.Equal(t, 2.0, rule.SpeedThreshold)

	// Applying a threshold never mutates the base.
	assert.InDelta(t, 30.0, family.Base.LoadThreshold, 1e-9)
}
