package aligner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

var base = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

func motionAt(offset time.Duration, speed float64) models.MotionSample {
	return models.MotionSample{
		AssetID:   "T-101",
		Timestamp: base.Add(offset),
		Latitude:  44.05,
		Longitude: -110.42,
		SpeedMPH:  speed,
	}
}

func loadAt(offset time.Duration, load float64) models.LoadSample {
	return models.LoadSample{
		AssetID:    "T-101",
		Timestamp:  base.Add(offset),
		EngineLoad: load,
	}
}

func TestAlignPairsNearestLoadSample(t *testing.T) {
	a := New(Config{Tolerance: 5 * time.Second})

	motion := []models.MotionSample{
		motionAt(0, 12),
		motionAt(30*time.Second, 14),
		motionAt(60*time.Second, 11),
	}
	load := []models.LoadSample{
		loadAt(2*time.Second, 20),
		loadAt(29*time.Second, 25),
		loadAt(62*time.Second, 22),
	}

	observations, diag, err := a.Align("T-101", motion, load)
	require.NoError(t, err)
	require.Len(t, observations, 3)

	assert.Equal(t, 20.0, observations[0].Load.EngineLoad)
	assert.Equal(t, 25.0, observations[1].Load.EngineLoad)
	assert.Equal(t, 22.0, observations[2].Load.EngineLoad)
	assert.Equal(t, 3, diag.Aligned)
	assert.Equal(t, 0, diag.UnmatchedMotion)
}

func TestAlignSkipsMotionBeyondTolerance(t *testing.T) {
	a := New(Config{Tolerance: 5 * time.Second})

	motion := []models.MotionSample{
		motionAt(0, 12),
		motionAt(5*time.Minute, 14),
	}
	load := []models.LoadSample{
		loadAt(2*time.Second, 20),
	}

	observations, diag, err := a.Align("T-101", motion, load)
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, 1, diag.UnmatchedMotion)
	assert.Equal(t, base, observations[0].Timestamp)
}

func TestAlignTieBreaksToEarlierLoadSample(t *testing.T) {
	a := New(Config{Tolerance: 5 * time.Second})

	// Two load samples equidistant from the motion sample.
	motion := []models.MotionSample{motionAt(10*time.Second, 12)}
	load := []models.LoadSample{
		loadAt(8*time.Second, 20),
		loadAt(12*time.Second, 30),
	}

	observations, _, err := a.Align("T-101", motion, load)
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, 20.0, observations[0].Load.EngineLoad)
}

func TestAlignSortsUnorderedInput(t *testing.T) {
	a := New(Config{})

	motion := []models.MotionSample{
		motionAt(60*time.Second, 11),
		motionAt(0, 12),
		motionAt(30*time.Second, 14),
	}
	load := []models.LoadSample{
		loadAt(62*time.Second, 22),
		loadAt(2*time.Second, 20),
		loadAt(29*time.Second, 25),
	}

	observations, _, err := a.Align("T-101", motion, load)
	require.NoError(t, err)
	require.Len(t, observations, 3)
	assert.True(t, observations[0].Timestamp.Before(observations[1].Timestamp))
	assert.True(t, observations[1].Timestamp.Before(observations[2].Timestamp))
}

func TestAlignMergesIdenticalDuplicates(t *testing.T) {
	a := New(Config{})

	motion := []models.MotionSample{
		motionAt(0, 12),
		motionAt(0, 12),
	}
	load := []models.LoadSample{loadAt(1*time.Second, 20)}

	observations, diag, err := a.Align("T-101", motion, load)
	require.NoError(t, err)
	assert.Len(t, observations, 1)
	assert.Equal(t, 1, diag.DuplicatesMerged)
}

func TestAlignRejectsConflictingDuplicates(t *testing.T) {
	a := New(Config{})

	motion := []models.MotionSample{
		motionAt(0, 12),
		motionAt(0, 18),
	}
	load := []models.LoadSample{loadAt(1*time.Second, 20)}

	_, _, err := a.Align("T-101", motion, load)
	require.Error(t, err)

	var orderErr *OutOfOrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, "T-101", orderErr.AssetID)
	assert.Equal(t, "motion", orderErr.Stream)
}

func TestAlignAtMostOneObservationPerMotionSample(t *testing.T) {
	a := New(Config{Tolerance: time.Minute})

	motion := []models.MotionSample{motionAt(0, 12)}
	load := []models.LoadSample{
		loadAt(1*time.Second, 20),
		loadAt(2*time.Second, 25),
		loadAt(3*time.Second, 30),
	}

	observations, _, err := a.Align("T-101", motion, load)
	require.NoError(t, err)
	assert.Len(t, observations, 1)
	assert.Equal(t, 20.0, observations[0].Load.EngineLoad)
}

func TestAlignEmptyLoadStream(t *testing.T) {
	a := New(Config{})

	motion := []models.MotionSample{motionAt(0, 12), motionAt(30*time.Second, 14)}

	observations, diag, err := a.Align("T-101", motion, nil)
	require.NoError(t, err)
	assert.Empty(t, observations)
	assert.Equal(t, 2, diag.UnmatchedMotion)
}

func TestClockSkew(t *testing.T) {
	a := New(Config{Tolerance: 5 * time.Second})

	motion := []models.MotionSample{motionAt(10*time.Second, 12)}
	load := []models.LoadSample{loadAt(7*time.Second, 20)}

	observations, _, err := a.Align("T-101", motion, load)
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, 3*time.Second, observations[0].ClockSkew())
}
