package sweep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-value-engine/internal/attribution"
	"github.com/OldStager01/fleet-value-engine/internal/classifier"
	"github.com/OldStager01/fleet-value-engine/internal/reconciler"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

var windowStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func observation(offset time.Duration, speed, load float64) models.AlignedObservation {
	ts := windowStart.Add(offset)
	return models.AlignedObservation{
		AssetID:   "T-101",
		Timestamp: ts,
		Motion: &models.MotionSample{
			AssetID: "T-101", Timestamp: ts,
			Latitude: 44.05, Longitude: -110.42, SpeedMPH: speed,
		},
		Load: &models.LoadSample{
			AssetID: "T-101", Timestamp: ts,
			EngineLoad: load, FuelRateGPH: 20,
		},
	}
}

func benefitAssumption(cat models.OutcomeCategory, unitCost float64, sign models.SignConvention) models.CostAssumption {
	return models.CostAssumption{
		ModelName:     "ghost_cycle",
		Category:      cat,
		CostCategory:  "fuel",
		UnitCost:      unitCost,
		UnitsPerEvent: 1,
		Sign:          sign,
		EffectiveFrom: windowStart.AddDate(0, -1, 0),
	}
}

func newSweeper() *Sweeper {
	cl := classifier.New(classifier.Config{MinEpisodeLength: 3, MaxGap: 15 * time.Minute})
	rc := reconciler.New(reconciler.Config{MinOverlapFraction: 0.25, BucketSize: time.Hour})
	at := attribution.New([]models.CostAssumption{
		benefitAssumption(models.OutcomeTruePositive, 100, models.SignBenefit),
		benefitAssumption(models.OutcomeFalsePositive, 40, models.SignCost),
		benefitAssumption(models.OutcomeFalseNegative, 60, models.SignCost),
		benefitAssumption(models.OutcomeTrueNegative, 0, models.SignBenefit),
	})
	return New(cl, rc, at)
}

// dataset holds one 30-minute labeled anomaly at 06:00 with loads around
// 35%: thresholds at or below 0.35 miss it, higher thresholds catch it.
func labeledDataset() Dataset {
	observations := []models.AlignedObservation{
		observation(6*time.Hour, 8, 35),
		observation(6*time.Hour+10*time.Minute, 9, 34),
		observation(6*time.Hour+20*time.Minute, 8, 36),
	}
	labels := []models.GroundTruthLabel{{
		AssetID:       "T-101",
		Start:         windowStart.Add(6 * time.Hour),
		End:           windowStart.Add(6*time.Hour + 30*time.Minute),
		IsTrueAnomaly: true,
		Source:        "operator",
	}}

	return Dataset{
		ModelName:    "ghost_cycle",
		Scope:        models.Scope{Level: models.ScopePortfolio, ID: "fleet"},
		WindowStart:  windowStart,
		WindowEnd:    windowStart.Add(24 * time.Hour),
		Observations: map[string][]models.AlignedObservation{"T-101": observations},
		Labels:       map[string][]models.GroundTruthLabel{"T-101": labels},
	}
}

func family() classifier.Family {
	return classifier.LoadFractionFamily{Base: classifier.GhostCycleRule("ghost_cycle", 2.0, 30.0)}
}

func TestSweepSelectsValueMaximizingThreshold(t *testing.T) {
	s := newSweeper()

	curve, err := s.Sweep(family(), labeledDataset(), []float64{0.3, 0.5, 0.7})
	require.NoError(t, err)
	require.Len(t, curve.Points, 3)

	// 0.3 misses the anomaly; 0.5 and 0.7 both catch it with equal
	// value, and the tie goes to the lower threshold.
	assert.Equal(t, 0.5, curve.OptimalThreshold)
	assert.Equal(t, 0, curve.Points[0].TruePositives)
	assert.Equal(t, 1, curve.Points[1].TruePositives)
	assert.Equal(t, 1, curve.Points[2].TruePositives)
	assert.Greater(t, curve.Points[1].NetDailyValue, curve.Points[0].NetDailyValue)
}

func TestSweepDescendingGridSelectsSameOptimum(t *testing.T) {
	s := newSweeper()

	ascending, err := s.Sweep(family(), labeledDataset(), []float64{0.3, 0.5, 0.7})
	require.NoError(t, err)
	descending, err := s.Sweep(family(), labeledDataset(), []float64{0.7, 0.5, 0.3})
	require.NoError(t, err)

	assert.Equal(t, ascending.OptimalThreshold, descending.OptimalThreshold)
	assert.Equal(t, ascending.Points, descending.Points)
}

func TestSweepDeterministic(t *testing.T) {
	s := newSweeper()

	first, err := s.Sweep(family(), labeledDataset(), []float64{0.3, 0.5, 0.7})
	require.NoError(t, err)
	second, err := s.Sweep(family(), labeledDataset(), []float64{0.3, 0.5, 0.7})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSweepRejectsDuplicateThreshold(t *testing.T) {
	s := newSweeper()

	_, err := s.Sweep(family(), labeledDataset(), []float64{0.2, 0.5, 0.5})
	require.Error(t, err)

	var gridErr *InvalidThresholdGridError
	require.ErrorAs(t, err, &gridErr)
	assert.Equal(t, []float64{0.2, 0.5, 0.5}, gridErr.Grid)
}

func TestSweepRejectsEmptyGrid(t *testing.T) {
	s := newSweeper()

	_, err := s.Sweep(family(), labeledDataset(), nil)

	var gridErr *InvalidThresholdGridError
	require.ErrorAs(t, err, &gridErr)
}

func TestSweepRejectsNonMonotonicGrid(t *testing.T) {
	s := newSweeper()

	_, err := s.Sweep(family(), labeledDataset(), []float64{0.2, 0.6, 0.4})

	var gridErr *InvalidThresholdGridError
	require.ErrorAs(t, err, &gridErr)
}

func TestSweepUnlabeledDataset(t *testing.T) {
	s := newSweeper()

	ds := labeledDataset()
	ds.Labels = map[string][]models.GroundTruthLabel{}

	_, err := s.Sweep(family(), ds, []float64{0.3, 0.5})
	assert.ErrorIs(t, err, ErrUnlabeledDataset)
}

func TestGridHelper(t *testing.T) {
	grid := Grid(0.10, 0.30, 0.05)
	require.Len(t, grid, 5)
	assert.InDelta(t, 0.10, grid[0], 1e-12)
	assert.InDelta(t, 0.30, grid[4], 1e-12)

	assert.Nil(t, Grid(0.5, 0.4, 0.05))
	assert.Nil(t, Grid(0.1, 0.2, 0))
}
