package reconciler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

var windowStart = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

func episode(assetID string, startOffset, duration time.Duration) models.AnomalyEpisode {
	return models.AnomalyEpisode{
		ID:        "ep-" + startOffset.String(),
		ModelName: "ghost_cycle",
		AssetID:   assetID,
		Start:     windowStart.Add(startOffset),
		End:       windowStart.Add(startOffset + duration),
	}
}

func label(assetID string, startOffset, duration time.Duration, isTrue bool) models.GroundTruthLabel {
	return models.GroundTruthLabel{
		AssetID:       assetID,
		Start:         windowStart.Add(startOffset),
		End:           windowStart.Add(startOffset + duration),
		IsTrueAnomaly: isTrue,
		Source:        "operator",
	}
}

func scope() models.Scope {
	return models.Scope{Level: models.ScopeAsset, ID: "T-101"}
}

func totals(results []models.ReconciliationResult) (tp, fp, fn, tn int) {
	for i := range results {
		tp += results[i].Count(models.OutcomeTruePositive)
		fp += results[i].Count(models.OutcomeFalsePositive)
		fn += results[i].Count(models.OutcomeFalseNegative)
		tn += results[i].Count(models.OutcomeTrueNegative)
	}
	return
}

func TestReconcileClassifiesOutcomes(t *testing.T) {
	r := New(Config{MinOverlapFraction: 0.25, BucketSize: time.Hour})

	windowEnd := windowStart.Add(4 * time.Hour)
	episodes := []models.AnomalyEpisode{
		// Overlaps the true label: TP.
		episode("T-101", 10*time.Minute, 30*time.Minute),
		// No label near it: FP.
		episode("T-101", 70*time.Minute, 20*time.Minute),
	}
	labels := []models.GroundTruthLabel{
		label("T-101", 0, time.Hour, true),
		// Undetected true label in hour three: FN.
		label("T-101", 2*time.Hour, 30*time.Minute, true),
	}

	results := r.Reconcile("ghost_cycle", scope(), windowStart, windowEnd, episodes, labels)
	require.Len(t, results, 4)

	tp, fp, fn, tn := totals(results)
	assert.Equal(t, 1, tp)
	assert.Equal(t, 1, fp)
	assert.Equal(t, 1, fn)
	// Hour four has no episode and no label.
	assert.Equal(t, 1, tn)
}

func TestReconcileMinOverlapGate(t *testing.T) {
	r := New(Config{MinOverlapFraction: 0.5, BucketSize: time.Hour})

	windowEnd := windowStart.Add(time.Hour)
	// 10 minutes of overlap against a 40-minute episode: under the 50%
	// gate the episode does not qualify.
	episodes := []models.AnomalyEpisode{episode("T-101", 0, 40*time.Minute)}
	labels := []models.GroundTruthLabel{label("T-101", 30*time.Minute, time.Hour, true)}

	results := r.Reconcile("ghost_cycle", scope(), windowStart, windowEnd, episodes, labels)

	tp, fp, fn, _ := totals(results)
	assert.Equal(t, 0, tp)
	assert.Equal(t, 1, fp)
	assert.Equal(t, 1, fn)
}

func TestReconcileOverlapFractionOfShorterRange(t *testing.T) {
	r := New(Config{MinOverlapFraction: 0.5, BucketSize: time.Hour})

	windowEnd := windowStart.Add(2 * time.Hour)
	// A 10-minute episode fully inside a 2-hour label covers 100% of
	// the shorter range, far past the gate.
	episodes := []models.AnomalyEpisode{episode("T-101", 30*time.Minute, 10*time.Minute)}
	labels := []models.GroundTruthLabel{label("T-101", 0, 2*time.Hour, true)}

	results := r.Reconcile("ghost_cycle", scope(), windowStart, windowEnd, episodes, labels)

	tp, fp, fn, _ := totals(results)
	assert.Equal(t, 1, tp)
	assert.Equal(t, 0, fp)
	assert.Equal(t, 0, fn)
}

func TestReconcileRequiresSameAsset(t *testing.T) {
	r := New(Config{BucketSize: time.Hour})

	windowEnd := windowStart.Add(time.Hour)
	episodes := []models.AnomalyEpisode{episode("T-101", 0, 30*time.Minute)}
	labels := []models.GroundTruthLabel{label("T-202", 0, 30*time.Minute, true)}

	results := r.Reconcile("ghost_cycle", scope(), windowStart, windowEnd, episodes, labels)

	tp, fp, fn, _ := totals(results)
	assert.Equal(t, 0, tp)
	assert.Equal(t, 1, fp)
	assert.Equal(t, 1, fn)
}

func TestReconcileFalseLabelIsNotDetectable(t *testing.T) {
	r := New(Config{BucketSize: time.Hour})

	windowEnd := windowStart.Add(time.Hour)
	episodes := []models.AnomalyEpisode{episode("T-101", 0, 30*time.Minute)}
	// The label says no anomaly was really there; overlapping it does
	// not make the episode a true positive.
	labels := []models.GroundTruthLabel{label("T-101", 0, time.Hour, false)}

	results := r.Reconcile("ghost_cycle", scope(), windowStart, windowEnd, episodes, labels)

	tp, fp, fn, _ := totals(results)
	assert.Equal(t, 0, tp)
	assert.Equal(t, 1, fp)
	assert.Equal(t, 0, fn)
}

func TestReconcileUnlabeledScope(t *testing.T) {
	r := New(Config{BucketSize: time.Hour})

	windowEnd := windowStart.Add(2 * time.Hour)
	episodes := []models.AnomalyEpisode{episode("T-101", 0, 30*time.Minute)}

	results := r.Reconcile("ghost_cycle", scope(), windowStart, windowEnd, episodes, nil)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.True(t, res.Unlabeled)
		assert.Empty(t, res.Records)
	}
}

func TestReconcileOneTrueNegativePerQuietBucket(t *testing.T) {
	r := New(Config{BucketSize: time.Hour})

	windowEnd := windowStart.Add(6 * time.Hour)
	labels := []models.GroundTruthLabel{label("T-101", 0, 30*time.Minute, true)}

	results := r.Reconcile("ghost_cycle", scope(), windowStart, windowEnd, nil, labels)
	require.Len(t, results, 6)

	_, _, fn, tn := totals(results)
	assert.Equal(t, 1, fn)
	// Five quiet hours, one TN each, regardless of sample density.
	assert.Equal(t, 5, tn)
}

func TestReconcileBucketGridCoversWindow(t *testing.T) {
	r := New(Config{BucketSize: time.Hour})

	windowEnd := windowStart.Add(3 * time.Hour)
	results := r.Reconcile("ghost_cycle", scope(), windowStart, windowEnd, nil, []models.GroundTruthLabel{
		label("T-101", 0, time.Minute, false),
	})
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Equal(t, windowStart.Add(time.Duration(i)*time.Hour), res.Bucket.Start)
		assert.Equal(t, time.Hour, res.Bucket.Size)
		// Every bucket carries all four categories.
		assert.Len(t, res.Records, 4)
	}
}

func TestReconcileZeroDurationEpisodeInsideLabel(t *testing.T) {
	r := New(Config{BucketSize: time.Hour})

	windowEnd := windowStart.Add(time.Hour)
	episodes := []models.AnomalyEpisode{episode("T-101", 15*time.Minute, 0)}
	labels := []models.GroundTruthLabel{label("T-101", 0, time.Hour, true)}

	results := r.Reconcile("ghost_cycle", scope(), windowStart, windowEnd, episodes, labels)

	tp, fp, _, _ := totals(results)
	assert.Equal(t, 1, tp)
	assert.Equal(t, 0, fp)
}
