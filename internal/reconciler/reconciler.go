package reconciler

import (
	"time"

	"github.com/OldStager01/fleet-value-engine/internal/logger"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

type Config struct {
	// MinOverlapFraction is the share of the shorter range (episode or
	// label) an overlap must exceed for the episode to qualify as a
	// detection of that label.
	MinOverlapFraction float64

	// BucketSize is the granularity true negatives are counted at.
	// Counting per bucket, not per sample, keeps TN counts from
	// swamping the confusion matrix.
	BucketSize time.Duration
}

// Reconciler compares classifier episodes against ground truth and
// produces confusion-matrix outcome records per time bucket. Pure
// function of its inputs.
type Reconciler struct {
	config Config
}

func New(cfg Config) *Reconciler {
	if cfg.MinOverlapFraction == 0 {
		cfg.MinOverlapFraction = 0.25
	}
	if cfg.BucketSize == 0 {
		cfg.BucketSize = time.Hour
	}
	return &Reconciler{config: cfg}
}

// Reconcile classifies every episode as TP or FP, every undetected
// true label as FN, and every quiet bucket as one TN. When no ground
// truth covers the scope at all, the result is explicitly unlabeled:
// zero false negatives and unknown false negatives are different
// answers, and guessing the first would be a correctness bug.
func (r *Reconciler) Reconcile(
	modelName string,
	scope models.Scope,
	windowStart, windowEnd time.Time,
	episodes []models.AnomalyEpisode,
	labels []models.GroundTruthLabel,
) []models.ReconciliationResult {
	buckets := r.bucketGrid(windowStart, windowEnd)

	if len(labels) == 0 {
		results := make([]models.ReconciliationResult, 0, len(buckets))
		for _, bucket := range buckets {
			results = append(results, models.ReconciliationResult{
				Scope:     scope,
				Bucket:    bucket,
				Unlabeled: true,
			})
		}
		logger.WithModel(modelName).Warnf(
			"No ground truth for scope %s/%s; reconciliation is unlabeled", scope.Level, scope.ID,
		)
		return results
	}

	trueLabels := make([]models.GroundTruthLabel, 0, len(labels))
	for _, l := range labels {
		if l.IsTrueAnomaly {
			trueLabels = append(trueLabels, l)
		}
	}

	type cell struct{ tp, fp, fn, tn int }
	cells := make(map[time.Time]*cell, len(buckets))
	for _, b := range buckets {
		cells[b.Start] = &cell{}
	}

	bucketOf := func(t time.Time) *cell {
		c, ok := cells[t.Truncate(r.config.BucketSize)]
		if !ok {
			// Outside the window grid; attribute to the edge bucket.
			if len(buckets) == 0 {
				return &cell{}
			}
			if t.Before(buckets[0].Start) {
				return cells[buckets[0].Start]
			}
			return cells[buckets[len(buckets)-1].Start]
		}
		return c
	}

	detected := make([]bool, len(trueLabels))
	for _, ep := range episodes {
		qualified := false
		for i := range trueLabels {
			if r.qualifies(&ep, &trueLabels[i]) {
				qualified = true
				detected[i] = true
			}
		}
		if qualified {
			bucketOf(ep.Start).tp++
		} else {
			bucketOf(ep.Start).fp++
		}
	}

	for i := range trueLabels {
		if !detected[i] {
			bucketOf(trueLabels[i].Start).fn++
		}
	}

	// A bucket with no episode and no true label is one true negative,
	// counted at bucket granularity.
	for _, b := range buckets {
		c := cells[b.Start]
		if c.tp == 0 && c.fp == 0 && c.fn == 0 && !r.anyTrueLabelTouches(b, trueLabels) {
			c.tn = 1
		}
	}

	results := make([]models.ReconciliationResult, 0, len(buckets))
	for _, b := range buckets {
		c := cells[b.Start]
		records := make([]models.OutcomeRecord, 0, 4)
		for _, cat := range models.AllOutcomeCategories() {
			count := 0
			switch cat {
			case models.OutcomeTruePositive:
				count = c.tp
			case models.OutcomeFalsePositive:
				count = c.fp
			case models.OutcomeFalseNegative:
				count = c.fn
			case models.OutcomeTrueNegative:
				count = c.tn
			}
			records = append(records, models.OutcomeRecord{
				ModelName: modelName,
				Bucket:    b,
				Scope:     scope,
				Category:  cat,
				Count:     count,
			})
		}
		results = append(results, models.ReconciliationResult{
			Scope:   scope,
			Bucket:  b,
			Records: records,
		})
	}

	return results
}

// qualifies applies the minimum-overlap gate. The fraction is taken of
// the shorter of the two ranges so a short episode fully inside a long
// label still counts as a detection.
func (r *Reconciler) qualifies(ep *models.AnomalyEpisode, label *models.GroundTruthLabel) bool {
	if ep.AssetID != label.AssetID {
		return false
	}
	overlap := ep.Overlap(label.Start, label.End)
	if overlap <= 0 {
		// Zero-duration episodes (single observation) count when the
		// observation lands inside the label.
		if ep.Duration() == 0 && !ep.Start.Before(label.Start) && ep.Start.Before(label.End) {
			return true
		}
		return false
	}

	shorter := ep.Duration()
	if label.Duration() < shorter {
		shorter = label.Duration()
	}
	if shorter == 0 {
		return true
	}
	return float64(overlap) > r.config.MinOverlapFraction*float64(shorter)
}

func (r *Reconciler) anyTrueLabelTouches(b models.TimeBucket, trueLabels []models.GroundTruthLabel) bool {
	for i := range trueLabels {
		if trueLabels[i].Start.Before(b.End()) && trueLabels[i].End.After(b.Start) {
			return true
		}
	}
	return false
}

func (r *Reconciler) bucketGrid(start, end time.Time) []models.TimeBucket {
	var buckets []models.TimeBucket
	for t := start.Truncate(r.config.BucketSize); t.Before(end); t = t.Add(r.config.BucketSize) {
		buckets = append(buckets, models.TimeBucket{Start: t, Size: r.config.BucketSize})
	}
	return buckets
}
