package aligner

import (
	"fmt"
	"sort"
	"time"

	"github.com/OldStager01/fleet-value-engine/internal/logger"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

// OutOfOrderError flags ambiguous duplicate timestamps in one asset's
// stream: two samples at the same instant carrying conflicting values.
// Fatal to that asset's run only.
type OutOfOrderError struct {
	AssetID   string
	Stream    string
	Timestamp time.Time
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf(
		"conflicting duplicate timestamp in %s stream for asset %s at %s",
		e.Stream, e.AssetID, e.Timestamp.Format(time.RFC3339Nano),
	)
}

type Config struct {
	Tolerance time.Duration
}

// Aligner joins one asset's motion and load streams into aligned
// observation pairs. Pure: no state survives a call.
type Aligner struct {
	config Config
}

func New(cfg Config) *Aligner {
	if cfg.Tolerance == 0 {
		cfg.Tolerance = 5 * time.Second
	}
	return &Aligner{config: cfg}
}

// Align produces at most one AlignedObservation per motion sample,
// paired with the load sample closest in time among those within
// tolerance (ties broken by the earlier load sample). Inputs need not
// be pre-sorted. Runs in O(n log n + m log m) via a sliding pointer
// over the sorted load stream.
func (a *Aligner) Align(
	assetID string,
	motion []models.MotionSample,
	load []models.LoadSample,
) ([]models.AlignedObservation, models.AlignmentDiagnostics, error) {
	diag := models.AlignmentDiagnostics{
		AssetID:       assetID,
		MotionSamples: len(motion),
		LoadSamples:   len(load),
	}

	sortedMotion := make([]models.MotionSample, len(motion))
	copy(sortedMotion, motion)
	sort.Slice(sortedMotion, func(i, j int) bool {
		return sortedMotion[i].Timestamp.Before(sortedMotion[j].Timestamp)
	})

	sortedLoad := make([]models.LoadSample, len(load))
	copy(sortedLoad, load)
	sort.Slice(sortedLoad, func(i, j int) bool {
		return sortedLoad[i].Timestamp.Before(sortedLoad[j].Timestamp)
	})

	var err error
	var merged int
	sortedMotion, merged, err = dedupeMotion(assetID, sortedMotion)
	if err != nil {
		return nil, diag, err
	}
	diag.DuplicatesMerged += merged

	sortedLoad, merged, err = dedupeLoad(assetID, sortedLoad)
	if err != nil {
		return nil, diag, err
	}
	diag.DuplicatesMerged += merged

	observations := make([]models.AlignedObservation, 0, len(sortedMotion))
	j := 0
	for i := range sortedMotion {
		m := &sortedMotion[i]

		// Advance the pointer while the next load sample is strictly
		// closer. Non-strict would break the earlier-sample tie rule.
		for j+1 < len(sortedLoad) &&
			absGap(sortedLoad[j+1].Timestamp, m.Timestamp) < absGap(sortedLoad[j].Timestamp, m.Timestamp) {
			j++
		}

		if len(sortedLoad) == 0 || absGap(sortedLoad[j].Timestamp, m.Timestamp) > a.config.Tolerance {
			diag.UnmatchedMotion++
			continue
		}

		observations = append(observations, models.AlignedObservation{
			AssetID:   assetID,
			Timestamp: m.Timestamp,
			Motion:    m,
			Load:      &sortedLoad[j],
		})
	}
	diag.Aligned = len(observations)

	if diag.UnmatchedMotion > 0 {
		logger.WithAsset(assetID).Debugf(
			"Alignment: %d/%d motion samples unmatched (tolerance %s)",
			diag.UnmatchedMotion, diag.MotionSamples, a.config.Tolerance,
		)
	}

	return observations, diag, nil
}

// dedupeMotion collapses byte-equal duplicates and rejects conflicting
// ones. Input must already be sorted by timestamp.
func dedupeMotion(assetID string, samples []models.MotionSample) ([]models.MotionSample, int, error) {
	if len(samples) < 2 {
		return samples, 0, nil
	}

	out := samples[:1]
	merged := 0
	for i := 1; i < len(samples); i++ {
		prev := &out[len(out)-1]
		if samples[i].Timestamp.Equal(prev.Timestamp) {
			if !sameMotionValues(&samples[i], prev) {
				return nil, merged, &OutOfOrderError{AssetID: assetID, Stream: "motion", Timestamp: samples[i].Timestamp}
			}
			merged++
			continue
		}
		out = append(out, samples[i])
	}
	return out, merged, nil
}

func dedupeLoad(assetID string, samples []models.LoadSample) ([]models.LoadSample, int, error) {
	if len(samples) < 2 {
		return samples, 0, nil
	}

	out := samples[:1]
	merged := 0
	for i := 1; i < len(samples); i++ {
		prev := &out[len(out)-1]
		if samples[i].Timestamp.Equal(prev.Timestamp) {
			if !sameLoadValues(&samples[i], prev) {
				return nil, merged, &OutOfOrderError{AssetID: assetID, Stream: "load", Timestamp: samples[i].Timestamp}
			}
			merged++
			continue
		}
		out = append(out, samples[i])
	}
	return out, merged, nil
}

func sameMotionValues(a, b *models.MotionSample) bool {
	return a.Latitude == b.Latitude &&
		a.Longitude == b.Longitude &&
		a.SpeedMPH == b.SpeedMPH &&
		a.Heading == b.Heading
}

func sameLoadValues(a, b *models.LoadSample) bool {
	return a.EngineLoad == b.EngineLoad &&
		a.FuelRateGPH == b.FuelRateGPH &&
		a.PayloadTons == b.PayloadTons
}

func absGap(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
