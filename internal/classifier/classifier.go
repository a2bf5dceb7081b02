package classifier

import (
	"time"

	"github.com/OldStager01/fleet-value-engine/internal/logger"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

type Config struct {
	MinEpisodeLength int
	MaxGap           time.Duration

	// WasteFactor is the share of fuel burned during an anomalous
	// episode treated as waste. The fleet baseline is 0.4: a ghost
	// cycle burns roughly 40% of normal fuel with no productive work.
	WasteFactor float64
}

// Classifier turns labeled observation runs into anomaly episodes.
// Stateless across calls; applying the same rule to the same
// observations twice yields identical episodes.
type Classifier struct {
	config Config
}

func New(cfg Config) *Classifier {
	if cfg.MinEpisodeLength == 0 {
		cfg.MinEpisodeLength = 3
	}
	if cfg.MaxGap == 0 {
		cfg.MaxGap = 2 * time.Minute
	}
	if cfg.WasteFactor == 0 {
		cfg.WasteFactor = 0.4
	}
	return &Classifier{config: cfg}
}

// Episodes labels each observation with the rule and closes maximal
// contiguous anomalous runs. A false label or a stream gap beyond
// MaxGap breaks the run; runs shorter than MinEpisodeLength are
// discarded. Strict contiguity: a run interrupted by a single false
// label is never merged across the interruption.
func (c *Classifier) Episodes(rule Rule, observations []models.AlignedObservation) []models.AnomalyEpisode {
	var episodes []models.AnomalyEpisode
	var run []*models.AlignedObservation

	flush := func() {
		if len(run) >= c.config.MinEpisodeLength {
			episodes = append(episodes, c.buildEpisode(rule, run))
		}
		run = run[:0]
	}

	for i := range observations {
		o := &observations[i]

		if len(run) > 0 {
			gap := o.Timestamp.Sub(run[len(run)-1].Timestamp)
			if gap > c.config.MaxGap {
				flush()
			}
		}

		if rule.Matches(o) {
			run = append(run, o)
		} else {
			flush()
		}
	}
	flush()

	if len(episodes) > 0 && len(observations) > 0 {
		logger.WithAsset(observations[0].AssetID).Debugf(
			"Classified %d episodes from %d observations (model: %s)",
			len(episodes), len(observations), rule.ModelName,
		)
	}

	return episodes
}

func (c *Classifier) buildEpisode(rule Rule, run []*models.AlignedObservation) models.AnomalyEpisode {
	first, last := run[0], run[len(run)-1]

	var totalSpeed, totalLoad, totalFuelRate float64
	for _, o := range run {
		totalSpeed += o.Motion.SpeedMPH
		totalLoad += o.Load.EngineLoad
		totalFuelRate += o.Load.FuelRateGPH
	}
	n := float64(len(run))

	duration := last.Timestamp.Sub(first.Timestamp)
	meanFuelRate := totalFuelRate / n

	return models.AnomalyEpisode{
		ID:               models.NewUUID(),
		AssetID:          first.AssetID,
		ModelName:        rule.ModelName,
		ZoneKey:          rule.ZoneKey(first),
		Start:            first.Timestamp,
		End:              last.Timestamp,
		ObservationCount: len(run),
		MeanSpeedMPH:     totalSpeed / n,
		MeanEngineLoad:   totalLoad / n,
		FuelWasteGal:     meanFuelRate * c.config.WasteFactor * duration.Hours(),
	}
}
