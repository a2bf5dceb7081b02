package models

import "time"

// AnomalyEpisode is a maximal contiguous run of anomalous aligned
// observations for one asset that passed the minimum-length gate.
type AnomalyEpisode struct {
	ID               string    `json:"id"`
	AssetID          string    `json:"asset_id"`
	ModelName        string    `json:"model_name"`
	ZoneKey          string    `json:"zone_key,omitempty"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	ObservationCount int       `json:"observation_count"`
	MeanSpeedMPH     float64   `json:"mean_speed_mph"`
	MeanEngineLoad   float64   `json:"mean_engine_load_pct"`
	FuelWasteGal     float64   `json:"fuel_waste_gal"`
	RunID            string    `json:"run_id,omitempty"`
}

func (e *AnomalyEpisode) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Overlap returns the length of the intersection between the episode
// and the given range, zero when they are disjoint.
func (e *AnomalyEpisode) Overlap(start, end time.Time) time.Duration {
	s := e.Start
	if start.After(s) {
		s = start
	}
	f := e.End
	if end.Before(f) {
		f = end
	}
	if !f.After(s) {
		return 0
	}
	return f.Sub(s)
}

// GroundTruthLabel is an externally supplied verdict over a time range.
type GroundTruthLabel struct {
	AssetID       string    `json:"asset_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	IsTrueAnomaly bool      `json:"is_true_anomaly"`
	Source        string    `json:"source,omitempty"`
}

func (g *GroundTruthLabel) Duration() time.Duration {
	return g.End.Sub(g.Start)
}
