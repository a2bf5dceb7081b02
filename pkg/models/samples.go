package models

import "time"

// MotionSample is a single GPS ping for an asset. Samples may arrive
// out of order; the aligner sorts per asset by timestamp.
type MotionSample struct {
	AssetID   string    `json:"asset_id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	SpeedMPH  float64   `json:"speed_mph"`
	Heading   float64   `json:"heading"`
}

// LoadSample is a single engine telemetry tick for an asset.
type LoadSample struct {
	AssetID     string    `json:"asset_id"`
	Timestamp   time.Time `json:"timestamp"`
	EngineLoad  float64   `json:"engine_load_pct"`
	FuelRateGPH float64   `json:"fuel_rate_gph"`
	PayloadTons float64   `json:"payload_tons"`
}

// AlignedObservation pairs a motion sample with the load sample closest
// in time, within the aligner's tolerance. The motion timestamp is the
// canonical clock for the pair.
type AlignedObservation struct {
	AssetID   string        `json:"asset_id"`
	Timestamp time.Time     `json:"timestamp"`
	Motion    *MotionSample `json:"motion"`
	Load      *LoadSample   `json:"load"`
}

// ClockSkew is the signed gap between the two samples' timestamps.
func (o *AlignedObservation) ClockSkew() time.Duration {
	return o.Motion.Timestamp.Sub(o.Load.Timestamp)
}

// AlignmentDiagnostics reports per-call join quality for one asset.
type AlignmentDiagnostics struct {
	AssetID          string `json:"asset_id"`
	MotionSamples    int    `json:"motion_samples"`
	LoadSamples      int    `json:"load_samples"`
	Aligned          int    `json:"aligned"`
	UnmatchedMotion  int    `json:"unmatched_motion"`
	DuplicatesMerged int    `json:"duplicates_merged"`
}
