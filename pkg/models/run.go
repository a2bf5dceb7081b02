package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// EngineRun identifies one versioned pipeline execution. All persisted
// outputs carry the run id; writes are insert-only.
type EngineRun struct {
	ID          string     `json:"id"`
	ModelName   string     `json:"model_name"`
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// AssetError records a per-asset pipeline failure. Failures are
// isolated: one bad asset never aborts the rest of the run.
type AssetError struct {
	AssetID string `json:"asset_id"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// RunReport is the in-memory result of a run: successful outputs plus
// the failures that were isolated along the way.
type RunReport struct {
	Run         EngineRun              `json:"run"`
	Episodes    []AnomalyEpisode       `json:"episodes"`
	Outcomes    []ReconciliationResult `json:"outcomes"`
	Values      []AttributedValue      `json:"values"`
	Rollups     []RollupSummary        `json:"rollups"`
	Curve       *ProfitCurve           `json:"curve,omitempty"`
	Diagnostics []AlignmentDiagnostics `json:"diagnostics"`
	AssetErrors []AssetError           `json:"asset_errors"`
}

func (r *RunReport) HasFailures() bool {
	return len(r.AssetErrors) > 0
}
