package models

import "time"

type EventType string

const (
	EventTypeRunStarted          EventType = "run_started"
	EventTypeRunCompleted        EventType = "run_completed"
	EventTypeRunFailed           EventType = "run_failed"
	EventTypeEpisodeDetected     EventType = "episode_detected"
	EventTypeOutcomesReconciled  EventType = "outcomes_reconciled"
	EventTypeValueAttributed     EventType = "value_attributed"
	EventTypeThresholdSelected   EventType = "threshold_selected"
	EventTypeAlert               EventType = "alert"
	EventTypeError               EventType = "error"
)

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event represents an internal engine event
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Severity  EventSeverity `json:"severity"`
	ModelName string        `json:"model_name,omitempty"`
	AssetID   string        `json:"asset_id,omitempty"`
	RunID     string        `json:"run_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Data      interface{}   `json:"data,omitempty"`
	TraceID   string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, modelName, message string) *Event {
	return &Event{
		ID:        NewUUID(),
		Type:      eventType,
		Severity:  SeverityInfo,
		ModelName: modelName,
		Timestamp: time.Now(),
		Message:   message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func (e *Event) WithAsset(assetID string) *Event {
	e.AssetID = assetID
	return e
}

func (e *Event) WithRun(runID string) *Event {
	e.RunID = runID
	return e
}

func (e *Event) WithTraceID(traceID string) *Event {
	e.TraceID = traceID
	return e
}
