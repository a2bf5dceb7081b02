package events

import (
	"fmt"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) RunStarted(run *models.EngineRun) {
	event := models.NewEvent(models.EventTypeRunStarted, run.ModelName, "Run started").
		WithRun(run.ID).
		WithData(run)
	p.publish(event)
}

func (p *Publisher) RunCompleted(report *models.RunReport) {
	msg := fmt.Sprintf("Run completed: %d episodes", len(report.Episodes))
	event := models.NewEvent(models.EventTypeRunCompleted, report.Run.ModelName, msg).
		WithRun(report.Run.ID).
		WithData(map[string]interface{}{
			"episodes":     len(report.Episodes),
			"asset_errors": len(report.AssetErrors),
			"status":       report.Run.Status,
		})

	if report.HasFailures() {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) RunFailed(run *models.EngineRun, err error) {
	event := models.NewEvent(models.EventTypeRunFailed, run.ModelName, "Run failed: "+err.Error()).
		WithRun(run.ID).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) EpisodeDetected(runID string, episode *models.AnomalyEpisode) {
	msg := fmt.Sprintf("Episode on %s: %.1f gal est. waste", episode.AssetID, episode.FuelWasteGal)
	event := models.NewEvent(models.EventTypeEpisodeDetected, episode.ModelName, msg).
		WithRun(runID).
		WithAsset(episode.AssetID).
		WithData(episode)
	p.publish(event)
}

func (p *Publisher) OutcomesReconciled(runID, modelName string, results []models.ReconciliationResult) {
	msg := fmt.Sprintf("Reconciled %d buckets", len(results))
	event := models.NewEvent(models.EventTypeOutcomesReconciled, modelName, msg).
		WithRun(runID).
		WithData(map[string]interface{}{
			"buckets": len(results),
		})
	p.publish(event)
}

func (p *Publisher) ValueAttributed(runID, modelName string, net float64) {
	msg := fmt.Sprintf("Net value $%.2f", net)
	event := models.NewEvent(models.EventTypeValueAttributed, modelName, msg).
		WithRun(runID).
		WithData(map[string]interface{}{
			"net_value": net,
		})

	if net < 0 {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) ThresholdSelected(runID string, curve *models.ProfitCurve) {
	msg := fmt.Sprintf("Optimal threshold %.2f ($%.2f/day)", curve.OptimalThreshold, curve.OptimalValue)
	event := models.NewEvent(models.EventTypeThresholdSelected, curve.ModelName, msg).
		WithRun(runID).
		WithData(map[string]interface{}{
			"threshold": curve.OptimalThreshold,
			"net_daily": curve.OptimalValue,
			"points":    len(curve.Points),
		})
	p.publish(event)
}

func (p *Publisher) Alert(modelName string, severity models.EventSeverity, message string, data interface{}) {
	event := models.NewEvent(models.EventTypeAlert, modelName, message).
		WithSeverity(severity).
		WithData(data)
	p.publish(event)
}

func (p *Publisher) Error(modelName string, message string, err error) {
	event := models.NewEvent(models.EventTypeError, modelName, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
