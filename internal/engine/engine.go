package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/OldStager01/fleet-value-engine/internal/aligner"
	"github.com/OldStager01/fleet-value-engine/internal/attribution"
	"github.com/OldStager01/fleet-value-engine/internal/classifier"
	"github.com/OldStager01/fleet-value-engine/internal/events"
	"github.com/OldStager01/fleet-value-engine/internal/logger"
	"github.com/OldStager01/fleet-value-engine/internal/metrics"
	"github.com/OldStager01/fleet-value-engine/internal/reconciler"
	"github.com/OldStager01/fleet-value-engine/internal/rollup"
	"github.com/OldStager01/fleet-value-engine/internal/source"
	"github.com/OldStager01/fleet-value-engine/internal/sweep"
	"github.com/OldStager01/fleet-value-engine/pkg/config"
	"github.com/OldStager01/fleet-value-engine/pkg/database/queries"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

// Engine orchestrates one full pipeline run per model: fetch, align,
// classify, reconcile, attribute, roll up, sweep, persist. Per-asset
// failures are isolated; a bad asset degrades the run to partial
// instead of aborting it.
type Engine struct {
	config     *config.Config
	source     source.Source
	aligner    *aligner.Aligner
	classifier *classifier.Classifier
	reconciler *reconciler.Reconciler
	aggregator *rollup.Aggregator
	publisher  *events.Publisher

	// results is nil in simulator-only mode; runs then live in memory.
	results *queries.ResultRepository
}

func New(cfg *config.Config, src source.Source, publisher *events.Publisher, results *queries.ResultRepository) *Engine {
	return &Engine{
		config: cfg,
		source: src,
		aligner: aligner.New(aligner.Config{
			Tolerance: cfg.Aligner.Tolerance,
		}),
		classifier: classifier.New(classifier.Config{
			MinEpisodeLength: cfg.Classifier.MinEpisodeLength,
			MaxGap:           cfg.Classifier.MaxGap,
			WasteFactor:      cfg.Classifier.WasteFactor,
		}),
		reconciler: reconciler.New(reconciler.Config{
			MinOverlapFraction: cfg.Reconciler.MinOverlapFraction,
			BucketSize:         cfg.Engine.BucketSize,
		}),
		aggregator: rollup.New(),
		publisher:  publisher,
		results:    results,
	}
}

// RuleFor maps a model declaration onto its classifier rule.
func RuleFor(mc config.ModelConfig) (classifier.Rule, error) {
	switch mc.Kind {
	case config.ModelKindGhostCycle:
		return classifier.GhostCycleRule(mc.Name, mc.SpeedThresholdMPH, mc.LoadThresholdPct), nil
	case config.ModelKindChokePoint:
		return classifier.ChokePointRule(mc.Name, mc.SpeedThresholdMPH, mc.ZoneGridDeg), nil
	}
	return classifier.Rule{}, fmt.Errorf("unknown model kind %q for model %s", mc.Kind, mc.Name)
}

// RunAll executes every configured model over the trailing window.
func (e *Engine) RunAll(ctx context.Context) ([]*models.RunReport, error) {
	windowEnd := time.Now().UTC().Truncate(e.config.Engine.BucketSize)
	windowStart := windowEnd.Add(-e.config.Engine.WindowLength)

	reports := make([]*models.RunReport, 0, len(e.config.Models))
	for _, mc := range e.config.Models {
		report, err := e.Run(ctx, mc, windowStart, windowEnd)
		if err != nil {
			return reports, fmt.Errorf("model %s: %w", mc.Name, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

type assetResult struct {
	assetID      string
	observations []models.AlignedObservation
	episodes     []models.AnomalyEpisode
	diagnostics  models.AlignmentDiagnostics
	err          *models.AssetError
}

// Run executes the pipeline for one model over [windowStart, windowEnd).
// The returned report is complete even on partial runs; the error is
// non-nil only for run-level failures (fetch, attribution, rollup,
// persistence).
func (e *Engine) Run(ctx context.Context, mc config.ModelConfig, windowStart, windowEnd time.Time) (*models.RunReport, error) {
	rule, err := RuleFor(mc)
	if err != nil {
		return nil, err
	}

	run := models.EngineRun{
		ID:          models.NewUUID(),
		ModelName:   mc.Name,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Status:      models.RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	if e.results != nil {
		if err := e.results.CreateRun(ctx, &run); err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
	}
	if e.publisher != nil {
		e.publisher.RunStarted(&run)
	}

	started := time.Now()
	report, err := e.execute(ctx, rule, mc, &run)
	metrics.Get().SetRunLatency(mc.Name, time.Since(started))
	if err != nil {
		metrics.Get().IncRunErrors(mc.Name)
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
		if e.results != nil {
			if finishErr := e.results.FinishRun(ctx, run.ID, run.Status, run.Error); finishErr != nil {
				logger.Errorf("Failed to mark run %s failed: %v", run.ID, finishErr)
			}
		}
		if e.publisher != nil {
			e.publisher.RunFailed(&run, err)
		}
		return nil, err
	}

	if e.results != nil {
		if err := e.results.SaveReport(ctx, report); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}
		if err := e.results.FinishRun(ctx, run.ID, report.Run.Status, ""); err != nil {
			return nil, fmt.Errorf("finish run: %w", err)
		}
		if err := e.results.SetCurrentRun(ctx, mc.Name, run.ID); err != nil {
			return nil, fmt.Errorf("set current run: %w", err)
		}
	}

	e.recordMetrics(mc.Name, report)
	if e.publisher != nil {
		e.publisher.RunCompleted(report)
	}

	return report, nil
}

func (e *Engine) recordMetrics(model string, report *models.RunReport) {
	m := metrics.Get()
	m.IncRuns(model)
	m.AddAssetErrors(model, len(report.AssetErrors))
	m.AddEpisodes(model, len(report.Episodes))
	m.SetNetValue(model, models.NetValue(report.Values))

	var unmatched int
	for _, d := range report.Diagnostics {
		unmatched += d.UnmatchedMotion
	}
	m.SetUnmatchedMotion(model, unmatched)

	for _, res := range report.Outcomes {
		if res.Unlabeled {
			continue
		}
		for _, rec := range res.Records {
			if rec.Count > 0 {
				m.AddOutcomes(model, string(rec.Category), rec.Count)
			}
		}
	}

	if report.Curve != nil {
		m.SetOptimalThreshold(model, report.Curve.OptimalThreshold)
	}
}

func (e *Engine) execute(ctx context.Context, rule classifier.Rule, mc config.ModelConfig, run *models.EngineRun) (*models.RunReport, error) {
	assets, err := e.source.Assets(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch assets: %w", err)
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("no assets registered")
	}

	hierarchy, err := e.source.Hierarchy(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch hierarchy: %w", err)
	}

	assetIDs := make([]string, len(assets))
	for i, a := range assets {
		assetIDs[i] = a.ID
	}
	sort.Strings(assetIDs)

	motion, err := e.source.MotionSamples(ctx, assetIDs, run.WindowStart, run.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch motion samples: %w", err)
	}
	load, err := e.source.LoadSamples(ctx, assetIDs, run.WindowStart, run.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch load samples: %w", err)
	}
	labels, err := e.source.GroundTruth(ctx, assetIDs, run.WindowStart, run.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch ground truth: %w", err)
	}
	assumptions, err := e.source.CostAssumptions(ctx, mc.Name)
	if err != nil {
		return nil, fmt.Errorf("fetch cost assumptions: %w", err)
	}

	perAsset := e.processAssets(rule, assetIDs, motion, load)

	report := &models.RunReport{Run: *run}
	observations := make(map[string][]models.AlignedObservation, len(perAsset))

	var allRecords []models.OutcomeRecord
	for _, res := range perAsset {
		if res.err != nil {
			report.AssetErrors = append(report.AssetErrors, *res.err)
			continue
		}
		report.Diagnostics = append(report.Diagnostics, res.diagnostics)
		observations[res.assetID] = res.observations

		for i := range res.episodes {
			res.episodes[i].RunID = run.ID
		}
		report.Episodes = append(report.Episodes, res.episodes...)

		scope := models.Scope{Level: models.ScopeAsset, ID: res.assetID}
		results := e.reconciler.Reconcile(mc.Name, scope, run.WindowStart, run.WindowEnd, res.episodes, labels[res.assetID])
		for ri := range results {
			for i := range results[ri].Records {
				results[ri].Records[i].RunID = run.ID
			}
			allRecords = append(allRecords, results[ri].Records...)
		}
		report.Outcomes = append(report.Outcomes, results...)
	}

	if len(report.AssetErrors) == len(assetIDs) {
		return nil, fmt.Errorf("all %d assets failed", len(assetIDs))
	}

	if e.publisher != nil {
		for i := range report.Episodes {
			e.publisher.EpisodeDetected(run.ID, &report.Episodes[i])
		}
		e.publisher.OutcomesReconciled(run.ID, mc.Name, report.Outcomes)
	}

	attributor := attribution.New(assumptions)
	values, err := attributor.Attribute(allRecords)
	if err != nil {
		return nil, fmt.Errorf("attribute outcomes: %w", err)
	}
	report.Values = values
	if e.publisher != nil {
		e.publisher.ValueAttributed(run.ID, mc.Name, models.NetValue(values))
	}

	assetRows := rollup.AssetSummaries(mc.Name, report.Outcomes, values, run.ID)
	parentRows, err := e.aggregator.RollUp(assetRows, hierarchy)
	if err != nil {
		return nil, fmt.Errorf("roll up: %w", err)
	}
	report.Rollups = append(assetRows, parentRows...)

	if mc.Kind == config.ModelKindGhostCycle {
		report.Curve = e.sweepCurve(rule, mc, run, assumptions, observations, labels)
	}

	report.Run.Status = models.RunStatusCompleted
	if report.HasFailures() {
		report.Run.Status = models.RunStatusPartial
	}
	now := time.Now().UTC()
	report.Run.CompletedAt = &now

	return report, nil
}

// processAssets aligns and classifies each asset on a bounded worker
// pool. Failures land in the result as AssetErrors.
func (e *Engine) processAssets(
	rule classifier.Rule,
	assetIDs []string,
	motion map[string][]models.MotionSample,
	load map[string][]models.LoadSample,
) []assetResult {
	workers := e.config.Engine.Workers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan int)
	results := make([]assetResult, len(assetIDs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				assetID := assetIDs[i]
				results[i] = e.processAsset(rule, assetID, motion[assetID], load[assetID])
			}
		}()
	}

	for i := range assetIDs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (e *Engine) processAsset(
	rule classifier.Rule,
	assetID string,
	motion []models.MotionSample,
	load []models.LoadSample,
) assetResult {
	observations, diag, err := e.aligner.Align(assetID, motion, load)
	if err != nil {
		logger.WithAsset(assetID).Errorf("Alignment failed: %v", err)
		return assetResult{
			assetID: assetID,
			err:     &models.AssetError{AssetID: assetID, Stage: "align", Message: err.Error()},
		}
	}

	episodes := e.classifier.Episodes(rule, observations)
	return assetResult{
		assetID:      assetID,
		observations: observations,
		episodes:     episodes,
		diagnostics:  diag,
	}
}

// sweepCurve runs the threshold sweep over the already-aligned
// observations. Sweep failures degrade the run, never abort it: the
// episodes and values above stand on their own.
func (e *Engine) sweepCurve(
	rule classifier.Rule,
	mc config.ModelConfig,
	run *models.EngineRun,
	assumptions []models.CostAssumption,
	observations map[string][]models.AlignedObservation,
	labels map[string][]models.GroundTruthLabel,
) *models.ProfitCurve {
	sweeper := sweep.New(e.classifier, e.reconciler, attribution.New(assumptions))
	ds := sweep.Dataset{
		ModelName:    mc.Name,
		Scope:        models.Scope{Level: models.ScopePortfolio, ID: "fleet"},
		WindowStart:  run.WindowStart,
		WindowEnd:    run.WindowEnd,
		Observations: observations,
		Labels:       labels,
	}

	curve, err := sweeper.Sweep(classifier.LoadFractionFamily{Base: rule}, ds, e.config.ThresholdGrid())
	if err != nil {
		logger.WithModel(mc.Name).Warnf("Threshold sweep skipped: %v", err)
		if e.publisher != nil {
			e.publisher.Alert(mc.Name, models.SeverityWarning, "Threshold sweep skipped", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil
	}

	curve.RunID = run.ID
	for i := range curve.Points {
		curve.Points[i].RunID = run.ID
	}
	if e.publisher != nil {
		e.publisher.ThresholdSelected(run.ID, curve)
	}
	return curve
}
