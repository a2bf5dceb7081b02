package sweep

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/OldStager01/fleet-value-engine/internal/attribution"
	"github.com/OldStager01/fleet-value-engine/internal/classifier"
	"github.com/OldStager01/fleet-value-engine/internal/logger"
	"github.com/OldStager01/fleet-value-engine/internal/reconciler"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

// ErrUnlabeledDataset means the evaluation window carries no ground
// truth at all, so no profit curve can be computed.
var ErrUnlabeledDataset = errors.New("sweep: evaluation dataset has no ground truth labels")

// InvalidThresholdGridError rejects empty or non-strictly-monotonic
// sweep grids. Fatal to the sweep call only.
type InvalidThresholdGridError struct {
	Grid   []float64
	Reason string
}

func (e *InvalidThresholdGridError) Error() string {
	return fmt.Sprintf("invalid threshold grid %v: %s", e.Grid, e.Reason)
}

// Dataset is the labeled evaluation input. Observations are aligned
// once by the caller and shared across every threshold: re-running
// classification is the only per-threshold cost.
type Dataset struct {
	ModelName    string
	Scope        models.Scope
	WindowStart  time.Time
	WindowEnd    time.Time
	Observations map[string][]models.AlignedObservation
	Labels       map[string][]models.GroundTruthLabel
}

// Sweeper evaluates the classify→reconcile→attribute pipeline across a
// threshold grid and selects the value-maximizing operating point.
type Sweeper struct {
	classifier  *classifier.Classifier
	reconciler  *reconciler.Reconciler
	attribution *attribution.Engine
}

func New(cl *classifier.Classifier, rc *reconciler.Reconciler, at *attribution.Engine) *Sweeper {
	return &Sweeper{classifier: cl, reconciler: rc, attribution: at}
}

// Sweep produces one profit curve point per grid threshold. The grid
// must be strictly monotonic (ascending or descending); it is
// normalized to ascending order internally, so a reversed grid selects
// the same optimum. Ties on net daily value prefer the lower
// threshold: fewer false alarms at equal value.
func (s *Sweeper) Sweep(family classifier.Family, ds Dataset, grid []float64) (*models.ProfitCurve, error) {
	thresholds, err := normalizeGrid(grid)
	if err != nil {
		return nil, err
	}

	labeled := false
	for _, labels := range ds.Labels {
		if len(labels) > 0 {
			labeled = true
			break
		}
	}
	if !labeled {
		return nil, ErrUnlabeledDataset
	}

	windowDays := ds.WindowEnd.Sub(ds.WindowStart).Hours() / 24
	if windowDays <= 0 {
		return nil, fmt.Errorf("sweep: empty evaluation window [%s, %s]", ds.WindowStart, ds.WindowEnd)
	}

	curve := &models.ProfitCurve{
		ModelName: ds.ModelName,
		Scope:     ds.Scope,
		Points:    make([]models.ProfitCurvePoint, 0, len(thresholds)),
	}

	for _, threshold := range thresholds {
		point, err := s.evaluate(family.Apply(threshold), ds, threshold, windowDays)
		if err != nil {
			return nil, fmt.Errorf("sweep at threshold %.4f: %w", threshold, err)
		}
		curve.Points = append(curve.Points, *point)
	}

	// Points are in ascending threshold order, so a strict > keeps the
	// lowest threshold on ties.
	best := curve.Points[0]
	for _, p := range curve.Points[1:] {
		if p.NetDailyValue > best.NetDailyValue {
			best = p
		}
	}
	curve.OptimalThreshold = best.Threshold
	curve.OptimalValue = best.NetDailyValue

	logger.WithModel(ds.ModelName).Infof(
		"Sweep complete: %d thresholds, optimal=%.4f (net daily $%.2f)",
		len(curve.Points), curve.OptimalThreshold, curve.OptimalValue,
	)

	return curve, nil
}

func (s *Sweeper) evaluate(
	rule classifier.Rule,
	ds Dataset,
	threshold float64,
	windowDays float64,
) (*models.ProfitCurvePoint, error) {
	var episodes []models.AnomalyEpisode
	var labels []models.GroundTruthLabel

	assetIDs := make([]string, 0, len(ds.Observations))
	for assetID := range ds.Observations {
		assetIDs = append(assetIDs, assetID)
	}
	sort.Strings(assetIDs)

	for _, assetID := range assetIDs {
		episodes = append(episodes, s.classifier.Episodes(rule, ds.Observations[assetID])...)
		labels = append(labels, ds.Labels[assetID]...)
	}

	results := s.reconciler.Reconcile(ds.ModelName, ds.Scope, ds.WindowStart, ds.WindowEnd, episodes, labels)

	var counts models.OutcomeCounts
	var records []models.OutcomeRecord
	for _, res := range results {
		for _, rec := range res.Records {
			counts.Set(rec.Category, counts.Get(rec.Category)+rec.Count)
			records = append(records, rec)
		}
	}

	values, err := s.attribution.Attribute(records)
	if err != nil {
		return nil, err
	}

	point := &models.ProfitCurvePoint{
		ModelName:     ds.ModelName,
		Scope:         ds.Scope,
		Threshold:     threshold,
		TruePositives: counts.TruePositives,
		FalsePositive: counts.FalsePositives,
		FalseNegative: counts.FalseNegatives,
		NetDailyValue: models.NetValue(values) / windowDays,
	}

	if denom := counts.TruePositives + counts.FalseNegatives; denom > 0 {
		point.TPRate = float64(counts.TruePositives) / float64(denom)
	}
	if denom := counts.FalsePositives + counts.TrueNegatives; denom > 0 {
		point.FPRate = float64(counts.FalsePositives) / float64(denom)
	}

	return point, nil
}

func normalizeGrid(grid []float64) ([]float64, error) {
	if len(grid) == 0 {
		return nil, &InvalidThresholdGridError{Grid: grid, Reason: "empty grid"}
	}
	if len(grid) == 1 {
		return []float64{grid[0]}, nil
	}

	ascending := grid[1] > grid[0]
	for i := 1; i < len(grid); i++ {
		if grid[i] == grid[i-1] {
			return nil, &InvalidThresholdGridError{Grid: grid, Reason: "duplicate threshold"}
		}
		if ascending && grid[i] < grid[i-1] || !ascending && grid[i] > grid[i-1] {
			return nil, &InvalidThresholdGridError{Grid: grid, Reason: "not strictly monotonic"}
		}
	}

	thresholds := make([]float64, len(grid))
	copy(thresholds, grid)
	if !ascending {
		for i, j := 0, len(thresholds)-1; i < j; i, j = i+1, j-1 {
			thresholds[i], thresholds[j] = thresholds[j], thresholds[i]
		}
	}
	return thresholds, nil
}

// Grid builds an inclusive [from, to] grid with the given step, the
// stock 0.05-increment sweep when callers pass no explicit list.
func Grid(from, to, step float64) []float64 {
	if step <= 0 || to < from {
		return nil
	}
	var grid []float64
	// Index-multiplied steps keep the grid free of accumulated float
	// error, so re-running a sweep reproduces bit-identical thresholds.
	for i := 0; ; i++ {
		v := from + float64(i)*step
		if v > to+step/1e9 {
			break
		}
		grid = append(grid, v)
	}
	return grid
}
