package rollup

import (
	"fmt"
	"sort"
	"time"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

// Aggregator rolls asset-level summaries up the asset → site →
// portfolio hierarchy. It is a pure reduction over already-computed
// child rows: recomputing parent metrics from raw data would risk
// drift from differing bucket boundary handling, so summing children
// is the only permitted implementation.
type Aggregator struct{}

func New() *Aggregator {
	return &Aggregator{}
}

type groupKey struct {
	modelName string
	bucket    time.Time
	size      time.Duration
	scopeID   string
}

// RollUp sums asset rows into site rows and site rows into portfolio
// rows for matching model and bucket. The reduction is associative and
// commutative; input order never changes the result. An asset missing
// from the hierarchy is an error, not a silent omission — dropping it
// would break the additive invariant.
func (a *Aggregator) RollUp(assetRows []models.RollupSummary, h *models.Hierarchy) ([]models.RollupSummary, error) {
	siteRows, err := a.reduce(assetRows, models.ScopeSite, func(scopeID string) (string, bool) {
		return h.SiteOf(scopeID)
	})
	if err != nil {
		return nil, fmt.Errorf("asset -> site rollup: %w", err)
	}

	portfolioRows, err := a.reduce(siteRows, models.ScopePortfolio, func(scopeID string) (string, bool) {
		return h.PortfolioOf(scopeID)
	})
	if err != nil {
		return nil, fmt.Errorf("site -> portfolio rollup: %w", err)
	}

	return append(siteRows, portfolioRows...), nil
}

func (a *Aggregator) reduce(
	children []models.RollupSummary,
	level models.ScopeLevel,
	parentOf func(string) (string, bool),
) ([]models.RollupSummary, error) {
	groups := make(map[groupKey]*models.RollupSummary)

	for _, child := range children {
		parentID, ok := parentOf(child.ScopeID)
		if !ok {
			return nil, fmt.Errorf("scope %s has no parent in hierarchy", child.ScopeID)
		}

		key := groupKey{
			modelName: child.ModelName,
			bucket:    child.Bucket.Start,
			size:      child.Bucket.Size,
			scopeID:   parentID,
		}

		row, ok := groups[key]
		if !ok {
			row = &models.RollupSummary{
				ModelName: child.ModelName,
				Level:     level,
				ScopeID:   parentID,
				Bucket:    child.Bucket,
				RunID:     child.RunID,
			}
			groups[key] = row
		}

		row.Counts = row.Counts.Add(child.Counts)
		row.DollarValue += child.DollarValue
	}

	rows := make([]models.RollupSummary, 0, len(groups))
	for _, row := range groups {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ModelName != rows[j].ModelName {
			return rows[i].ModelName < rows[j].ModelName
		}
		if !rows[i].Bucket.Start.Equal(rows[j].Bucket.Start) {
			return rows[i].Bucket.Start.Before(rows[j].Bucket.Start)
		}
		return rows[i].ScopeID < rows[j].ScopeID
	})

	return rows, nil
}

// AssetSummaries folds per-asset reconciliation results and attributed
// values into asset-level rollup rows, the input shape RollUp expects.
func AssetSummaries(
	modelName string,
	results []models.ReconciliationResult,
	values []models.AttributedValue,
	runID string,
) []models.RollupSummary {
	groups := make(map[groupKey]*models.RollupSummary)

	rowFor := func(scopeID string, bucket models.TimeBucket) *models.RollupSummary {
		key := groupKey{modelName: modelName, bucket: bucket.Start, size: bucket.Size, scopeID: scopeID}
		row, ok := groups[key]
		if !ok {
			row = &models.RollupSummary{
				ModelName: modelName,
				Level:     models.ScopeAsset,
				ScopeID:   scopeID,
				Bucket:    bucket,
				RunID:     runID,
			}
			groups[key] = row
		}
		return row
	}

	for _, res := range results {
		if res.Unlabeled {
			continue
		}
		row := rowFor(res.Scope.ID, res.Bucket)
		for _, rec := range res.Records {
			row.Counts.Set(rec.Category, row.Counts.Get(rec.Category)+rec.Count)
		}
	}

	for _, v := range values {
		rowFor(v.Scope.ID, v.Bucket).DollarValue += v.Amount
	}

	rows := make([]models.RollupSummary, 0, len(groups))
	for _, row := range groups {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Bucket.Start.Equal(rows[j].Bucket.Start) {
			return rows[i].Bucket.Start.Before(rows[j].Bucket.Start)
		}
		return rows[i].ScopeID < rows[j].ScopeID
	})
	return rows
}
