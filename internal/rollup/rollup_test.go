package rollup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

var bucket = models.TimeBucket{
	Start: time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
	Size:  time.Hour,
}

func hierarchy() *models.Hierarchy {
	return &models.Hierarchy{
		AssetSite: map[string]string{
			"T-101": "north-pit",
			"T-102": "north-pit",
			"T-201": "south-pit",
		},
		SitePortfolio: map[string]string{
			"north-pit": "fleet",
			"south-pit": "fleet",
		},
	}
}

func assetRow(assetID string, counts models.OutcomeCounts, dollars float64) models.RollupSummary {
	return models.RollupSummary{
		ModelName:   "ghost_cycle",
		Level:       models.ScopeAsset,
		ScopeID:     assetID,
		Bucket:      bucket,
		Counts:      counts,
		DollarValue: dollars,
		RunID:       "run-1",
	}
}

func findRow(t *testing.T, rows []models.RollupSummary, level models.ScopeLevel, scopeID string) models.RollupSummary {
	t.Helper()
	for _, row := range rows {
		if row.Level == level && row.ScopeID == scopeID {
			return row
		}
	}
	t.Fatalf("no %s row for scope %s", level, scopeID)
	return models.RollupSummary{}
}

func TestRollUpIsAdditive(t *testing.T) {
	a := New()

	assetRows := []models.RollupSummary{
		assetRow("T-101", models.OutcomeCounts{TruePositives: 2, FalsePositives: 1}, 120.50),
		assetRow("T-102", models.OutcomeCounts{TruePositives: 1, FalseNegatives: 1}, -45.25),
		assetRow("T-201", models.OutcomeCounts{TrueNegatives: 3}, 10.00),
	}

	rows, err := a.RollUp(assetRows, hierarchy())
	require.NoError(t, err)

	north := findRow(t, rows, models.ScopeSite, "north-pit")
	assert.Equal(t, 3, north.Counts.TruePositives)
	assert.Equal(t, 1, north.Counts.FalsePositives)
	assert.Equal(t, 1, north.Counts.FalseNegatives)
	assert.InDelta(t, 75.25, north.DollarValue, 1e-6)

	south := findRow(t, rows, models.ScopeSite, "south-pit")
	assert.Equal(t, 3, south.Counts.TrueNegatives)
	assert.InDelta(t, 10.00, south.DollarValue, 1e-6)

	// Portfolio row equals the sum of its site rows, which equals the
	// sum of the asset rows.
	portfolio := findRow(t, rows, models.ScopePortfolio, "fleet")
	assert.Equal(t, 3, portfolio.Counts.TruePositives)
	assert.InDelta(t, 85.25, portfolio.DollarValue, 1e-6)
	assert.InDelta(t, north.DollarValue+south.DollarValue, portfolio.DollarValue, 1e-6)
}

func TestRollUpOrderIndependent(t *testing.T) {
	a := New()

	assetRows := []models.RollupSummary{
		assetRow("T-101", models.OutcomeCounts{TruePositives: 2}, 100),
		assetRow("T-102", models.OutcomeCounts{FalsePositives: 1}, -40),
		assetRow("T-201", models.OutcomeCounts{TrueNegatives: 5}, 0),
	}
	reversed := []models.RollupSummary{assetRows[2], assetRows[1], assetRows[0]}

	forward, err := a.RollUp(assetRows, hierarchy())
	require.NoError(t, err)
	backward, err := a.RollUp(reversed, hierarchy())
	require.NoError(t, err)

	assert.Equal(t, forward, backward)
}

func TestRollUpGroupsByBucket(t *testing.T) {
	a := New()

	later := bucket
	later.Start = bucket.Start.Add(time.Hour)

	first := assetRow("T-101", models.OutcomeCounts{TruePositives: 1}, 50)
	second := assetRow("T-101", models.OutcomeCounts{TruePositives: 2}, 75)
	second.Bucket = later

	rows, err := a.RollUp([]models.RollupSummary{first, second}, hierarchy())
	require.NoError(t, err)

	siteRows := 0
	for _, row := range rows {
		if row.Level == models.ScopeSite {
			siteRows++
		}
	}
	// Different buckets never merge.
	assert.Equal(t, 2, siteRows)
}

func TestRollUpMissingParentFails(t *testing.T) {
	a := New()

	assetRows := []models.RollupSummary{
		assetRow("T-999", models.OutcomeCounts{TruePositives: 1}, 10),
	}

	_, err := a.RollUp(assetRows, hierarchy())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "T-999")
}

func TestAssetSummariesFoldsResultsAndValues(t *testing.T) {
	scope := models.Scope{Level: models.ScopeAsset, ID: "T-101"}

	results := []models.ReconciliationResult{{
		Scope:  scope,
		Bucket: bucket,
		Records: []models.OutcomeRecord{
			{ModelName: "ghost_cycle", Bucket: bucket, Scope: scope, Category: models.OutcomeTruePositive, Count: 2},
			{ModelName: "ghost_cycle", Bucket: bucket, Scope: scope, Category: models.OutcomeFalsePositive, Count: 1},
		},
	}}
	values := []models.AttributedValue{
		{ModelName: "ghost_cycle", Bucket: bucket, Scope: scope, Category: models.OutcomeTruePositive, Amount: 494.00},
		{ModelName: "ghost_cycle", Bucket: bucket, Scope: scope, Category: models.OutcomeFalsePositive, Amount: -60.00},
	}

	rows := AssetSummaries("ghost_cycle", results, values, "run-1")
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, models.ScopeAsset, row.Level)
	assert.Equal(t, "T-101", row.ScopeID)
	assert.Equal(t, 2, row.Counts.TruePositives)
	assert.Equal(t, 1, row.Counts.FalsePositives)
	assert.InDelta(t, 434.00, row.DollarValue, 1e-6)
	assert.Equal(t, "run-1", row.RunID)
}

func TestAssetSummariesSkipsUnlabeled(t *testing.T) {
	scope := models.Scope{Level: models.ScopeAsset, ID: "T-101"}

	results := []models.ReconciliationResult{{
		Scope:     scope,
		Bucket:    bucket,
		Unlabeled: true,
	}}

	rows := AssetSummaries("ghost_cycle", results, nil, "run-1")
	assert.Empty(t, rows)
}
