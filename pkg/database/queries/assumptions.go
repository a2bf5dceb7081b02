package queries

import (
	"context"
	"database/sql"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

type AssumptionRepository struct {
	db *sql.DB
}

func NewAssumptionRepository(db *sql.DB) *AssumptionRepository {
	return &AssumptionRepository{db: db}
}

// ForModel returns every cost assumption row recorded for the model,
// including superseded versions. Effective-date filtering happens in
// the attribution engine, which needs the full history for re-runs over
// past windows.
func (r *AssumptionRepository) ForModel(ctx context.Context, modelName string) ([]models.CostAssumption, error) {
	query := `
		SELECT model_name, category, cost_category, unit_cost, units_per_event, sign, effective_from, effective_to
		FROM cost_assumptions
		WHERE model_name = $1
		ORDER BY category, effective_from`

	rows, err := r.db.QueryContext(ctx, query, modelName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CostAssumption
	for rows.Next() {
		var a models.CostAssumption
		var effectiveTo sql.NullTime
		if err := rows.Scan(&a.ModelName, &a.Category, &a.CostCategory, &a.UnitCost, &a.UnitsPerEvent, &a.Sign, &a.EffectiveFrom, &effectiveTo); err != nil {
			return nil, err
		}
		if effectiveTo.Valid {
			t := effectiveTo.Time
			a.EffectiveTo = &t
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

// Insert appends a new assumption version. The table is append-only:
// corrections close the old row's effective range via a fresh row, and
// completed runs keep pointing at the rows they were computed with.
func (r *AssumptionRepository) Insert(ctx context.Context, a *models.CostAssumption) error {
	query := `
		INSERT INTO cost_assumptions (model_name, category, cost_category, unit_cost, units_per_event, sign, effective_from, effective_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var effectiveTo interface{}
	if a.EffectiveTo != nil {
		effectiveTo = *a.EffectiveTo
	}

	_, err := r.db.ExecContext(ctx, query,
		a.ModelName, a.Category, a.CostCategory, a.UnitCost, a.UnitsPerEvent, a.Sign, a.EffectiveFrom, effectiveTo)
	return err
}
