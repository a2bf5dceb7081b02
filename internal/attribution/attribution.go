package attribution

import (
	"fmt"
	"time"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

// MissingAssumptionError means no cost assumption covered an outcome
// that needed attributing. Attribution never silently defaults to a
// zero cost; a gap in the cost table is reported, not guessed around.
type MissingAssumptionError struct {
	ModelName string
	Category  models.OutcomeCategory
	At        time.Time
}

func (e *MissingAssumptionError) Error() string {
	return fmt.Sprintf(
		"no cost assumption covers model %s, outcome %s at %s",
		e.ModelName, e.Category, e.At.Format("2006-01-02"),
	)
}

// Engine maps outcome counts to dollars under a versioned cost table.
// The table is append-only reference data; the engine picks the rows
// whose effective range covers each record's bucket.
type Engine struct {
	assumptions []models.CostAssumption
}

func New(assumptions []models.CostAssumption) *Engine {
	return &Engine{assumptions: assumptions}
}

// Attribute computes count × unit_cost × units_per_event per matching
// cost category, signed by the assumption's convention. Amounts are
// stored under the outcome's own category, never pre-netted; net value
// is models.NetValue, derived on read.
func (e *Engine) Attribute(records []models.OutcomeRecord) ([]models.AttributedValue, error) {
	var values []models.AttributedValue

	for _, rec := range records {
		if rec.Count == 0 {
			continue
		}

		matched := false
		for i := range e.assumptions {
			a := &e.assumptions[i]
			if a.ModelName != rec.ModelName || a.Category != rec.Category {
				continue
			}
			if !a.Covers(rec.Bucket.Start) {
				continue
			}
			matched = true
			values = append(values, models.AttributedValue{
				ModelName:    rec.ModelName,
				Bucket:       rec.Bucket,
				Scope:        rec.Scope,
				Category:     rec.Category,
				CostCategory: a.CostCategory,
				Amount:       a.SignedAmount(rec.Count),
				RunID:        rec.RunID,
			})
		}

		if !matched {
			return nil, &MissingAssumptionError{
				ModelName: rec.ModelName,
				Category:  rec.Category,
				At:        rec.Bucket.Start,
			}
		}
	}

	return values, nil
}
