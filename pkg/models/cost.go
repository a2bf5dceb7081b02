package models

import "time"

type SignConvention string

const (
	SignBenefit SignConvention = "BENEFIT"
	SignCost    SignConvention = "COST"
)

// CostAssumption is one row of the versioned, append-only cost table.
// EffectiveTo nil means open-ended.
type CostAssumption struct {
	ModelName     string          `json:"model_name"`
	Category      OutcomeCategory `json:"category"`
	CostCategory  string          `json:"cost_category"`
	UnitCost      float64         `json:"unit_cost"`
	UnitsPerEvent float64         `json:"units_per_event"`
	Sign          SignConvention  `json:"sign"`
	EffectiveFrom time.Time       `json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"`
}

// Covers reports whether the assumption is in force on the given date.
func (a *CostAssumption) Covers(at time.Time) bool {
	if at.Before(a.EffectiveFrom) {
		return false
	}
	return a.EffectiveTo == nil || at.Before(*a.EffectiveTo)
}

// SignedAmount converts an event count into dollars under this
// assumption's sign convention.
func (a *CostAssumption) SignedAmount(count int) float64 {
	amount := float64(count) * a.UnitCost * a.UnitsPerEvent
	if a.Sign == SignCost {
		return -amount
	}
	return amount
}

// AttributedValue is the dollar value of one outcome cell. Amounts are
// stored per category, never pre-netted; net value is derived on read.
type AttributedValue struct {
	ModelName    string          `json:"model_name"`
	Bucket       TimeBucket      `json:"bucket"`
	Scope        Scope           `json:"scope"`
	Category     OutcomeCategory `json:"category"`
	CostCategory string          `json:"cost_category"`
	Amount       float64         `json:"amount"`
	RunID        string          `json:"run_id,omitempty"`
}

// NetValue sums signed amounts. Derived view only (see the attribution
// contract): never stored back as a mutable field.
func NetValue(values []AttributedValue) float64 {
	var net float64
	for _, v := range values {
		net += v.Amount
	}
	return net
}
