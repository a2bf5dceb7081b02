package models

// OutcomeCounts is the confusion-matrix cell counts carried by a
// rollup row. Addition is component-wise.
type OutcomeCounts struct {
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
	TrueNegatives  int `json:"true_negatives"`
}

func (c OutcomeCounts) Add(other OutcomeCounts) OutcomeCounts {
	return OutcomeCounts{
		TruePositives:  c.TruePositives + other.TruePositives,
		FalsePositives: c.FalsePositives + other.FalsePositives,
		FalseNegatives: c.FalseNegatives + other.FalseNegatives,
		TrueNegatives:  c.TrueNegatives + other.TrueNegatives,
	}
}

func (c *OutcomeCounts) Set(cat OutcomeCategory, count int) {
	switch cat {
	case OutcomeTruePositive:
		c.TruePositives = count
	case OutcomeFalsePositive:
		c.FalsePositives = count
	case OutcomeFalseNegative:
		c.FalseNegatives = count
	case OutcomeTrueNegative:
		c.TrueNegatives = count
	}
}

func (c OutcomeCounts) Get(cat OutcomeCategory) int {
	switch cat {
	case OutcomeTruePositive:
		return c.TruePositives
	case OutcomeFalsePositive:
		return c.FalsePositives
	case OutcomeFalseNegative:
		return c.FalseNegatives
	case OutcomeTrueNegative:
		return c.TrueNegatives
	}
	return 0
}

// RollupSummary is one row of the hierarchy rollup. The additive
// invariant: a parent row equals the component-wise sum of its
// children for the same model and bucket.
type RollupSummary struct {
	ModelName   string        `json:"model_name"`
	Level       ScopeLevel    `json:"level"`
	ScopeID     string        `json:"scope_id"`
	Bucket      TimeBucket    `json:"bucket"`
	Counts      OutcomeCounts `json:"counts"`
	DollarValue float64       `json:"dollar_value"`
	RunID       string        `json:"run_id,omitempty"`
}
