package models

// ProfitCurvePoint is one swept threshold evaluated against labeled
// data and the cost model in force.
type ProfitCurvePoint struct {
	ModelName     string  `json:"model_name"`
	Scope         Scope   `json:"scope"`
	Threshold     float64 `json:"threshold"`
	TruePositives int     `json:"true_positives"`
	FalsePositive int     `json:"false_positives"`
	FalseNegative int     `json:"false_negatives"`
	TPRate        float64 `json:"tp_rate"`
	FPRate        float64 `json:"fp_rate"`
	NetDailyValue float64 `json:"net_daily_value"`
	RunID         string  `json:"run_id,omitempty"`
}

// ProfitCurve is the full sweep result with the selected operating
// point. Points are ordered by ascending threshold.
type ProfitCurve struct {
	ModelName        string             `json:"model_name"`
	Scope            Scope              `json:"scope"`
	Points           []ProfitCurvePoint `json:"points"`
	OptimalThreshold float64            `json:"optimal_threshold"`
	OptimalValue     float64            `json:"optimal_value"`
	RunID            string             `json:"run_id,omitempty"`
}
