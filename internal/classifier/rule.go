package classifier

import (
	"fmt"
	"math"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

type Comparison string

const (
	CompareAbove Comparison = "above"
	CompareBelow Comparison = "below"
)

// Rule is a declarative predicate over an aligned observation. Rules
// are plain values: evaluation is side-effect-free and re-entrant, so
// the sweep can reuse one rule family across thresholds without
// reallocation.
type Rule struct {
	ModelName      string     `json:"model_name"`
	SpeedThreshold float64    `json:"speed_threshold_mph"`
	SpeedCompare   Comparison `json:"speed_compare"`
	LoadThreshold  float64    `json:"load_threshold_pct"`
	LoadCompare    Comparison `json:"load_compare"`

	// ZoneGridDeg groups observations into lat/lng zones of this grid
	// step. Zero disables zone keys (asset-scoped models).
	ZoneGridDeg float64 `json:"zone_grid_deg,omitempty"`
}

// Matches labels one observation under the rule. Both clauses must
// hold; a zero threshold with its comparison unset skips that clause.
func (r Rule) Matches(o *models.AlignedObservation) bool {
	if r.SpeedCompare != "" && !compare(o.Motion.SpeedMPH, r.SpeedThreshold, r.SpeedCompare) {
		return false
	}
	if r.LoadCompare != "" && !compare(o.Load.EngineLoad, r.LoadThreshold, r.LoadCompare) {
		return false
	}
	return true
}

// ZoneKey buckets the observation's position onto the zone grid.
// Empty when the rule carries no grid.
func (r Rule) ZoneKey(o *models.AlignedObservation) string {
	if r.ZoneGridDeg <= 0 {
		return ""
	}
	lat := math.Floor(o.Motion.Latitude/r.ZoneGridDeg) * r.ZoneGridDeg
	lng := math.Floor(o.Motion.Longitude/r.ZoneGridDeg) * r.ZoneGridDeg
	return fmt.Sprintf("%.4f:%.4f", lat, lng)
}

func compare(value, threshold float64, cmp Comparison) bool {
	switch cmp {
	case CompareAbove:
		return value > threshold
	case CompareBelow:
		return value < threshold
	}
	return true
}

// GhostCycleRule is the stock motion-vs-load correlation rule: moving
// above the speed floor while engine load sits below the work floor.
func GhostCycleRule(modelName string, speedFloorMPH, loadCeilingPct float64) Rule {
	return Rule{
		ModelName:      modelName,
		SpeedThreshold: speedFloorMPH,
		SpeedCompare:   CompareAbove,
		LoadThreshold:  loadCeilingPct,
		LoadCompare:    CompareBelow,
	}
}

// ChokePointRule is the speed-only zone congestion rule: creeping
// below the speed ceiling, grouped onto the zone grid.
func ChokePointRule(modelName string, speedCeilingMPH, zoneGridDeg float64) Rule {
	return Rule{
		ModelName:      modelName,
		SpeedThreshold: speedCeilingMPH,
		SpeedCompare:   CompareBelow,
		ZoneGridDeg:    zoneGridDeg,
	}
}

// Family maps a normalized sweep threshold in [0,1] onto a concrete
// rule, holding every other rule parameter fixed.
type Family interface {
	Apply(threshold float64) Rule
}

// LoadFractionFamily sweeps the engine-load clause: threshold t yields
// a load threshold of t*100 percent.
type LoadFractionFamily struct {
	Base Rule
}

func (f LoadFractionFamily) Apply(threshold float64) Rule {
	rule := f.Base
	rule.LoadThreshold = threshold * 100
	return rule
}
