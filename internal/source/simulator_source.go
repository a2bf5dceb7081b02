package source

import (
	"context"
	"sync"
	"time"

	"github.com/OldStager01/fleet-value-engine/internal/simulator"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

// SimulatorSource serves generated telemetry, for demos and pipeline
// tests without a database. Windows are generated once and memoized so
// repeated fetches within a run see identical data.
type SimulatorSource struct {
	fleet       *simulator.Fleet
	assumptions []models.CostAssumption

	mu        sync.Mutex
	telemetry *simulator.Telemetry
	from, to  time.Time
}

func NewSimulatorSource(fleet *simulator.Fleet, assumptions []models.CostAssumption) *SimulatorSource {
	return &SimulatorSource{fleet: fleet, assumptions: assumptions}
}

// DefaultAssumptions is the demo cost table: recovered fuel on true
// positives, review labor on false positives, wasted fuel on misses.
func DefaultAssumptions(modelName string) []models.CostAssumption {
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.CostAssumption{
		{
			ModelName: modelName, Category: models.OutcomeTruePositive,
			CostCategory: "fuel_recovered", UnitCost: 3.80, UnitsPerEvent: 6.5,
			Sign: models.SignBenefit, EffectiveFrom: epoch,
		},
		{
			ModelName: modelName, Category: models.OutcomeFalsePositive,
			CostCategory: "review_labor", UnitCost: 45.00, UnitsPerEvent: 0.5,
			Sign: models.SignCost, EffectiveFrom: epoch,
		},
		{
			ModelName: modelName, Category: models.OutcomeFalseNegative,
			CostCategory: "fuel_wasted", UnitCost: 3.80, UnitsPerEvent: 6.5,
			Sign: models.SignCost, EffectiveFrom: epoch,
		},
		{
			ModelName: modelName, Category: models.OutcomeTrueNegative,
			CostCategory: "none", UnitCost: 0, UnitsPerEvent: 0,
			Sign: models.SignBenefit, EffectiveFrom: epoch,
		},
	}
}

func (s *SimulatorSource) generate(from, to time.Time) *simulator.Telemetry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.telemetry == nil || !s.from.Equal(from) || !s.to.Equal(to) {
		s.telemetry = s.fleet.Generate(from, to)
		s.from, s.to = from, to
	}
	return s.telemetry
}

func (s *SimulatorSource) Assets(ctx context.Context) ([]models.Asset, error) {
	return s.fleet.Assets(), nil
}

func (s *SimulatorSource) Hierarchy(ctx context.Context) (*models.Hierarchy, error) {
	return s.fleet.Hierarchy(), nil
}

func (s *SimulatorSource) MotionSamples(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.MotionSample, error) {
	telemetry := s.generate(from, to)
	out := make(map[string][]models.MotionSample, len(assetIDs))
	for _, id := range assetIDs {
		out[id] = telemetry.Motion[id]
	}
	return out, nil
}

func (s *SimulatorSource) LoadSamples(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.LoadSample, error) {
	telemetry := s.generate(from, to)
	out := make(map[string][]models.LoadSample, len(assetIDs))
	for _, id := range assetIDs {
		out[id] = telemetry.Load[id]
	}
	return out, nil
}

func (s *SimulatorSource) GroundTruth(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.GroundTruthLabel, error) {
	telemetry := s.generate(from, to)
	out := make(map[string][]models.GroundTruthLabel, len(assetIDs))
	for _, id := range assetIDs {
		out[id] = telemetry.GroundTruth[id]
	}
	return out, nil
}

func (s *SimulatorSource) CostAssumptions(ctx context.Context, modelName string) ([]models.CostAssumption, error) {
	if len(s.assumptions) > 0 {
		var rows []models.CostAssumption
		for _, a := range s.assumptions {
			if a.ModelName == modelName {
				rows = append(rows, a)
			}
		}
		return rows, nil
	}
	return DefaultAssumptions(modelName), nil
}

func (s *SimulatorSource) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *SimulatorSource) Close() error {
	return nil
}
