package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/OldStager01/fleet-value-engine/pkg/database/queries"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

// DatabaseSource serves telemetry and reference data from Postgres via
// the query repositories.
type DatabaseSource struct {
	db          *sql.DB
	fleet       *queries.FleetRepository
	samples     *queries.SampleRepository
	groundTruth *queries.GroundTruthRepository
	assumptions *queries.AssumptionRepository
}

func NewDatabaseSource(db *sql.DB) *DatabaseSource {
	return &DatabaseSource{
		db:          db,
		fleet:       queries.NewFleetRepository(db),
		samples:     queries.NewSampleRepository(db),
		groundTruth: queries.NewGroundTruthRepository(db),
		assumptions: queries.NewAssumptionRepository(db),
	}
}

func (s *DatabaseSource) Assets(ctx context.Context) ([]models.Asset, error) {
	assets, err := s.fleet.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return assets, nil
}

func (s *DatabaseSource) Hierarchy(ctx context.Context) (*models.Hierarchy, error) {
	h, err := s.fleet.GetHierarchy(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return h, nil
}

func (s *DatabaseSource) MotionSamples(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.MotionSample, error) {
	out, err := s.samples.MotionSamples(ctx, assetIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: motion: %v", ErrFetchFailed, err)
	}
	return out, nil
}

func (s *DatabaseSource) LoadSamples(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.LoadSample, error) {
	out, err := s.samples.LoadSamples(ctx, assetIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrFetchFailed, err)
	}
	return out, nil
}

func (s *DatabaseSource) GroundTruth(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.GroundTruthLabel, error) {
	out, err := s.groundTruth.Labels(ctx, assetIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: labels: %v", ErrFetchFailed, err)
	}
	return out, nil
}

func (s *DatabaseSource) CostAssumptions(ctx context.Context, modelName string) ([]models.CostAssumption, error) {
	return s.assumptions.ForModel(ctx, modelName)
}

func (s *DatabaseSource) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *DatabaseSource) Close() error {
	return s.db.Close()
}
