package source

import (
	"context"
	"errors"
	"time"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrFetchFailed   = errors.New("sample fetch failed")
)

// Source is the engine's read boundary: already-materialized
// collections fetched once per run, never per observation. How the
// records are durably stored is not the engine's concern.
type Source interface {
	// Assets returns the fleet reference data.
	Assets(ctx context.Context) ([]models.Asset, error)

	// Hierarchy returns the asset -> site -> portfolio membership.
	Hierarchy(ctx context.Context) (*models.Hierarchy, error)

	// MotionSamples fetches the motion stream per asset for the window.
	MotionSamples(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.MotionSample, error)

	// LoadSamples fetches the load stream per asset for the window.
	LoadSamples(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.LoadSample, error)

	// GroundTruth fetches labels per asset for the window. May return
	// empty maps; the reconciler reports unlabeled scopes explicitly.
	GroundTruth(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.GroundTruthLabel, error)

	// CostAssumptions returns the versioned cost table rows for a model.
	CostAssumptions(ctx context.Context, modelName string) ([]models.CostAssumption, error)

	// HealthCheck verifies the source can reach its backing store.
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the source.
	Close() error
}
