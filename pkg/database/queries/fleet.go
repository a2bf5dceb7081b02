package queries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

var ErrAssetNotFound = errors.New("asset not found")

type FleetRepository struct {
	db *sql.DB
}

func NewFleetRepository(db *sql.DB) *FleetRepository {
	return &FleetRepository{db: db}
}

func (r *FleetRepository) ListAssets(ctx context.Context) ([]models.Asset, error) {
	query := `
		SELECT id, asset_type, site_id, rated_capacity, created_at
		FROM assets
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.ID, &a.Type, &a.SiteID, &a.RatedCapacity, &a.CreatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}

	return assets, rows.Err()
}

func (r *FleetRepository) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	query := `
		SELECT id, asset_type, site_id, rated_capacity, created_at
		FROM assets WHERE id = $1`

	var a models.Asset
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Type, &a.SiteID, &a.RatedCapacity, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *FleetRepository) CreateAsset(ctx context.Context, a *models.Asset) error {
	query := `
		INSERT INTO assets (id, asset_type, site_id, rated_capacity)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, a.ID, a.Type, a.SiteID, a.RatedCapacity)
	return err
}

func (r *FleetRepository) CreateSite(ctx context.Context, s *models.Site) error {
	query := `
		INSERT INTO sites (id, name, portfolio_id, center_lat, center_lng)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.PortfolioID, s.CenterLat, s.CenterLng)
	return err
}

// GetHierarchy loads the full membership maps in two queries.
func (r *FleetRepository) GetHierarchy(ctx context.Context) (*models.Hierarchy, error) {
	h := &models.Hierarchy{
		AssetSite:     make(map[string]string),
		SitePortfolio: make(map[string]string),
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, site_id FROM assets`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var assetID, siteID string
		if err := rows.Scan(&assetID, &siteID); err != nil {
			return nil, err
		}
		h.AssetSite[assetID] = siteID
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	siteRows, err := r.db.QueryContext(ctx, `SELECT id, portfolio_id FROM sites`)
	if err != nil {
		return nil, err
	}
	defer siteRows.Close()
	for siteRows.Next() {
		var siteID, portfolioID string
		if err := siteRows.Scan(&siteID, &portfolioID); err != nil {
			return nil, err
		}
		h.SitePortfolio[siteID] = portfolioID
	}

	return h, siteRows.Err()
}
