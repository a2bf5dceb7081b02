package models

import "time"

type AssetType string

const (
	AssetTypeHauler AssetType = "hauler"
	AssetTypeLoader AssetType = "loader"
	AssetTypeDozer  AssetType = "dozer"
	AssetTypeOther  AssetType = "other"
)

// Asset is immutable fleet reference data, created at registration.
type Asset struct {
	ID            string    `json:"id"`
	Type          AssetType `json:"type"`
	SiteID        string    `json:"site_id"`
	RatedCapacity float64   `json:"rated_capacity"`
	CreatedAt     time.Time `json:"created_at"`
}

type Site struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	PortfolioID string  `json:"portfolio_id"`
	CenterLat   float64 `json:"center_lat"`
	CenterLng   float64 `json:"center_lng"`
}

// Hierarchy holds the asset -> site -> portfolio membership maps used
// by the rollup aggregator.
type Hierarchy struct {
	AssetSite     map[string]string `json:"asset_site"`
	SitePortfolio map[string]string `json:"site_portfolio"`
}

func (h *Hierarchy) SiteOf(assetID string) (string, bool) {
	siteID, ok := h.AssetSite[assetID]
	return siteID, ok
}

func (h *Hierarchy) PortfolioOf(siteID string) (string, bool) {
	portfolioID, ok := h.SitePortfolio[siteID]
	return portfolioID, ok
}

// Sites returns the distinct site ids present in the membership map.
func (h *Hierarchy) Sites() []string {
	seen := make(map[string]bool)
	var sites []string
	for _, siteID := range h.AssetSite {
		if !seen[siteID] {
			seen[siteID] = true
			sites = append(sites, siteID)
		}
	}
	return sites
}
