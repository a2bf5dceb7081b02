package simulator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

type Config struct {
	Seed           int64
	Sites          int
	AssetsPerSite  int
	MotionInterval time.Duration
	LoadInterval   time.Duration

	// GhostFraction is the share of slow periods that are ghost cycles
	// (creeping with an idle engine) rather than loading or dumping.
	GhostFraction float64
}

// Fleet generates synthetic haul-cycle telemetry: motion and load
// streams on independent jittered cadences, plus ground-truth labels
// for the injected ghost windows. Deterministic for a given seed.
type Fleet struct {
	config Config
	rng    *rand.Rand
	sites  []models.Site
	assets []models.Asset
}

// phase is one contiguous operating state in an asset's shift.
type phase struct {
	start time.Time
	end   time.Time
	kind  phaseKind
	zone  int
}

type phaseKind int

const (
	phaseHaul phaseKind = iota
	phaseWork           // loading or dumping: slow but under load
	phaseGhost
)

// Zone offsets relative to a site center, matching the fixed choke
// point locations the demo fleet congregates at.
var zoneOffsets = [][2]float64{
	{0.0020, 0.0015},
	{-0.0018, 0.0022},
	{0.0008, -0.0025},
}

func NewFleet(cfg Config) *Fleet {
	if cfg.Sites == 0 {
		cfg.Sites = 2
	}
	if cfg.AssetsPerSite == 0 {
		cfg.AssetsPerSite = 5
	}
	if cfg.MotionInterval == 0 {
		cfg.MotionInterval = 30 * time.Second
	}
	if cfg.LoadInterval == 0 {
		cfg.LoadInterval = 45 * time.Second
	}
	if cfg.GhostFraction == 0 {
		cfg.GhostFraction = 0.6
	}

	f := &Fleet{
		config: cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}

	assetTypes := []models.AssetType{models.AssetTypeHauler, models.AssetTypeHauler, models.AssetTypeHauler, models.AssetTypeLoader, models.AssetTypeDozer}
	for s := 0; s < cfg.Sites; s++ {
		site := models.Site{
			ID:          fmt.Sprintf("site-%02d", s+1),
			Name:        fmt.Sprintf("Site %02d", s+1),
			PortfolioID: "portfolio-main",
			CenterLat:   39.5 + float64(s)*0.8,
			CenterLng:   -110.2 - float64(s)*0.5,
		}
		f.sites = append(f.sites, site)

		for a := 0; a < cfg.AssetsPerSite; a++ {
			f.assets = append(f.assets, models.Asset{
				ID:            fmt.Sprintf("%s-hauler-%02d", site.ID, a+1),
				Type:          assetTypes[a%len(assetTypes)],
				SiteID:        site.ID,
				RatedCapacity: 240,
			})
		}
	}

	return f
}

func (f *Fleet) Assets() []models.Asset {
	return f.assets
}

func (f *Fleet) Sites() []models.Site {
	return f.sites
}

func (f *Fleet) Hierarchy() *models.Hierarchy {
	h := &models.Hierarchy{
		AssetSite:     make(map[string]string, len(f.assets)),
		SitePortfolio: make(map[string]string, len(f.sites)),
	}
	for _, a := range f.assets {
		h.AssetSite[a.ID] = a.SiteID
	}
	for _, s := range f.sites {
		h.SitePortfolio[s.ID] = s.PortfolioID
	}
	return h
}

// Telemetry is one generated window of fleet data, keyed by asset id.
type Telemetry struct {
	Motion      map[string][]models.MotionSample
	Load        map[string][]models.LoadSample
	GroundTruth map[string][]models.GroundTruthLabel
}

// Generate produces telemetry for [from, to). Ghost phases are labeled
// true anomalies; work phases get explicit false labels so the
// reconciler sees a labeled scope, not an unlabeled one.
func (f *Fleet) Generate(from, to time.Time) *Telemetry {
	t := &Telemetry{
		Motion:      make(map[string][]models.MotionSample, len(f.assets)),
		Load:        make(map[string][]models.LoadSample, len(f.assets)),
		GroundTruth: make(map[string][]models.GroundTruthLabel, len(f.assets)),
	}

	siteByID := make(map[string]models.Site, len(f.sites))
	for _, s := range f.sites {
		siteByID[s.ID] = s
	}

	for _, asset := range f.assets {
		phases := f.shiftPhases(from, to)
		site := siteByID[asset.SiteID]

		t.Motion[asset.ID] = f.motionStream(asset.ID, site, phases, from, to)
		t.Load[asset.ID] = f.loadStream(asset.ID, phases, from, to)
		t.GroundTruth[asset.ID] = f.labels(asset.ID, phases)
	}

	return t
}

// shiftPhases cuts the window into 5–15 minute operating phases.
func (f *Fleet) shiftPhases(from, to time.Time) []phase {
	var phases []phase
	cursor := from
	for cursor.Before(to) {
		length := 5*time.Minute + time.Duration(f.rng.Int63n(int64(10*time.Minute)))
		end := cursor.Add(length)
		if end.After(to) {
			end = to
		}

		p := phase{start: cursor, end: end, kind: phaseHaul, zone: -1}
		if f.rng.Float64() < 0.4 { // slow period
			p.zone = f.rng.Intn(len(zoneOffsets))
			if f.rng.Float64() < f.config.GhostFraction {
				p.kind = phaseGhost
			} else {
				p.kind = phaseWork
			}
		}

		phases = append(phases, p)
		cursor = end
	}
	return phases
}

func (f *Fleet) motionStream(assetID string, site models.Site, phases []phase, from, to time.Time) []models.MotionSample {
	var samples []models.MotionSample
	for ts := from; ts.Before(to); ts = ts.Add(f.jittered(f.config.MotionInterval)) {
		p := phaseAt(phases, ts)

		var speed float64
		lat, lng := site.CenterLat, site.CenterLng
		switch p.kind {
		case phaseHaul:
			speed = 15 + f.rng.Float64()*15
			lat += f.rng.Float64()*0.02 - 0.01
			lng += f.rng.Float64()*0.02 - 0.01
		default:
			speed = 0.5 + f.rng.Float64()*5
			offset := zoneOffsets[p.zone]
			lat += offset[0] + f.rng.Float64()*0.001 - 0.0005
			lng += offset[1] + f.rng.Float64()*0.001 - 0.0005
		}

		samples = append(samples, models.MotionSample{
			AssetID:   assetID,
			Timestamp: ts,
			Latitude:  lat,
			Longitude: lng,
			SpeedMPH:  speed,
			Heading:   f.rng.Float64() * 360,
		})
	}
	return samples
}

func (f *Fleet) loadStream(assetID string, phases []phase, from, to time.Time) []models.LoadSample {
	var samples []models.LoadSample
	for ts := from; ts.Before(to); ts = ts.Add(f.jittered(f.config.LoadInterval)) {
		p := phaseAt(phases, ts)

		var load, payload float64
		switch p.kind {
		case phaseGhost:
			load = 15 + f.rng.Float64()*15
			payload = 0
		case phaseWork:
			load = 60 + f.rng.Float64()*25
			payload = 180 + f.rng.Float64()*60
		default:
			load = 55 + f.rng.Float64()*35
			payload = 180 + f.rng.Float64()*60
		}

		// Fuel rate tracks engine load: 15 gph idle floor plus up to
		// 35 gph under full load.
		fuel := 15 + (load/100)*35 + f.rng.Float64()*4 - 2

		samples = append(samples, models.LoadSample{
			AssetID:     assetID,
			Timestamp:   ts,
			EngineLoad:  load,
			FuelRateGPH: fuel,
			PayloadTons: payload,
		})
	}
	return samples
}

func (f *Fleet) labels(assetID string, phases []phase) []models.GroundTruthLabel {
	var labels []models.GroundTruthLabel
	for _, p := range phases {
		switch p.kind {
		case phaseGhost:
			labels = append(labels, models.GroundTruthLabel{
				AssetID:       assetID,
				Start:         p.start,
				End:           p.end,
				IsTrueAnomaly: true,
				Source:        "simulator",
			})
		case phaseWork:
			labels = append(labels, models.GroundTruthLabel{
				AssetID:       assetID,
				Start:         p.start,
				End:           p.end,
				IsTrueAnomaly: false,
				Source:        "simulator",
			})
		}
	}
	return labels
}

func (f *Fleet) jittered(interval time.Duration) time.Duration {
	jitter := time.Duration(f.rng.Int63n(int64(interval / 5)))
	return interval - interval/10 + jitter
}

func phaseAt(phases []phase, ts time.Time) *phase {
	for i := range phases {
		if !ts.Before(phases[i].start) && ts.Before(phases[i].end) {
			return &phases[i]
		}
	}
	return &phases[len(phases)-1]
}
