package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/OldStager01/fleet-value-engine/internal/auth"
	"github.com/OldStager01/fleet-value-engine/internal/logger"
	"github.com/OldStager01/fleet-value-engine/internal/simulator"
	"github.com/OldStager01/fleet-value-engine/internal/source"
	"github.com/OldStager01/fleet-value-engine/pkg/config"
	"github.com/OldStager01/fleet-value-engine/pkg/database"
	"github.com/OldStager01/fleet-value-engine/pkg/database/queries"
)

// Seeds the database with a simulated fleet: sites, assets, telemetry
// streams, ground truth labels, cost assumptions and an admin user.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	hours := flag.Int("hours", 24, "hours of telemetry to generate")
	seed := flag.Int64("seed", 42, "random seed")
	sites := flag.Int("sites", 2, "number of sites")
	assetsPerSite := flag.Int("assets", 5, "assets per site")
	adminPassword := flag.String("admin-password", "", "create admin user with this password")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Info("Seeding simulated fleet telemetry")

	db, err := database.New(cfg.Database.ToDBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fleet := simulator.NewFleet(simulator.Config{
		Seed:          *seed,
		Sites:         *sites,
		AssetsPerSite: *assetsPerSite,
	})

	to := time.Now().UTC().Truncate(time.Hour)
	from := to.Add(-time.Duration(*hours) * time.Hour)
	telemetry := fleet.Generate(from, to)

	fleetRepo := queries.NewFleetRepository(db.DB)
	sampleRepo := queries.NewSampleRepository(db.DB)
	labelRepo := queries.NewGroundTruthRepository(db.DB)
	assumptionRepo := queries.NewAssumptionRepository(db.DB)

	for _, site := range fleet.Sites() {
		if err := fleetRepo.CreateSite(ctx, &site); err != nil {
			return fmt.Errorf("create site %s: %w", site.ID, err)
		}
	}
	for _, asset := range fleet.Assets() {
		if err := fleetRepo.CreateAsset(ctx, &asset); err != nil {
			return fmt.Errorf("create asset %s: %w", asset.ID, err)
		}
	}
	logger.Infof("Created %d sites, %d assets", len(fleet.Sites()), len(fleet.Assets()))

	var motionCount, loadCount, labelCount int
	for assetID, samples := range telemetry.Motion {
		if err := sampleRepo.InsertMotionBatch(ctx, samples); err != nil {
			return fmt.Errorf("insert motion for %s: %w", assetID, err)
		}
		motionCount += len(samples)
	}
	for assetID, samples := range telemetry.Load {
		if err := sampleRepo.InsertLoadBatch(ctx, samples); err != nil {
			return fmt.Errorf("insert load for %s: %w", assetID, err)
		}
		loadCount += len(samples)
	}
	for assetID, labels := range telemetry.GroundTruth {
		if err := labelRepo.InsertBatch(ctx, labels); err != nil {
			return fmt.Errorf("insert labels for %s: %w", assetID, err)
		}
		labelCount += len(labels)
	}
	logger.Infof("Inserted %d motion samples, %d load samples, %d labels", motionCount, loadCount, labelCount)

	for _, mc := range cfg.Models {
		for _, assumption := range source.DefaultAssumptions(mc.Name) {
			a := assumption
			if err := assumptionRepo.Insert(ctx, &a); err != nil {
				return fmt.Errorf("insert assumption for %s: %w", mc.Name, err)
			}
		}
		logger.Infof("Seeded cost assumptions for model %s", mc.Name)
	}

	if *adminPassword != "" {
		hash, err := auth.HashPassword(*adminPassword)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		userRepo := queries.NewUserRepository(db.DB)
		if _, err := userRepo.Create(ctx, "admin", hash, "admin"); err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
		logger.Info("Created admin user")
	}

	logger.Info("Seed complete")
	return nil
}
