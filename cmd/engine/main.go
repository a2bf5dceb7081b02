package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OldStager01/fleet-value-engine/api"
	"github.com/OldStager01/fleet-value-engine/internal/engine"
	"github.com/OldStager01/fleet-value-engine/internal/events"
	"github.com/OldStager01/fleet-value-engine/internal/logger"
	"github.com/OldStager01/fleet-value-engine/internal/metrics"
	"github.com/OldStager01/fleet-value-engine/internal/simulator"
	"github.com/OldStager01/fleet-value-engine/internal/source"
	"github.com/OldStager01/fleet-value-engine/pkg/config"
	"github.com/OldStager01/fleet-value-engine/pkg/database"
	"github.com/OldStager01/fleet-value-engine/pkg/database/queries"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations")
	runOnce := flag.Bool("run", false, "execute one run per model and exit")
	demo := flag.Bool("demo", false, "run against simulated telemetry without a database")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	if *demo {
		return runDemo(cfg)
	}

	db, err := database.New(cfg.Database.ToDBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("Database connection established")

	if *migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		logger.Info("Running database migrations")
		migrator := database.NewMigrator(db)
		if err := migrator.Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations completed successfully")
		return nil
	}

	bus := events.NewEventBus(cfg.Events.BufferSize)
	defer bus.Close()
	publisher := events.NewPublisher(bus)

	eventLogger := events.NewEventLogger(db, bus.SubscribeAll())
	eventLogger.Start()
	defer eventLogger.Stop()

	src, err := buildSource(cfg, db)
	if err != nil {
		return err
	}

	resultRepo := queries.NewResultRepository(db.DB)
	eng := engine.New(cfg, src, publisher, resultRepo)
	manager := engine.NewManager(eng, bus, cfg)

	if *runOnce {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		reports, err := eng.RunAll(ctx)
		for _, report := range reports {
			logReport(report)
		}
		return err
	}

	if cfg.Metrics.Enabled {
		metrics.StartServer(cfg.Metrics.Port)
	}

	server := api.NewServer(cfg, db, manager)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func buildSource(cfg *config.Config, db *database.DB) (source.Source, error) {
	switch cfg.Engine.Source {
	case "database":
		return source.NewDatabaseSource(db.DB), nil
	case "simulator":
		fleet := simulator.NewFleet(simulator.Config{})
		return source.NewSimulatorSource(fleet, nil), nil
	}
	return nil, fmt.Errorf("unknown engine source %q", cfg.Engine.Source)
}

// runDemo executes every model against generated telemetry, in memory.
func runDemo(cfg *config.Config) error {
	logger.Info("Running in demo mode against simulated telemetry")

	bus := events.NewEventBus(cfg.Events.BufferSize)
	defer bus.Close()
	publisher := events.NewPublisher(bus)

	eventChan := bus.SubscribeAll()
	go func() {
		for event := range eventChan {
			logger.Infof("[EVENT] %s: %s (model: %s, severity: %s)",
				event.Type, event.Message, event.ModelName, event.Severity)
		}
	}()

	fleet := simulator.NewFleet(simulator.Config{})
	src := source.NewSimulatorSource(fleet, nil)
	eng := engine.New(cfg, src, publisher, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	reports, err := eng.RunAll(ctx)
	for _, report := range reports {
		logReport(report)
	}
	return err
}

func logReport(report *models.RunReport) {
	logger.WithModel(report.Run.ModelName).Infof(
		"Run %s %s: %d episodes, net value $%.2f, %d asset errors",
		report.Run.ID, report.Run.Status, len(report.Episodes),
		models.NetValue(report.Values), len(report.AssetErrors),
	)
	if report.Curve != nil {
		logger.WithModel(report.Run.ModelName).Infof(
			"Optimal threshold %.2f (net daily $%.2f over %d points)",
			report.Curve.OptimalThreshold, report.Curve.OptimalValue, len(report.Curve.Points),
		)
	}
}
