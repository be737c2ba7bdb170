// Pi-hole to InfluxDB monitor.
//
// This is the main entry point for the monitor: it polls one or more
// Pi-hole instances over the v6 (FTL) HTTP API on a fixed interval and
// writes the resulting statistics as time-series points to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avojak/pihole-influxdb/internal/exporter"
	"github.com/avojak/pihole-influxdb/internal/infrastructure/config"
	"github.com/avojak/pihole-influxdb/internal/infrastructure/database"
	"github.com/avojak/pihole-influxdb/internal/infrastructure/influxdb"
	"github.com/avojak/pihole-influxdb/internal/infrastructure/logging"
	"github.com/avojak/pihole-influxdb/internal/pihole"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// shutdownTimeout bounds the cleanup work (session logout, final writes)
// after the shutdown signal arrives.
const shutdownTimeout = 10 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Pi-hole monitor",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if configPath != "" {
		log.Info("configuration loaded", "path", configPath)
	} else {
		log.Info("configuration loaded from environment")
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Resolve the instance registry
	instances, err := pihole.NewInstances(cfg.Pihole)
	if err != nil {
		return fmt.Errorf("resolving Pi-hole instances: %w", err)
	}
	for _, inst := range instances {
		log.Info("registered Pi-hole instance", "instance", inst.String())
	}
	log.Info("polling configuration",
		"interval", cfg.Interval().String(),
		"request_timeout", cfg.RequestTimeout().String(),
		"num_top_items", cfg.Pihole.NumTopItems,
		"num_top_clients", cfg.Pihole.NumTopClients,
	)

	// Open the watermark database; without a path, watermarks live in
	// memory and a restart re-exports the full history window.
	var watermarks exporter.WatermarkStore
	if cfg.Database.Path != "" {
		db, openErr := database.Open(database.Config{
			Path:        cfg.Database.Path,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if openErr != nil {
			return fmt.Errorf("opening database: %w", openErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", cfg.Database.Path)
		watermarks = exporter.NewSQLiteWatermarkStore(db.DB)
	} else {
		log.Info("no database path configured, keeping watermarks in memory")
		watermarks = exporter.NewMemoryWatermarkStore()
	}

	// Connect to InfluxDB
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	if err != nil {
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	defer func() {
		log.Info("closing InfluxDB connection")
		if closeErr := influxClient.Close(); closeErr != nil {
			log.Error("error closing InfluxDB", "error", closeErr)
		}
	}()
	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)

	if err := influxClient.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("verifying InfluxDB bucket: %w", err)
	}
	log.Info("InfluxDB bucket verified", "bucket", cfg.InfluxDB.Bucket)

	if err := influxClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Wire the polling pipeline
	client := pihole.NewClient(cfg.RequestTimeout())
	sessions := pihole.NewSessionManager(client)
	fetcher := exporter.NewFetcher(client, cfg.Pihole.NumTopItems, cfg.Pihole.NumTopClients)
	poller := exporter.NewPoller(instances, sessions, fetcher, influxClient, watermarks, cfg.Interval(), log)

	// Run until the shutdown signal; the first cycle starts immediately.
	runErr := poller.Run(ctx)

	// Release API sessions: Pi-hole caps concurrent sessions, so leaving
	// them to expire would starve quickly restarting processes.
	logoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, inst := range instances {
		if logoutErr := sessions.Logout(logoutCtx, inst); logoutErr != nil {
			log.Warn("session logout failed", "alias", inst.Alias, "error", logoutErr)
		}
	}

	log.Info("Pi-hole monitor stopped")
	return runErr
}

// getConfigPath returns the configuration file path.
// Uses PIHOLE_INFLUXDB_CONFIG if set; falls back to configs/config.yaml when
// that file exists, and otherwise runs from environment variables alone.
func getConfigPath() string {
	if path := os.Getenv("PIHOLE_INFLUXDB_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("configs/config.yaml"); err == nil {
		return "configs/config.yaml"
	}
	return ""
}
