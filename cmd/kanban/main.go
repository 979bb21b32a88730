// Kanban Core - task board API
//
// This is the main entry point for the Kanban API server. It wires the
// SQLite store, token service, optional MQTT event publishing and optional
// InfluxDB metrics into the HTTP API and runs until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/kanban-core/migrations"

	"github.com/nerrad567/kanban-core/internal/api"
	"github.com/nerrad567/kanban-core/internal/audit"
	"github.com/nerrad567/kanban-core/internal/auth"
	"github.com/nerrad567/kanban-core/internal/board"
	"github.com/nerrad567/kanban-core/internal/infrastructure/config"
	"github.com/nerrad567/kanban-core/internal/infrastructure/database"
	"github.com/nerrad567/kanban-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/kanban-core/internal/infrastructure/logging"
	"github.com/nerrad567/kanban-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown after ctx is cancelled.
func run(ctx context.Context) error { //nolint:gocognit,funlen // linear start-up sequence
	log := logging.Default()
	log.Info("starting Kanban API",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// The signing key is checked before anything is opened: without it no
	// request could ever be authenticated.
	tokens, err := auth.NewTokenService(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer, cfg.GetAccessTokenTTL())
	if err != nil {
		log.Error("token service misconfigured", "error", err)
		return fmt.Errorf("creating token service: %w", err)
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	status, err := db.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	log.Info("database migrations complete", "version", status.Version)

	mqttClient := connectMQTT(cfg.MQTT, log)
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	}

	influxClient := connectInfluxDB(cfg.InfluxDB, log)
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	users := auth.NewUserRepository(db.DB)
	boards := board.NewRepository(db.DB)

	deps := api.Deps{
		Config:      cfg.API,
		Security:    cfg.Security,
		Logger:      log,
		DB:          db,
		Auth:        auth.NewService(users, tokens),
		Boards:      boards,
		Provisioner: board.NewProvisioner(db.DB),
		Guard:       board.NewGuard(boards),
		AuditRepo:   audit.NewSQLiteRepository(db.DB),
		Version:     version,
	}
	// Assign only non-nil clients so the interfaces stay nil when disabled.
	if mqttClient != nil {
		deps.Events = mqttClient
	}
	if influxClient != nil {
		deps.Metrics = influxClient
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if count, countErr := users.Count(ctx); countErr == nil {
		log.Info("initialisation complete, waiting for shutdown signal", "users", count)
	}

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

func getConfigPath() string {
	if path := os.Getenv("KANBAN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectMQTT returns nil when MQTT is disabled or the broker is unreachable.
// Events are best effort, so a broker outage does not stop the API.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) *mqtt.Client {
	if !cfg.Enabled {
		log.Info("MQTT disabled")
		return nil
	}

	client, err := mqtt.Connect(cfg)
	if err != nil {
		log.Warn("MQTT unavailable, lifecycle events disabled", "error", err)
		return nil
	}
	client.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)
	return client
}

// connectInfluxDB returns nil when metrics are disabled or InfluxDB is unreachable.
func connectInfluxDB(cfg config.InfluxDBConfig, log *logging.Logger) *influxdb.Client {
	client, err := influxdb.Connect(cfg)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil
	}
	if err != nil {
		log.Warn("InfluxDB unavailable, metrics disabled", "error", err)
		return nil
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)
	return client
}
