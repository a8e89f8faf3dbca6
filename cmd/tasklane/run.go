package main

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/tasklane/tasklane-core/internal/api"
	"github.com/tasklane/tasklane-core/internal/audit"
	"github.com/tasklane/tasklane-core/internal/auth"
	"github.com/tasklane/tasklane-core/internal/company"
	"github.com/tasklane/tasklane-core/internal/events"
	"github.com/tasklane/tasklane-core/internal/infrastructure/config"
	"github.com/tasklane/tasklane-core/internal/infrastructure/database"
	"github.com/tasklane/tasklane-core/internal/infrastructure/influxdb"
	"github.com/tasklane/tasklane-core/internal/infrastructure/logging"
	"github.com/tasklane/tasklane-core/internal/infrastructure/mqtt"
	"github.com/tasklane/tasklane-core/internal/metrics"
	"github.com/tasklane/tasklane-core/internal/project"
	"github.com/tasklane/tasklane-core/internal/task"
	_ "github.com/tasklane/tasklane-core/migrations" // registers the schema
)

// run is the serve command, separated from main for testability. It blocks
// until ctx is cancelled, then shuts everything down.
func run(ctx context.Context, opts options) error { //nolint:gocognit,funlen // startup wiring reads top to bottom
	cfg, log, err := loadConfig(opts)
	if err != nil {
		return err
	}
	log.Info("starting Tasklane Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	users := auth.NewUserRepository(db)
	sessions := auth.NewSessionRepository(db)

	if _, err := auth.SeedAdmin(ctx, users, cfg.Security.Seed.AdminEmail, cfg.Security.Seed.AdminUserName, log); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}

	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret: []byte(cfg.Security.JWT.Secret),
		TTL:    cfg.TokenTTL(),
	})
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}
	authService := auth.NewService(issuer, users, sessions, log)

	var prom *metrics.Metrics
	if cfg.Metrics.Enabled {
		prom = metrics.New()
	}

	// Background workers stop when bgCtx is cancelled, after the API.
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	var wg sync.WaitGroup

	var publisher events.Publisher = events.Nop{}
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() { log.Info("MQTT connected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })

		broker := events.NewBrokerPublisher(mqttClient, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			broker.Run(bgCtx)
		}()
		publisher = broker
		log.Info("MQTT event publishing enabled",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		)
	} else {
		log.Info("MQTT disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		authService.RunSessionCleanup(bgCtx, cfg.SessionCleanupInterval(), func(n int64) {
			prom.SessionsRevoked("expired", int(n))
		})
	}()

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Metrics:    cfg.Metrics,
		Logger:     log,
		DB:         db,
		Auth:       authService,
		Users:      users,
		Sessions:   sessions,
		Companies:  company.NewSQLiteRepository(db),
		Projects:   project.NewSQLiteRepository(db),
		Tasks:      task.NewSQLiteRepository(db),
		AuditRepo:  audit.NewSQLiteRepository(db),
		Events:     publisher,
		Prometheus: prom,
		InfluxDB:   influxClient,
		MQTT:       mqttClient,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Order: stop taking requests, flush events and cleanup, then close links.
	shutdownErr := server.Close()
	stopBackground()
	wg.Wait()
	if mqttClient != nil {
		shutdownErr = multierr.Append(shutdownErr, mqttClient.Close())
	}
	if influxClient != nil {
		shutdownErr = multierr.Append(shutdownErr, influxClient.Close())
	}
	if shutdownErr != nil {
		log.Error("shutdown completed with errors", "error", shutdownErr)
		return fmt.Errorf("shutting down: %w", shutdownErr)
	}

	log.Info("Tasklane Core stopped")
	return nil
}

// loadConfig loads configuration and builds the configured logger.
func loadConfig(opts options) (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, logging.New(cfg.Logging, version), nil
}

// openDatabase opens SQLite and applies pending migrations.
func openDatabase(ctx context.Context, cfg *config.Config, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)
	return db, nil
}
