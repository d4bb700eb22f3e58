package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airmiles-service/internal/domain/repository"
	"airmiles-service/internal/infrastructure/config"
	"airmiles-service/internal/infrastructure/persistence"
	"airmiles-service/internal/infrastructure/router"
	"airmiles-service/internal/interface/httpapi"
	repo "airmiles-service/internal/interface/repository"
	"airmiles-service/internal/interface/source"
	"airmiles-service/internal/usecase"
	"airmiles-service/pkg/logger"
	"airmiles-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// stores bundles the repositories of whichever driver is configured
type stores struct {
	flights repository.FlightRecordRepository
	routes  repository.RouteWatchRepository
	jobs    repository.FetchJobRepository
	close   func(context.Context) error
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	// Create logger
	zl := logger.NewLogger(cfg.LogLevel)
	defer zl.Sync()
	var log logger.Logger = zl
	log.Info("Starting Airmiles Service", "version", cfg.AppVersion, "store", cfg.StoreDriver, "policy", cfg.FreshnessPolicy)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("airmiles", reg)

	// Store
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", "driver", cfg.StoreDriver, "error", err)
	}

	// Record sources
	sources := usecase.NewSourceRegistry(cfg.DefaultCarrier, log)
	carriers := cfg.SourceCarriers
	if len(carriers) == 0 {
		carriers = []string{cfg.DefaultCarrier}
	}
	for _, carrier := range carriers {
		switch cfg.SourceMode {
		case config.SourceHTTP:
			sources.Register(carrier, source.NewHTTPSource(cfg.SourceURL, cfg.SourceToken, carrier, log))
		default:
			sources.Register(carrier, source.NewDemoSource(carrier, cfg.DemoMinDelay, cfg.DemoMaxDelay, log))
		}
	}
	if _, _, err := sources.Resolve(cfg.DefaultCarrier); err != nil {
		log.Fatal("No record source for default carrier", "carrier", cfg.DefaultCarrier, "error", err)
	}

	// Search pipeline
	pipeline := usecase.NewSearchPipeline(st.flights, st.routes, st.jobs, sources, m, usecase.PipelineConfig{
		FreshnessWindow: cfg.FreshnessWindow,
		Policy:          cfg.FreshnessPolicy,
		DefaultCarrier:  cfg.DefaultCarrier,
	}, log)

	// Background jobs
	sweeper := usecase.NewRetentionSweeper(st.flights, m, log.With("component", "retention"))
	go sweeper.Run(ctx, cfg.PurgeInterval)

	refresher := usecase.NewRouteRefresher(st.routes, pipeline, cfg.RefreshBatchSize, cfg.RefreshHorizonDays, log.With("component", "refresher"))
	go refresher.Run(ctx, cfg.RefreshInterval)

	// HTTP server
	handler := httpapi.NewHandler(pipeline, st.flights, cfg.AppVersion, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewHTTPRouter(handler, reg, cfg.AllowedOrigins, log),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop all goroutines

	if err := st.close(shutdownCtx); err != nil {
		log.Error("Store close error", "error", err)
	}

	log.Info("Airmiles Service stopped")
}

// openStores connects the configured driver and builds its repositories
func openStores(ctx context.Context, cfg *config.Config, log logger.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		log.Info("Connecting to MongoDB")
		client, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			return nil, err
		}
		db := persistence.GetDatabase(client, cfg.MongoDB)

		flights, err := repo.NewMongoFlightRecordRepository(ctx, db)
		if err != nil {
			return nil, err
		}
		routes, err := repo.NewMongoRouteWatchRepository(ctx, db)
		if err != nil {
			return nil, err
		}
		jobs, err := repo.NewMongoFetchJobRepository(ctx, db)
		if err != nil {
			return nil, err
		}
		return &stores{flights: flights, routes: routes, jobs: jobs, close: client.Disconnect}, nil

	case config.StoreSQLite:
		log.Info("Opening SQLite store", "path", cfg.SQLitePath)
		db, err := persistence.OpenSQLite(cfg.SQLitePath, persistence.GormLogLevel(cfg.LogLevel))
		if err != nil {
			return nil, err
		}
		return gormStores(db)

	default:
		log.Info("Connecting to PostgreSQL")
		db, err := persistence.OpenPostgres(cfg.PostgresURI, persistence.GormLogLevel(cfg.LogLevel))
		if err != nil {
			return nil, err
		}
		return gormStores(db)
	}
}

func gormStores(db *gorm.DB) (*stores, error) {
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	return &stores{
		flights: repo.NewGormFlightRecordRepository(db),
		routes:  repo.NewGormRouteWatchRepository(db),
		jobs:    repo.NewGormFetchJobRepository(db),
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}
