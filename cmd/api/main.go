package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spinlytics/casino-analytics/api/controllers"
	"github.com/spinlytics/casino-analytics/api/routes"
	"github.com/spinlytics/casino-analytics/internal/analytics"
	"github.com/spinlytics/casino-analytics/internal/dataset"
	"github.com/spinlytics/casino-analytics/internal/pipeline"
	pkgbq "github.com/spinlytics/casino-analytics/pkg/bigquery"
	"github.com/spinlytics/casino-analytics/pkg/config"
	"github.com/spinlytics/casino-analytics/pkg/db"
	"github.com/spinlytics/casino-analytics/pkg/logger"
	"github.com/spinlytics/casino-analytics/pkg/metrics"
	"github.com/spinlytics/casino-analytics/pkg/migrate"
	"github.com/spinlytics/casino-analytics/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run manifest migrations", err)
		os.Exit(1)
	}

	checks := map[string]controllers.Pinger{"database": dbClient}

	var lock dataset.FetchLock
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		lock, err = dataset.NewRedisLock(redisClient, cfg.Catalog.FetchLockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create fetch lock", err)
			os.Exit(1)
		}
		checks["redis"] = redisClient
	}

	catalog, bqClient, err := buildCatalog(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create dataset catalog", err)
		os.Exit(1)
	}
	if bqClient != nil {
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery client", err)
			}
		}()
		checks["bigquery"] = bqClient
	}

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	source, err := dataset.NewSource(dataset.SourceParams{
		Catalog:  catalog,
		Manifest: dataset.NewManifest(dbClient.DB()),
		Lock:     lock,
		Config:   cfg.Catalog,
		CacheDir: cfg.Cache.Dir,
		Logger:   logg,
		Metrics:  pipelineMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dataset source", err)
		os.Exit(1)
	}

	queries := analytics.NewRegistry(cfg.Analytics)

	runner, err := pipeline.NewRunner(pipeline.RunnerParams{
		Source:   source,
		Registry: queries,
		Logger:   logg,
		Metrics:  pipelineMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pipeline runner", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:   cfg,
		Logger:   logg,
		Runner:   runner,
		Registry: queries,
		Checks:   checks,
		Gatherer: registry,
	})

	port := cfg.App.Port
	if fromEnv := os.Getenv("PORT"); fromEnv != "" {
		port = fromEnv
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"port":    port,
		"catalog": strings.ToLower(cfg.Catalog.Kind),
	})
	logg.Info(ctx, "api listening")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "server stopped", err)
		os.Exit(1)
	}
}

// buildCatalog selects the catalog implementation from config. The bigquery
// client is returned so main can close it and register its health check.
func buildCatalog(ctx context.Context, cfg *config.Config, logg *logger.Logger) (dataset.Catalog, *pkgbq.Client, error) {
	switch strings.ToLower(cfg.Catalog.Kind) {
	case "bigquery":
		client, err := pkgbq.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			return nil, nil, err
		}
		catalog, err := dataset.NewBigQueryCatalog(client)
		if err != nil {
			return nil, nil, err
		}
		return catalog, client, nil
	default:
		if cfg.Catalog.Token == "" && cfg.App.IsProd() {
			logg.Warn(ctx, "catalog token not configured, requests will be unauthenticated; set "+config.EnvCatalogAuth)
		}
		httpClient := &http.Client{Timeout: cfg.Catalog.RequestTimeout}
		catalog, err := dataset.NewHTTPCatalog(cfg.Catalog.BaseURL, cfg.Catalog.Token, httpClient)
		if err != nil {
			return nil, nil, err
		}
		return catalog, nil, nil
	}
}
