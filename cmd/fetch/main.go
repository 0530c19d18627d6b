package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spinlytics/casino-analytics/internal/dataset"
	pkgbq "github.com/spinlytics/casino-analytics/pkg/bigquery"
	"github.com/spinlytics/casino-analytics/pkg/config"
	"github.com/spinlytics/casino-analytics/pkg/db"
	"github.com/spinlytics/casino-analytics/pkg/logger"
	"github.com/spinlytics/casino-analytics/pkg/migrate"
)

// fetch pulls one dataset into the local cache ahead of time, so the first
// API request against it does not pay the download.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "fetch"})

	_ = godotenv.Load()

	name := flag.String("dataset", "", "dataset name to fetch")
	force := flag.Bool("force", false, "refetch even when the cache already holds a copy")
	flag.Parse()

	if *name == "" {
		logg.Error(ctx, "missing -dataset flag", nil)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "fetch",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithDataset(ctx, *name)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run manifest migrations", err)
		os.Exit(1)
	}

	catalog, closeCatalog, err := buildCatalog(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to create dataset catalog", err)
		os.Exit(1)
	}
	defer closeCatalog()

	source, err := dataset.NewSource(dataset.SourceParams{
		Catalog:  catalog,
		Manifest: dataset.NewManifest(dbClient.DB()),
		Config:   cfg.Catalog,
		CacheDir: cfg.Cache.Dir,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create dataset source", err)
		os.Exit(1)
	}

	descriptor, err := source.EnsureAvailable(ctx, *name, *force)
	if err != nil {
		logg.Error(ctx, "fetch failed", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(descriptor, "", "  ")
	os.Stdout.Write(append(out, '\n'))
}

func buildCatalog(ctx context.Context, cfg *config.Config, logg *logger.Logger) (dataset.Catalog, func(), error) {
	if strings.EqualFold(cfg.Catalog.Kind, "bigquery") {
		client, err := pkgbq.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			return nil, nil, err
		}
		catalog, err := dataset.NewBigQueryCatalog(client)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return catalog, func() { client.Close() }, nil
	}

	httpClient := &http.Client{Timeout: cfg.Catalog.RequestTimeout}
	catalog, err := dataset.NewHTTPCatalog(cfg.Catalog.BaseURL, cfg.Catalog.Token, httpClient)
	if err != nil {
		return nil, nil, err
	}
	return catalog, func() {}, nil
}
