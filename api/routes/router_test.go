package routes

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/spinlytics/casino-analytics/internal/analytics"
	"github.com/spinlytics/casino-analytics/internal/dataset"
	"github.com/spinlytics/casino-analytics/internal/pipeline"
	"github.com/spinlytics/casino-analytics/pkg/config"
	"github.com/spinlytics/casino-analytics/pkg/logger"
	"github.com/spinlytics/casino-analytics/pkg/metrics"
)

const sessionsCSV = `player_id,signup_date,session_start,bet_amount,win_amount,bonus_group
p1,2024-01-02,2024-01-15 10:00:00,12.50,5.00,treatment
p2,2024-01-02,2024-01-15 11:00:00,8.00,0,control
p3,2024-01-03,2024-01-16 09:00:00,20.00,1.00,treatment
`

func setupRouterDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS dataset_records (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  version TEXT NOT NULL,
  remote_ref TEXT NOT NULL,
  local_path TEXT NOT NULL,
  checksum TEXT NOT NULL,
  size_bytes INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  fetched_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_dataset_name_version ON dataset_records (name, version);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	sum := sha256.Sum256([]byte(sessionsCSV))
	checksum := hex.EncodeToString(sum[:])

	mux := http.NewServeMux()
	var catalogServer *httptest.Server
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		entries := []dataset.Entry{{
			Name:      "sessions",
			Version:   "v1",
			RemoteRef: catalogServer.URL + "/files/sessions.csv",
			Checksum:  checksum,
		}}
		require.NoError(t, json.NewEncoder(w).Encode(entries))
	})
	mux.HandleFunc("/files/sessions.csv", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sessionsCSV)
	})
	catalogServer = httptest.NewServer(mux)
	t.Cleanup(catalogServer.Close)

	catalog, err := dataset.NewHTTPCatalog(catalogServer.URL, "", catalogServer.Client())
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	logg := logger.New(logger.Options{ServiceName: "test"})

	source, err := dataset.NewSource(dataset.SourceParams{
		Catalog:  catalog,
		Manifest: dataset.NewManifest(setupRouterDB(t)),
		CacheDir: t.TempDir(),
		Logger:   logg,
		Metrics:  pipelineMetrics,
		Config: config.CatalogConfig{
			RetryAttempts:  2,
			RetryBaseDelay: time.Millisecond,
		},
	})
	require.NoError(t, err)

	queries := analytics.NewRegistry(config.AnalyticsConfig{
		MinSampleSize:  30,
		FraudVelocity:  0.4,
		FraudDeviceIP:  0.35,
		FraudWinStreak: 0.25,
	})

	runner, err := pipeline.NewRunner(pipeline.RunnerParams{
		Source:   source,
		Registry: queries,
		Logger:   logg,
		Metrics:  pipelineMetrics,
	})
	require.NoError(t, err)

	return NewRouter(RouterParams{
		Config:   &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:   logg,
		Runner:   runner,
		Registry: queries,
		Gatherer: registry,
	})
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health/live", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Spinlytics-Env"))
}

func TestHealthReadyWithoutChecks(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health/ready", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyticsList(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/analytics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []struct {
			Name            string   `json:"name"`
			RequiredColumns []string `json:"required_columns"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	names := make([]string, 0, len(envelope.Data))
	for _, m := range envelope.Data {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{
		"bonus_lift", "engagement", "fraud_score", "leaderboard",
		"ltv", "retention", "segmentation",
	}, names)
}

func TestAnalyticsRunEngagement(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/analytics/engagement",
		`{"dataset":"sessions"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data struct {
			RunID   string `json:"run_id"`
			Dataset struct {
				Version string `json:"version"`
			} `json:"dataset"`
			Results []struct {
				Metric string `json:"metric"`
				Value  string `json:"value"`
			} `json:"results"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	assert.NotEmpty(t, envelope.Data.RunID)
	assert.Equal(t, "v1", envelope.Data.Dataset.Version)

	found := false
	for _, r := range envelope.Data.Results {
		if r.Metric == "engagement_players" {
			found = true
			got, err := decimal.NewFromString(r.Value)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.NewFromInt(3)), "got %s", r.Value)
		}
	}
	assert.True(t, found, "engagement_players missing from results")
}

func TestAnalyticsRunUnknownMetric(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/analytics/mystery",
		`{"dataset":"sessions"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestAnalyticsRunMissingDataset(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/analytics/engagement", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestDatasetDescribeAndRefresh(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/datasets/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data dataset.Descriptor `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "v1", envelope.Data.Version)
	assert.NotEmpty(t, envelope.Data.Checksum)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/datasets/sessions/refresh", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestDatasetDescribeUnknown(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/datasets/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	_ = doRequest(t, router, http.MethodPost, "/api/v1/analytics/engagement",
		`{"dataset":"sessions"}`)

	rec := doRequest(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dataset_fetch_total")
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health/live", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
