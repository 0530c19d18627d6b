package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spinlytics/casino-analytics/api/controllers"
	"github.com/spinlytics/casino-analytics/api/middleware"
	"github.com/spinlytics/casino-analytics/internal/analytics"
	"github.com/spinlytics/casino-analytics/internal/pipeline"
	"github.com/spinlytics/casino-analytics/pkg/config"
	"github.com/spinlytics/casino-analytics/pkg/logger"
)

// RouterParams carries everything the HTTP surface needs. Pingers may be nil
// when the deployment runs without that dependency.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Runner   *pipeline.Runner
	Registry *analytics.Registry
	Checks   map[string]controllers.Pinger
	Gatherer prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(params.Logger),
		middleware.RequestID(params.Logger),
		middleware.Logging(params.Logger),
		middleware.CORS(params.Config.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
		r.Get("/ready", controllers.HealthReady(params.Config, params.Logger, params.Checks))
	})

	if params.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/datasets", func(r chi.Router) {
			r.Get("/{name}", controllers.DatasetDescribe(params.Runner, params.Logger))
			r.Post("/{name}/refresh", controllers.DatasetRefresh(params.Runner, params.Logger))
		})
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/", controllers.AnalyticsList(params.Registry))
			r.Post("/{metric}", controllers.AnalyticsRun(params.Runner, params.Logger))
		})
	})

	return r
}
