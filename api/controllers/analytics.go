package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/spinlytics/casino-analytics/api/responses"
	"github.com/spinlytics/casino-analytics/api/validators"
	"github.com/spinlytics/casino-analytics/internal/analytics"
	"github.com/spinlytics/casino-analytics/internal/pipeline"
	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
	"github.com/spinlytics/casino-analytics/pkg/logger"
)

type analyticsRunRequest struct {
	Dataset string           `json:"dataset" validate:"required"`
	Params  analytics.Params `json:"params"`
}

// AnalyticsRun executes the metric named in the path against the requested
// dataset.
func AnalyticsRun(runner *pipeline.Runner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		metric := strings.TrimSpace(chi.URLParam(r, "metric"))
		if metric == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "metric name is required"))
			return
		}

		var req analyticsRunRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := runner.Run(ctx, req.Dataset, metric, req.Params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type metricInfo struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	RequiredColumns []string `json:"required_columns"`
}

// AnalyticsList describes every registered metric.
func AnalyticsList(registry *analytics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics := make([]metricInfo, 0, len(registry.Names()))
		for _, name := range registry.Names() {
			q, _ := registry.Get(name)
			metrics = append(metrics, metricInfo{
				Name:            q.Name,
				Description:     q.Description,
				RequiredColumns: q.RequiredColumns,
			})
		}
		responses.WriteSuccess(w, metrics)
	}
}
