package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/spinlytics/casino-analytics/api/responses"
	"github.com/spinlytics/casino-analytics/api/validators"
	"github.com/spinlytics/casino-analytics/internal/dataset"
	"github.com/spinlytics/casino-analytics/internal/pipeline"
	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
	"github.com/spinlytics/casino-analytics/pkg/logger"
)

func datasetName(r *http.Request) (string, error) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "dataset name is required")
	}
	return name, nil
}

// DatasetDescribe resolves the named dataset, downloading it on first use.
// ?force=true bypasses the cache the same way the refresh endpoint does.
func DatasetDescribe(runner *pipeline.Runner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		name, err := datasetName(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		force, err := validators.ParseQueryBool(r, "force", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var descriptor dataset.Descriptor
		if force {
			descriptor, err = runner.Refresh(ctx, name)
		} else {
			descriptor, err = runner.Describe(ctx, name)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, descriptor)
	}
}

// DatasetRefresh force-fetches the named dataset.
func DatasetRefresh(runner *pipeline.Runner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		name, err := datasetName(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		descriptor, err := runner.Refresh(ctx, name)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, descriptor)
	}
}
