// Package pipeline executes one synchronous analytics run: resolve the
// dataset, load it, validate, normalize, and run the requested query. Each
// run owns its table handle; nothing is shared between runs.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spinlytics/casino-analytics/internal/analytics"
	"github.com/spinlytics/casino-analytics/internal/dataset"
	"github.com/spinlytics/casino-analytics/internal/normalize"
	"github.com/spinlytics/casino-analytics/internal/schema"
	"github.com/spinlytics/casino-analytics/internal/table"
	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
	"github.com/spinlytics/casino-analytics/pkg/logger"
	"github.com/spinlytics/casino-analytics/pkg/metrics"
)

// Runner wires the pipeline stages together.
type Runner struct {
	source   *dataset.Source
	registry *analytics.Registry
	schemas  map[string]schema.Schema
	logg     *logger.Logger
	metrics  *metrics.PipelineMetrics
}

// RunnerParams configures a Runner. Schemas maps dataset names to their
// normalization schema; datasets without an entry fall back to DefaultSchema.
type RunnerParams struct {
	Source   *dataset.Source
	Registry *analytics.Registry
	Schemas  map[string]schema.Schema
	Logger   *logger.Logger
	Metrics  *metrics.PipelineMetrics
}

func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "dataset source is required")
	}
	if params.Registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "analytics registry is required")
	}
	return &Runner{
		source:   params.Source,
		registry: params.Registry,
		schemas:  params.Schemas,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// RunResult is the full outcome of one pipeline run.
type RunResult struct {
	RunID      string            `json:"run_id"`
	Dataset    dataset.Descriptor `json:"dataset"`
	Report     schema.Report      `json:"report"`
	Results    []analytics.Result `json:"results"`
	DurationMS int64              `json:"duration_ms"`
}

// Run executes the named query against the named dataset.
func (r *Runner) Run(ctx context.Context, datasetName, metric string, params analytics.Params) (RunResult, error) {
	runID := uuid.NewString()
	started := time.Now()
	if r.logg != nil {
		ctx = r.logg.WithRunID(ctx, runID)
		ctx = r.logg.WithDataset(ctx, datasetName)
		ctx = r.logg.WithMetric(ctx, metric)
	}

	tbl, report, descriptor, err := r.prepare(ctx, datasetName, false)
	if err != nil {
		return RunResult{}, err
	}

	results, err := r.registry.Run(ctx, metric, tbl, params)
	if err != nil {
		r.metrics.IncQueryFailure(metric)
		return RunResult{}, err
	}
	r.metrics.ObserveQueryDuration(metric, time.Since(started))

	if r.logg != nil {
		r.logg.Info(ctx, "pipeline run complete")
	}
	return RunResult{
		RunID:      runID,
		Dataset:    descriptor,
		Report:     report,
		Results:    results,
		DurationMS: time.Since(started).Milliseconds(),
	}, nil
}

// Refresh force-fetches the named dataset, replacing the cached version.
func (r *Runner) Refresh(ctx context.Context, datasetName string) (dataset.Descriptor, error) {
	return r.source.EnsureAvailable(ctx, datasetName, true)
}

// Describe resolves the named dataset without forcing a download.
func (r *Runner) Describe(ctx context.Context, datasetName string) (dataset.Descriptor, error) {
	return r.source.EnsureAvailable(ctx, datasetName, false)
}

// prepare runs the ingest half of the pipeline and hands the normalized
// table to the caller.
func (r *Runner) prepare(ctx context.Context, datasetName string, force bool) (*table.Table, schema.Report, dataset.Descriptor, error) {
	descriptor, err := r.source.EnsureAvailable(ctx, datasetName, force)
	if err != nil {
		return nil, schema.Report{}, dataset.Descriptor{}, err
	}

	raw, err := table.FromCSVFile(descriptor.LocalPath)
	if err != nil {
		return nil, schema.Report{}, descriptor, pkgerrors.Wrap(pkgerrors.CodeIntegrity, err, "loading cached dataset").
			WithDetails(map[string]any{"dataset": datasetName})
	}

	s := r.schemaFor(datasetName)
	report, err := schema.Validate(raw, s)
	if err != nil {
		return nil, schema.Report{}, descriptor, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validating dataset")
	}
	if report.Abort(s) {
		return nil, report, descriptor, pkgerrors.New(pkgerrors.CodeMissingColumns, "dataset lacks required columns").
			WithDetails(map[string]any{"dataset": datasetName, "missing": report.MissingRequired(s)})
	}

	tbl, report, err := normalize.Normalize(raw, s, report)
	if err != nil {
		return nil, report, descriptor, err
	}
	r.metrics.AddRowsDropped(datasetName, report.DroppedRows)
	if r.logg != nil && report.DroppedRows > 0 {
		r.logg.Warn(r.logg.WithField(ctx, "dropped_rows", report.DroppedRows), "normalization dropped rows")
	}
	return tbl, report, descriptor, nil
}

func (r *Runner) schemaFor(name string) schema.Schema {
	if s, ok := r.schemas[name]; ok {
		return s
	}
	return DefaultSchema()
}
