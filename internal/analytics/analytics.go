// Package analytics is a registry of pure, named queries over normalized
// tables. Queries never mutate their input and never substitute defaults
// silently: a value that cannot be computed comes back null with an explicit
// degradation reason.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spinlytics/casino-analytics/internal/table"
	"github.com/spinlytics/casino-analytics/pkg/config"
)

// Degradation reasons attached to null-valued results.
const (
	DegradedEmptyCohort        = "empty_cohort"
	DegradedInsufficientSample = "insufficient_sample"
	DegradedNoBets             = "no_bets"
)

// Result is one computed metric value. Value is null when the query could
// not produce a number, in which case Degraded names the reason.
type Result struct {
	Metric     string              `json:"metric"`
	Group      map[string]string   `json:"group,omitempty"`
	Value      decimal.NullDecimal `json:"value"`
	SampleSize int                 `json:"sample_size,omitempty"`
	Degraded   string              `json:"degraded,omitempty"`
	ComputedAt time.Time           `json:"computed_at"`
}

// Params tunes a single query run. Zero values fall back to per-query
// defaults.
type Params struct {
	Period         string `json:"period,omitempty" validate:"omitempty,oneof=day week month"`
	GroupColumn    string `json:"group_column,omitempty"`
	OutcomeColumn  string `json:"outcome_column,omitempty"`
	TreatmentValue string `json:"treatment_value,omitempty"`
	ControlValue   string `json:"control_value,omitempty"`
	TopN           int    `json:"top_n,omitempty" validate:"omitempty,min=1,max=1000"`
	By             string `json:"by,omitempty" validate:"omitempty,oneof=wagered net"`
	HorizonDays    int    `json:"horizon_days,omitempty" validate:"omitempty,min=1,max=3650"`
}

// Query is one registered metric computation.
type Query struct {
	Name            string
	Description     string
	RequiredColumns []string
	Run             func(ctx context.Context, tbl *table.Table, cfg config.AnalyticsConfig, p Params) ([]Result, error)
}

func newResult(metric string, group map[string]string, value float64, sample int) Result {
	return Result{
		Metric:     metric,
		Group:      group,
		Value:      decimal.NullDecimal{Decimal: decimal.NewFromFloat(value).Round(6), Valid: true},
		SampleSize: sample,
		ComputedAt: time.Now().UTC(),
	}
}

func newDegradedResult(metric string, group map[string]string, reason string, sample int) Result {
	return Result{
		Metric:     metric,
		Group:      group,
		SampleSize: sample,
		Degraded:   reason,
		ComputedAt: time.Now().UTC(),
	}
}

// columnFloats extracts the non-null rows of a numeric column, keeping the
// row indexes aligned so callers can join against other columns.
func columnFloats(col *table.Column) (values []float64, rows []int) {
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		v, err := col.Float(i)
		if err != nil {
			continue
		}
		values = append(values, v)
		rows = append(rows, i)
	}
	return values, rows
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleVariance is the Bessel-corrected variance.
func sampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values)-1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
