package analytics

import (
	"context"
	"sort"

	"github.com/spinlytics/casino-analytics/internal/table"
	"github.com/spinlytics/casino-analytics/pkg/config"
	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
)

// Registry holds the available queries. Lookups and runs are read-only after
// construction, so a single registry is safe to share across requests.
type Registry struct {
	cfg     config.AnalyticsConfig
	queries map[string]Query
}

// NewRegistry builds a registry with every built-in query registered.
func NewRegistry(cfg config.AnalyticsConfig) *Registry {
	r := &Registry{
		cfg:     cfg,
		queries: map[string]Query{},
	}
	for _, q := range []Query{
		engagementQuery(),
		retentionQuery(),
		bonusLiftQuery(),
		fraudScoreQuery(),
		segmentationQuery(),
		ltvQuery(),
		leaderboardQuery(),
	} {
		r.queries[q.Name] = q
	}
	return r
}

// Names returns the registered metric names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.queries))
	for name := range r.queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named query.
func (r *Registry) Get(name string) (Query, bool) {
	q, ok := r.queries[name]
	return q, ok
}

// Run executes the named query after checking its column requirements
// against the table.
func (r *Registry) Run(ctx context.Context, name string, tbl *table.Table, p Params) ([]Result, error) {
	q, ok := r.queries[name]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown analytics metric").
			WithDetails(map[string]any{"metric": name, "available": r.Names()})
	}
	if tbl == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table is required")
	}
	required := append([]string{}, q.RequiredColumns...)
	if extra := p.requiredColumns(q); len(extra) > 0 {
		required = append(required, extra...)
	}
	if missing := tbl.MissingColumns(required); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeMissingColumns, "table lacks columns the metric needs").
			WithDetails(map[string]any{"metric": name, "missing": missing})
	}
	return q.Run(ctx, tbl, r.cfg, p)
}

// requiredColumns returns param-driven column requirements on top of the
// query's static list.
func (p Params) requiredColumns(q Query) []string {
	var cols []string
	if q.Name == "bonus_lift" {
		cols = append(cols, p.groupColumn(), p.outcomeColumn())
	}
	return cols
}

func (p Params) groupColumn() string {
	if p.GroupColumn != "" {
		return p.GroupColumn
	}
	return "bonus_group"
}

func (p Params) outcomeColumn() string {
	if p.OutcomeColumn != "" {
		return p.OutcomeColumn
	}
	return "bet_amount"
}

func (p Params) treatmentValue() string {
	if p.TreatmentValue != "" {
		return p.TreatmentValue
	}
	return "treatment"
}

func (p Params) controlValue() string {
	if p.ControlValue != "" {
		return p.ControlValue
	}
	return "control"
}

func (p Params) topN() int {
	if p.TopN > 0 {
		return p.TopN
	}
	return 10
}

// period resolves the cohort period: request params win, then the configured
// default, then weekly.
func (p Params) period(cfg config.AnalyticsConfig) string {
	if p.Period != "" {
		return p.Period
	}
	if cfg.RetentionPeriod != "" {
		return cfg.RetentionPeriod
	}
	return "week"
}

func (p Params) horizonDays() int {
	if p.HorizonDays > 0 {
		return p.HorizonDays
	}
	return 90
}
