package analytics

import (
	"context"
	"math"

	"github.com/spinlytics/casino-analytics/internal/table"
	"github.com/spinlytics/casino-analytics/pkg/config"
)

// welchCriticalValue approximates the two-sided 95% threshold for the large
// samples the minimum-size gate already guarantees.
const welchCriticalValue = 1.96

// bonusLiftQuery compares an outcome column between a treatment and a
// control group.
func bonusLiftQuery() Query {
	return Query{
		Name:            "bonus_lift",
		Description:     "treatment vs control effect on an outcome column",
		RequiredColumns: []string{"player_id"},
		Run:             runBonusLift,
	}
}

func runBonusLift(_ context.Context, tbl *table.Table, cfg config.AnalyticsConfig, p Params) ([]Result, error) {
	groups := tbl.Column(p.groupColumn())
	outcomes := tbl.Column(p.outcomeColumn())

	var treatment, control []float64
	for i := 0; i < tbl.NumRows(); i++ {
		if groups.IsNull(i) || outcomes.IsNull(i) {
			continue
		}
		v, err := outcomes.Float(i)
		if err != nil {
			continue
		}
		switch groups.String(i) {
		case p.treatmentValue():
			treatment = append(treatment, v)
		case p.controlValue():
			control = append(control, v)
		}
	}

	group := map[string]string{
		"treatment": p.treatmentValue(),
		"control":   p.controlValue(),
		"outcome":   p.outcomeColumn(),
	}
	sample := len(treatment) + len(control)

	minSize := cfg.MinSampleSize
	if len(treatment) < minSize || len(control) < minSize {
		return []Result{
			newDegradedResult("bonus_lift", group, DegradedInsufficientSample, sample),
		}, nil
	}

	lift := mean(treatment) - mean(control)
	t := welchT(treatment, control)

	results := []Result{
		newResult("bonus_lift", group, lift, sample),
		newResult("bonus_lift_t_stat", group, t, sample),
	}
	significant := 0.0
	if math.Abs(t) >= welchCriticalValue {
		significant = 1.0
	}
	results = append(results, newResult("bonus_lift_significant", group, significant, sample))
	return results, nil
}

// welchT computes Welch's t statistic for two independent samples with
// unequal variances.
func welchT(a, b []float64) float64 {
	va := sampleVariance(a) / float64(len(a))
	vb := sampleVariance(b) / float64(len(b))
	denom := math.Sqrt(va + vb)
	if denom == 0 {
		return 0
	}
	return (mean(a) - mean(b)) / denom
}
