package analytics

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/spinlytics/casino-analytics/internal/table"
	"github.com/spinlytics/casino-analytics/pkg/config"
)

// retentionQuery cohorts players by signup period and reports the fraction
// still active N periods later.
func retentionQuery() Query {
	return Query{
		Name:            "retention",
		Description:     "cohort retention by signup period",
		RequiredColumns: []string{"player_id", "signup_date", "session_start"},
		Run:             runRetention,
	}
}

func runRetention(_ context.Context, tbl *table.Table, cfg config.AnalyticsConfig, p Params) ([]Result, error) {
	players := tbl.Column("player_id")
	signups := tbl.Column("signup_date")
	starts := tbl.Column("session_start")
	period := p.period(cfg)

	type cohortKey struct {
		start time.Time
	}
	cohortMembers := map[cohortKey]map[string]struct{}{}
	// cohort -> period offset -> active players
	cohortActive := map[cohortKey]map[int]map[string]struct{}{}
	playerCohort := map[string]cohortKey{}

	for i := 0; i < tbl.NumRows(); i++ {
		if players.IsNull(i) || signups.IsNull(i) {
			continue
		}
		id := players.String(i)
		key := cohortKey{start: periodStart(signups.Time(i), period)}
		playerCohort[id] = key
		if cohortMembers[key] == nil {
			cohortMembers[key] = map[string]struct{}{}
		}
		cohortMembers[key][id] = struct{}{}
	}

	maxOffset := 0
	for i := 0; i < tbl.NumRows(); i++ {
		if players.IsNull(i) || starts.IsNull(i) {
			continue
		}
		id := players.String(i)
		key, ok := playerCohort[id]
		if !ok {
			continue
		}
		offset := periodsBetween(key.start, starts.Time(i).UTC(), period)
		if cohortActive[key] == nil {
			cohortActive[key] = map[int]map[string]struct{}{}
		}
		if cohortActive[key][offset] == nil {
			cohortActive[key][offset] = map[string]struct{}{}
		}
		cohortActive[key][offset][id] = struct{}{}
		if offset > maxOffset {
			maxOffset = offset
		}
	}

	keys := make([]cohortKey, 0, len(cohortMembers))
	for key := range cohortMembers {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].start.Before(keys[j].start) })

	var results []Result
	for _, key := range keys {
		cohort := key.start.Format("2006-01-02")
		size := len(cohortMembers[key])
		for offset := 0; offset <= maxOffset; offset++ {
			group := map[string]string{
				"cohort": cohort,
				"period": strconv.Itoa(offset),
			}
			if size == 0 {
				results = append(results, newDegradedResult("retention", group, DegradedEmptyCohort, 0))
				continue
			}
			active := len(cohortActive[key][offset])
			results = append(results, newResult("retention", group, float64(active)/float64(size), size))
		}
	}
	return results, nil
}
