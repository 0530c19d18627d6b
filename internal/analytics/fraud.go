package analytics

import (
	"context"
	"sort"

	"github.com/spinlytics/casino-analytics/internal/table"
	"github.com/spinlytics/casino-analytics/pkg/config"
)

// Indicator saturation points. An indicator at or beyond its cap contributes
// its full weight.
const (
	velocityCap  = 20.0 // bets per hour
	reuseCap     = 5.0  // distinct players sharing a device or IP
	winStreakCap = 10.0 // consecutive winning bets
)

// fraudScoreQuery scores each player on weighted risk indicators. The score
// grows with every indicator and never leaves [0, 100].
func fraudScoreQuery() Query {
	return Query{
		Name:            "fraud_score",
		Description:     "weighted composite of velocity, device/IP reuse, and win-streak indicators",
		RequiredColumns: []string{"player_id", "session_start", "bet_amount", "win_amount", "device_id", "ip_address"},
		Run:             runFraudScore,
	}
}

type playerActivity struct {
	seen                bool
	firstSeen, lastSeen int64 // unix seconds
	bets                int
	devices             map[string]struct{}
	ips                 map[string]struct{}
	streak, maxStreak   int
}

func runFraudScore(_ context.Context, tbl *table.Table, cfg config.AnalyticsConfig, _ Params) ([]Result, error) {
	players := tbl.Column("player_id")
	starts := tbl.Column("session_start")
	bets := tbl.Column("bet_amount")
	wins := tbl.Column("win_amount")
	devices := tbl.Column("device_id")
	ips := tbl.Column("ip_address")

	activity := map[string]*playerActivity{}
	deviceUsers := map[string]map[string]struct{}{}
	ipUsers := map[string]map[string]struct{}{}

	for i := 0; i < tbl.NumRows(); i++ {
		if players.IsNull(i) {
			continue
		}
		id := players.String(i)
		act := activity[id]
		if act == nil {
			act = &playerActivity{devices: map[string]struct{}{}, ips: map[string]struct{}{}}
			activity[id] = act
		}

		if !starts.IsNull(i) {
			ts := starts.Time(i).UTC().Unix()
			if !act.seen || ts < act.firstSeen {
				act.firstSeen = ts
			}
			if !act.seen || ts > act.lastSeen {
				act.lastSeen = ts
			}
			act.seen = true
		}
		if !bets.IsNull(i) {
			act.bets++
		}
		if !devices.IsNull(i) {
			device := devices.String(i)
			act.devices[device] = struct{}{}
			if deviceUsers[device] == nil {
				deviceUsers[device] = map[string]struct{}{}
			}
			deviceUsers[device][id] = struct{}{}
		}
		if !ips.IsNull(i) {
			ip := ips.String(i)
			act.ips[ip] = struct{}{}
			if ipUsers[ip] == nil {
				ipUsers[ip] = map[string]struct{}{}
			}
			ipUsers[ip][id] = struct{}{}
		}
		if !bets.IsNull(i) && !wins.IsNull(i) {
			bet, errB := bets.Float(i)
			win, errW := wins.Float(i)
			if errB == nil && errW == nil && win > bet {
				act.streak++
				if act.streak > act.maxStreak {
					act.maxStreak = act.streak
				}
			} else {
				act.streak = 0
			}
		}
	}

	ids := make([]string, 0, len(activity))
	for id := range activity {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		act := activity[id]

		hours := float64(act.lastSeen-act.firstSeen) / 3600
		if hours < 1 {
			hours = 1
		}
		velocity := clamp(float64(act.bets)/hours/velocityCap, 0, 1)

		maxShared := 0
		for device := range act.devices {
			if n := len(deviceUsers[device]); n > maxShared {
				maxShared = n
			}
		}
		for ip := range act.ips {
			if n := len(ipUsers[ip]); n > maxShared {
				maxShared = n
			}
		}
		reuse := 0.0
		if maxShared > 1 {
			reuse = clamp(float64(maxShared-1)/(reuseCap-1), 0, 1)
		}

		streak := clamp(float64(act.maxStreak)/winStreakCap, 0, 1)

		score := 100 * (cfg.FraudVelocity*velocity + cfg.FraudDeviceIP*reuse + cfg.FraudWinStreak*streak)
		score = clamp(score, 0, 100)

		results = append(results, newResult("fraud_score",
			map[string]string{"player_id": id}, score, act.bets))
	}
	return results, nil
}
