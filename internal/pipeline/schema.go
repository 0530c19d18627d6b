package pipeline

import (
	"github.com/spinlytics/casino-analytics/internal/schema"
	"github.com/spinlytics/casino-analytics/internal/table"
)

// DefaultSchema is the column contract for the casino session datasets the
// service ships with. Monetary cells arrive as currency strings and dates in
// several layouts; the normalizer settles both.
func DefaultSchema() schema.Schema {
	zero := 0.0
	return schema.Schema{
		"player_id": {
			Kind:     table.KindString,
			Required: true,
			Missing:  schema.MissingDrop,
		},
		"signup_date": {
			Kind:    table.KindTimestamp,
			Missing: schema.MissingDrop,
			Invalid: schema.InvalidDrop,
		},
		"session_start": {
			Kind:     table.KindTimestamp,
			Required: true,
			Invalid:  schema.InvalidDrop,
		},
		"bet_amount": {
			Kind:     table.KindDecimal,
			Required: true,
			Min:      &zero,
			Invalid:  schema.InvalidNull,
		},
		"win_amount": {
			Kind:    table.KindDecimal,
			Min:     &zero,
			Missing: schema.MissingDefault,
			Default: "0",
		},
		"game": {
			Kind: table.KindCategorical,
		},
		"device_id": {
			Kind: table.KindString,
		},
		"ip_address": {
			Kind: table.KindString,
		},
		"bonus_group": {
			Kind:       table.KindCategorical,
			Categories: []string{"treatment", "control"},
			Invalid:    schema.InvalidNull,
		},
		"country": {
			Kind: table.KindCategorical,
		},
	}
}
