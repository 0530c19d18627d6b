package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spinlytics/casino-analytics/internal/table"
)

// Default timestamp layouts, tried in order. Matches the date shapes seen in
// casino exports: ISO dates, ISO datetimes, and US slash dates.
var defaultLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

var currencyReplacer = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")

// Coerced holds one successfully coerced cell. Only the field matching Kind
// is meaningful.
type Coerced struct {
	Kind table.Kind
	Str  string
	Time time.Time
	Dec  decimal.Decimal
	F    float64
	I    int64
	B    bool
}

// Coerce casts a raw cell to the field's kind. It is the single coercion
// path used by both the validator (probing) and the normalizer (writing), so
// the report always agrees with what normalization would do.
func Coerce(raw string, spec FieldSpec) (Coerced, error) {
	raw = strings.TrimSpace(raw)
	switch spec.Kind {
	case table.KindString:
		return Coerced{Kind: spec.Kind, Str: raw}, nil

	case table.KindCategorical:
		if len(spec.Categories) > 0 && !containsFold(spec.Categories, raw) {
			return Coerced{}, fmt.Errorf("value %q not in allowed categories", raw)
		}
		return Coerced{Kind: spec.Kind, Str: raw}, nil

	case table.KindTimestamp:
		layouts := spec.Layouts
		if len(layouts) == 0 {
			layouts = defaultLayouts
		}
		for _, layout := range layouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return Coerced{Kind: spec.Kind, Time: ts.UTC()}, nil
			}
		}
		return Coerced{}, fmt.Errorf("value %q matches no timestamp layout", raw)

	case table.KindDecimal:
		cleaned := currencyReplacer.Replace(raw)
		dec, err := decimal.NewFromString(cleaned)
		if err != nil {
			return Coerced{}, fmt.Errorf("value %q is not a decimal amount", raw)
		}
		return Coerced{Kind: spec.Kind, Dec: dec}, nil

	case table.KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Coerced{}, fmt.Errorf("value %q is not a float", raw)
		}
		return Coerced{Kind: spec.Kind, F: f}, nil

	case table.KindInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Coerced{}, fmt.Errorf("value %q is not an integer", raw)
		}
		return Coerced{Kind: spec.Kind, I: i}, nil

	case table.KindBool:
		b, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return Coerced{}, fmt.Errorf("value %q is not a boolean", raw)
		}
		return Coerced{Kind: spec.Kind, B: b}, nil
	}
	return Coerced{}, fmt.Errorf("unknown kind %q", spec.Kind)
}

// InRange checks the coerced value against the field's numeric bounds.
// Non-numeric kinds are always in range.
func InRange(c Coerced, spec FieldSpec) bool {
	if spec.Min == nil && spec.Max == nil {
		return true
	}
	var v float64
	switch c.Kind {
	case table.KindDecimal:
		v, _ = c.Dec.Float64()
	case table.KindFloat:
		v = c.F
	case table.KindInt:
		v = float64(c.I)
	default:
		return true
	}
	if spec.Min != nil && v < *spec.Min {
		return false
	}
	if spec.Max != nil && v > *spec.Max {
		return false
	}
	return true
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}
