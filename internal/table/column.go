package table

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the semantic type of a column.
type Kind string

const (
	KindString      Kind = "string"
	KindTimestamp   Kind = "timestamp"
	KindDecimal     Kind = "decimal"
	KindFloat       Kind = "float"
	KindInt         Kind = "int"
	KindCategorical Kind = "categorical"
	KindBool        Kind = "bool"
)

// IsValid reports whether the kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindString, KindTimestamp, KindDecimal, KindFloat, KindInt, KindCategorical, KindBool:
		return true
	}
	return false
}

// Column is one typed, ordered column with a per-row null mask. Only the
// slice matching Kind is populated.
type Column struct {
	Name string
	Kind Kind

	strings  []string
	times    []time.Time
	decimals []decimal.Decimal
	floats   []float64
	ints     []int64
	bools    []bool
	nulls    []bool
}

// NewColumn allocates an empty column of the given kind.
func NewColumn(name string, kind Kind) *Column {
	return &Column{Name: name, Kind: kind}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	return len(c.nulls)
}

// IsNull reports whether row i holds no value.
func (c *Column) IsNull(i int) bool {
	return c.nulls[i]
}

// NullCount returns the number of null rows.
func (c *Column) NullCount() int {
	n := 0
	for _, isNull := range c.nulls {
		if isNull {
			n++
		}
	}
	return n
}

// AppendNull adds a null row.
func (c *Column) AppendNull() {
	c.nulls = append(c.nulls, true)
	switch c.Kind {
	case KindString, KindCategorical:
		c.strings = append(c.strings, "")
	case KindTimestamp:
		c.times = append(c.times, time.Time{})
	case KindDecimal:
		c.decimals = append(c.decimals, decimal.Zero)
	case KindFloat:
		c.floats = append(c.floats, 0)
	case KindInt:
		c.ints = append(c.ints, 0)
	case KindBool:
		c.bools = append(c.bools, false)
	}
}

// AppendString adds a string or categorical value.
func (c *Column) AppendString(v string) {
	c.strings = append(c.strings, v)
	c.nulls = append(c.nulls, false)
}

// AppendTime adds a timestamp value.
func (c *Column) AppendTime(v time.Time) {
	c.times = append(c.times, v)
	c.nulls = append(c.nulls, false)
}

// AppendDecimal adds a decimal value.
func (c *Column) AppendDecimal(v decimal.Decimal) {
	c.decimals = append(c.decimals, v)
	c.nulls = append(c.nulls, false)
}

// AppendFloat adds a float value.
func (c *Column) AppendFloat(v float64) {
	c.floats = append(c.floats, v)
	c.nulls = append(c.nulls, false)
}

// AppendInt adds an integer value.
func (c *Column) AppendInt(v int64) {
	c.ints = append(c.ints, v)
	c.nulls = append(c.nulls, false)
}

// AppendBool adds a boolean value.
func (c *Column) AppendBool(v bool) {
	c.bools = append(c.bools, v)
	c.nulls = append(c.nulls, false)
}

// String returns the string value at row i. Valid for string and categorical
// columns.
func (c *Column) String(i int) string {
	return c.strings[i]
}

// Time returns the timestamp at row i.
func (c *Column) Time(i int) time.Time {
	return c.times[i]
}

// Decimal returns the decimal at row i.
func (c *Column) Decimal(i int) decimal.Decimal {
	return c.decimals[i]
}

// Float returns a float64 view of row i, coercing across numeric kinds.
func (c *Column) Float(i int) (float64, error) {
	switch c.Kind {
	case KindFloat:
		return c.floats[i], nil
	case KindInt:
		return float64(c.ints[i]), nil
	case KindDecimal:
		f, _ := c.decimals[i].Float64()
		return f, nil
	case KindBool:
		if c.bools[i] {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("column %s (%s) has no numeric view", c.Name, c.Kind)
}

// Int returns the integer at row i.
func (c *Column) Int(i int) int64 {
	return c.ints[i]
}

// Bool returns the boolean at row i.
func (c *Column) Bool(i int) bool {
	return c.bools[i]
}

// filter returns a copy of the column keeping only rows where keep[i] is true.
func (c *Column) filter(keep []bool) *Column {
	out := NewColumn(c.Name, c.Kind)
	for i := range c.nulls {
		if !keep[i] {
			continue
		}
		if c.nulls[i] {
			out.AppendNull()
			continue
		}
		switch c.Kind {
		case KindString, KindCategorical:
			out.AppendString(c.strings[i])
		case KindTimestamp:
			out.AppendTime(c.times[i])
		case KindDecimal:
			out.AppendDecimal(c.decimals[i])
		case KindFloat:
			out.AppendFloat(c.floats[i])
		case KindInt:
			out.AppendInt(c.ints[i])
		case KindBool:
			out.AppendBool(c.bools[i])
		}
	}
	return out
}
