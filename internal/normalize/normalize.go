// Package normalize coerces a raw string table into the typed table the
// analytics layer consumes, applying each field's missing/invalid policy.
package normalize

import (
	"fmt"

	"github.com/spinlytics/casino-analytics/internal/schema"
	"github.com/spinlytics/casino-analytics/internal/table"
	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
	"go.uber.org/multierr"
)

// Normalize builds a typed table from the raw one. Deterministic: the same
// raw table and schema always yield the same output, because rows are walked
// in source order and fields in sorted name order. The returned report is
// the input report with DroppedRows filled in.
//
// Only fields present in both the schema and the table are emitted; extra
// source columns are carried through untouched as strings.
func Normalize(raw *table.Table, s schema.Schema, report schema.Report) (*table.Table, schema.Report, error) {
	if raw == nil || raw.NumColumns() == 0 {
		return nil, report, pkgerrors.New(pkgerrors.CodeNormalization, "cannot normalize an empty table")
	}
	if err := s.Check(); err != nil {
		return nil, report, pkgerrors.Wrap(pkgerrors.CodeNormalization, err, "invalid schema")
	}

	rows := raw.NumRows()
	keep := make([]bool, rows)
	for i := range keep {
		keep[i] = true
	}

	var failures error

	// First pass decides which rows survive, so every emitted column sees
	// the same row set.
	for _, name := range s.FieldNames() {
		col := raw.Column(name)
		if col == nil {
			continue
		}
		spec := s[name]
		for i := 0; i < rows; i++ {
			if !keep[i] {
				continue
			}
			if col.IsNull(i) {
				switch spec.MissingOrDefault() {
				case schema.MissingDrop:
					keep[i] = false
				case schema.MissingFail:
					failures = multierr.Append(failures, fmt.Errorf("field %s: row %d is missing", name, i))
				}
				continue
			}
			if _, err := schema.Coerce(col.String(i), spec); err != nil {
				switch spec.InvalidOrDefault() {
				case schema.InvalidDrop:
					keep[i] = false
				case schema.InvalidFail:
					failures = multierr.Append(failures, fmt.Errorf("field %s: row %d: %v", name, i, err))
				}
			}
		}
	}

	if failures != nil {
		return nil, report, pkgerrors.Wrap(pkgerrors.CodeNormalization, failures, "fields failed their coercion policy").
			WithDetails(map[string]any{"rows": rows})
	}

	columns := make([]*table.Column, 0, raw.NumColumns())
	for _, name := range raw.ColumnNames() {
		src := raw.Column(name)
		spec, known := s[name]
		if !known {
			columns = append(columns, passthrough(src, keep))
			continue
		}
		out := table.NewColumn(name, spec.Kind)
		for i := 0; i < rows; i++ {
			if !keep[i] {
				continue
			}
			appendCell(out, src, i, spec)
		}
		columns = append(columns, out)
	}

	normalized, err := table.New(columns...)
	if err != nil {
		return nil, report, pkgerrors.Wrap(pkgerrors.CodeNormalization, err, "assembling normalized table")
	}

	dropped := 0
	for _, kept := range keep {
		if !kept {
			dropped++
		}
	}
	report.DroppedRows = dropped

	return normalized, report, nil
}

func appendCell(out *table.Column, src *table.Column, i int, spec schema.FieldSpec) {
	raw := ""
	isNull := src.IsNull(i)
	if !isNull {
		raw = src.String(i)
	}

	if isNull {
		if spec.MissingOrDefault() == schema.MissingDefault {
			raw = spec.Default
		} else {
			out.AppendNull()
			return
		}
	}

	coerced, err := schema.Coerce(raw, spec)
	if err != nil {
		// Drop/fail rows were handled in the first pass.
		out.AppendNull()
		return
	}
	switch coerced.Kind {
	case table.KindString, table.KindCategorical:
		out.AppendString(coerced.Str)
	case table.KindTimestamp:
		out.AppendTime(coerced.Time)
	case table.KindDecimal:
		out.AppendDecimal(coerced.Dec)
	case table.KindFloat:
		out.AppendFloat(coerced.F)
	case table.KindInt:
		out.AppendInt(coerced.I)
	case table.KindBool:
		out.AppendBool(coerced.B)
	}
}

func passthrough(src *table.Column, keep []bool) *table.Column {
	out := table.NewColumn(src.Name, table.KindString)
	for i := 0; i < src.Len(); i++ {
		if !keep[i] {
			continue
		}
		if src.IsNull(i) {
			out.AppendNull()
		} else {
			out.AppendString(src.String(i))
		}
	}
	return out
}
