package schema

import (
	"fmt"
	"sort"
	"time"

	"github.com/spinlytics/casino-analytics/internal/table"
)

const sampleRowLimit = 10

// ColumnFinding summarizes data issues discovered in one column.
type ColumnFinding struct {
	Column          string     `json:"column"`
	Expected        table.Kind `json:"expected"`
	NullCount       int        `json:"null_count"`
	InvalidCount    int        `json:"invalid_count"`
	OutOfRangeCount int        `json:"out_of_range_count"`
	SampleRows      []int      `json:"sample_rows,omitempty"`
}

// Report is the structured outcome of validating a raw table against a
// schema. Data problems are recorded, never raised; callers decide whether
// to proceed. DroppedRows is filled in by the normalizer afterwards.
type Report struct {
	Rows           int             `json:"rows"`
	MissingColumns []string        `json:"missing_columns,omitempty"`
	ExtraColumns   []string        `json:"extra_columns,omitempty"`
	Findings       []ColumnFinding `json:"findings,omitempty"`
	DroppedRows    int             `json:"dropped_rows"`
	CheckedAt      time.Time       `json:"checked_at"`
}

// Clean reports whether the table matched the schema without any findings.
func (r Report) Clean() bool {
	return len(r.MissingColumns) == 0 && len(r.Findings) == 0
}

// MissingRequired returns the subset of missing columns that the schema
// marks required.
func (r Report) MissingRequired(s Schema) []string {
	var missing []string
	for _, name := range r.MissingColumns {
		if spec, ok := s[name]; ok && spec.Required {
			missing = append(missing, name)
		}
	}
	return missing
}

// Abort reports whether the findings are severe enough that downstream
// stages should not run: a required column is absent entirely.
func (r Report) Abort(s Schema) bool {
	return len(r.MissingRequired(s)) > 0
}

// Validate probes a raw (string-typed) table against the schema. It returns
// an error only for structural problems: a nil or column-less table, a
// column that is already typed, or a malformed schema.
func Validate(tbl *table.Table, s Schema) (Report, error) {
	if tbl == nil || tbl.NumColumns() == 0 {
		return Report{}, fmt.Errorf("table is empty")
	}
	if err := s.Check(); err != nil {
		return Report{}, fmt.Errorf("invalid schema: %w", err)
	}

	report := Report{
		Rows:      tbl.NumRows(),
		CheckedAt: time.Now().UTC(),
	}

	report.MissingColumns = tbl.MissingColumns(s.FieldNames())

	for _, name := range tbl.ColumnNames() {
		if _, known := s[name]; !known {
			report.ExtraColumns = append(report.ExtraColumns, name)
		}
	}
	sort.Strings(report.ExtraColumns)

	for _, name := range s.FieldNames() {
		col := tbl.Column(name)
		if col == nil {
			continue
		}
		if col.Kind != table.KindString {
			return Report{}, fmt.Errorf("column %s is already typed (%s), validation expects a raw table", name, col.Kind)
		}
		spec := s[name]
		finding := ColumnFinding{Column: name, Expected: spec.Kind}

		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				finding.NullCount++
				continue
			}
			coerced, err := Coerce(col.String(i), spec)
			if err != nil {
				finding.InvalidCount++
				if len(finding.SampleRows) < sampleRowLimit {
					finding.SampleRows = append(finding.SampleRows, i)
				}
				continue
			}
			if !InRange(coerced, spec) {
				finding.OutOfRangeCount++
				if len(finding.SampleRows) < sampleRowLimit {
					finding.SampleRows = append(finding.SampleRows, i)
				}
			}
		}

		if finding.NullCount > 0 || finding.InvalidCount > 0 || finding.OutOfRangeCount > 0 {
			report.Findings = append(report.Findings, finding)
		}
	}

	return report, nil
}
