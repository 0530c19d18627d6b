// Package schema defines the column contract a dataset must satisfy before
// analytics run against it, and the validator that reports deviations
// instead of failing mid-query.
package schema

import (
	"fmt"
	"sort"

	"github.com/spinlytics/casino-analytics/internal/table"
)

// MissingPolicy decides what happens to a row whose cell is absent.
type MissingPolicy string

const (
	// MissingNull keeps the cell as a null in the normalized table.
	MissingNull MissingPolicy = "null"
	// MissingDefault substitutes the field's Default literal.
	MissingDefault MissingPolicy = "default"
	// MissingDrop removes the whole row.
	MissingDrop MissingPolicy = "drop"
	// MissingFail aborts normalization.
	MissingFail MissingPolicy = "fail"
)

// InvalidPolicy decides what happens when a cell cannot be coerced to the
// field's kind. Coercion itself is always attempted first.
type InvalidPolicy string

const (
	// InvalidNull nulls the cell.
	InvalidNull InvalidPolicy = "null"
	// InvalidDrop removes the whole row.
	InvalidDrop InvalidPolicy = "drop"
	// InvalidFail aborts normalization.
	InvalidFail InvalidPolicy = "fail"
)

// FieldSpec describes one expected column.
type FieldSpec struct {
	Kind       table.Kind    `json:"kind" validate:"required"`
	Required   bool          `json:"required"`
	Missing    MissingPolicy `json:"missing,omitempty" validate:"omitempty,oneof=null default drop fail"`
	Invalid    InvalidPolicy `json:"invalid,omitempty" validate:"omitempty,oneof=null drop fail"`
	Default    string        `json:"default,omitempty"`
	Layouts    []string      `json:"layouts,omitempty"`
	Min        *float64      `json:"min,omitempty"`
	Max        *float64      `json:"max,omitempty"`
	Categories []string      `json:"categories,omitempty"`
}

// MissingOrDefault returns the effective missing policy.
func (f FieldSpec) MissingOrDefault() MissingPolicy {
	if f.Missing == "" {
		return MissingNull
	}
	return f.Missing
}

// InvalidOrDefault returns the effective invalid policy.
func (f FieldSpec) InvalidOrDefault() InvalidPolicy {
	if f.Invalid == "" {
		return InvalidNull
	}
	return f.Invalid
}

// Schema maps column names to their expected spec.
type Schema map[string]FieldSpec

// FieldNames returns the schema's column names sorted, for deterministic
// iteration.
func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequiredColumns returns the names of required fields, sorted.
func (s Schema) RequiredColumns() []string {
	var names []string
	for name, spec := range s {
		if spec.Required {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Check verifies the schema itself is well formed.
func (s Schema) Check() error {
	if len(s) == 0 {
		return fmt.Errorf("schema has no fields")
	}
	for name, spec := range s {
		if !spec.Kind.IsValid() {
			return fmt.Errorf("field %q has unknown kind %q", name, spec.Kind)
		}
		if spec.MissingOrDefault() == MissingDefault && spec.Default == "" {
			return fmt.Errorf("field %q uses the default policy without a default literal", name)
		}
	}
	return nil
}
