package model

import (
	"math"

	"github.com/spinlytics/casino-analytics/internal/table"
	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
)

// featureMatrix extracts the numeric columns of a normalized table into a
// dense row-major matrix. Column order follows table order so the mapping
// from weight index to feature name is stable. Null cells become zero.
func featureMatrix(tbl *table.Table) ([][]float64, []string, error) {
	var numeric []*table.Column
	var names []string
	for _, col := range tbl.Columns() {
		switch col.Kind {
		case table.KindDecimal, table.KindFloat, table.KindInt, table.KindBool:
			numeric = append(numeric, col)
			names = append(names, col.Name)
		}
	}
	if len(numeric) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeMissingColumns, "table has no numeric feature columns")
	}

	rows := tbl.NumRows()
	matrix := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, len(numeric))
		for j, col := range numeric {
			if col.IsNull(i) {
				continue
			}
			v, err := col.Float(i)
			if err != nil {
				continue
			}
			row[j] = v
		}
		matrix[i] = row
	}
	return matrix, names, nil
}

// standardize scales each column to zero mean and unit variance, returning
// the per-column parameters so prediction applies the same transform.
type scaler struct {
	mean, std []float64
}

func fitScaler(matrix [][]float64) scaler {
	if len(matrix) == 0 {
		return scaler{}
	}
	cols := len(matrix[0])
	s := scaler{mean: make([]float64, cols), std: make([]float64, cols)}
	n := float64(len(matrix))

	for j := 0; j < cols; j++ {
		sum := 0.0
		for _, row := range matrix {
			sum += row[j]
		}
		s.mean[j] = sum / n
	}
	for j := 0; j < cols; j++ {
		sum := 0.0
		for _, row := range matrix {
			d := row[j] - s.mean[j]
			sum += d * d
		}
		s.std[j] = math.Sqrt(sum / n)
		if s.std[j] == 0 {
			s.std[j] = 1
		}
	}
	return s
}

func (s scaler) apply(matrix [][]float64) [][]float64 {
	if len(s.mean) == 0 {
		return matrix
	}
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.mean[j]) / s.std[j]
		}
		out[i] = scaled
	}
	return out
}
