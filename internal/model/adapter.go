// Package model adapts normalized tables to a small set of churn-style
// binary predictors. Variants are selected by configuration, not by callers
// constructing concrete types.
package model

import (
	"context"

	"github.com/spinlytics/casino-analytics/internal/table"
	"github.com/spinlytics/casino-analytics/pkg/config"
	"github.com/spinlytics/casino-analytics/pkg/enums"
	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
)

// minTrainingRows is the floor below which fitting refuses to run.
const minTrainingRows = 10

// Metrics summarizes a scored prediction run.
type Metrics struct {
	Accuracy float64 `json:"accuracy"`
	AUC      float64 `json:"auc"`
	N        int     `json:"n"`
}

// Adapter is the capability set every model variant provides. Labels are
// 0/1.
type Adapter interface {
	Fit(ctx context.Context, tbl *table.Table, labels []float64) error
	Predict(ctx context.Context, tbl *table.Table) ([]float64, error)
	Score(ctx context.Context, tbl *table.Table, labels []float64) (Metrics, error)
}

// New builds the variant named by config.
func New(cfg config.ModelConfig) (Adapter, error) {
	kind, err := enums.ParseModelKind(cfg.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "selecting model variant").
			WithDetails(map[string]any{"kind": cfg.Kind})
	}
	switch kind {
	case enums.ModelKindLogistic:
		return newLogistic(cfg), nil
	case enums.ModelKindBaseline:
		return newBaseline(), nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported model variant").
			WithDetails(map[string]any{"kind": cfg.Kind})
	}
}

func checkTrainingInput(tbl *table.Table, labels []float64) error {
	if tbl == nil || tbl.NumRows() == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "training table is empty")
	}
	if len(labels) != tbl.NumRows() {
		return pkgerrors.New(pkgerrors.CodeValidation, "label count does not match row count").
			WithDetails(map[string]any{"rows": tbl.NumRows(), "labels": len(labels)})
	}
	if tbl.NumRows() < minTrainingRows {
		return pkgerrors.New(pkgerrors.CodeInsufficientSample, "too few rows to fit a model").
			WithDetails(map[string]any{"rows": tbl.NumRows(), "min": minTrainingRows})
	}
	for _, label := range labels {
		if label != 0 && label != 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "labels must be 0 or 1")
		}
	}
	return nil
}
