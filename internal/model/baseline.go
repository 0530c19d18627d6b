package model

import (
	"context"

	"github.com/spinlytics/casino-analytics/internal/table"
	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
)

// baseline predicts the training prior for every row. It exists as the floor
// any real variant has to beat.
type baseline struct {
	prior  float64
	fitted bool
}

func newBaseline() *baseline {
	return &baseline{}
}

func (m *baseline) Fit(_ context.Context, tbl *table.Table, labels []float64) error {
	if err := checkTrainingInput(tbl, labels); err != nil {
		return err
	}
	positives := 0.0
	for _, label := range labels {
		positives += label
	}
	m.prior = positives / float64(len(labels))
	m.fitted = true
	return nil
}

func (m *baseline) Predict(_ context.Context, tbl *table.Table) ([]float64, error) {
	if !m.fitted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model has not been fitted")
	}
	if tbl == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table is required")
	}
	out := make([]float64, tbl.NumRows())
	for i := range out {
		out[i] = m.prior
	}
	return out, nil
}

func (m *baseline) Score(ctx context.Context, tbl *table.Table, labels []float64) (Metrics, error) {
	probs, err := m.Predict(ctx, tbl)
	if err != nil {
		return Metrics{}, err
	}
	if len(labels) != len(probs) {
		return Metrics{}, pkgerrors.New(pkgerrors.CodeValidation, "label count does not match row count")
	}
	return Metrics{
		Accuracy: accuracy(labels, probs, 0.5),
		AUC:      rocAUC(labels, probs),
		N:        len(labels),
	}, nil
}
