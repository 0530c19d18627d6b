package model

import (
	"context"
	"math"
	"math/rand"

	"github.com/spinlytics/casino-analytics/internal/table"
	"github.com/spinlytics/casino-analytics/pkg/config"
	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
)

// logistic is a binary classifier trained with mini-batch SGD over sigmoid
// activations.
type logistic struct {
	cfg      config.ModelConfig
	weights  []float64
	bias     float64
	features []string
	scale    scaler
	fitted   bool
}

func newLogistic(cfg config.ModelConfig) *logistic {
	return &logistic{cfg: cfg}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func (m *logistic) Fit(ctx context.Context, tbl *table.Table, labels []float64) error {
	if err := checkTrainingInput(tbl, labels); err != nil {
		return err
	}

	matrix, names, err := featureMatrix(tbl)
	if err != nil {
		return err
	}
	m.features = names
	m.scale = fitScaler(matrix)
	matrix = m.scale.apply(matrix)

	// The seeded generator makes training reproducible run to run.
	rng := rand.New(rand.NewSource(m.cfg.Seed))
	m.weights = make([]float64, len(names))
	for i := range m.weights {
		m.weights[i] = rng.NormFloat64() * 0.01
	}
	m.bias = 0

	batchSize := m.cfg.BatchSize
	if batchSize <= 0 || batchSize > len(matrix) {
		batchSize = len(matrix)
	}

	order := make([]int, len(matrix))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "training canceled")
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < len(order); start += batchSize {
			end := start + batchSize
			if end > len(order) {
				end = len(order)
			}
			m.step(matrix, labels, order[start:end])
		}
	}
	m.fitted = true
	return nil
}

// step applies one mini-batch gradient update using the BCE derivative.
func (m *logistic) step(matrix [][]float64, labels []float64, batch []int) {
	gradW := make([]float64, len(m.weights))
	gradB := 0.0

	for _, i := range batch {
		p := m.predictRow(matrix[i])
		diff := p - labels[i]
		for j, v := range matrix[i] {
			gradW[j] += diff * v
		}
		gradB += diff
	}

	n := float64(len(batch))
	for j := range m.weights {
		m.weights[j] -= m.cfg.LearningRate * gradW[j] / n
	}
	m.bias -= m.cfg.LearningRate * gradB / n
}

func (m *logistic) predictRow(row []float64) float64 {
	z := m.bias
	for j, v := range row {
		z += m.weights[j] * v
	}
	return sigmoid(z)
}

// Predict returns the probability of the positive class per row.
func (m *logistic) Predict(_ context.Context, tbl *table.Table) ([]float64, error) {
	if !m.fitted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model has not been fitted")
	}
	matrix, names, err := featureMatrix(tbl)
	if err != nil {
		return nil, err
	}
	if len(names) != len(m.features) {
		return nil, pkgerrors.New(pkgerrors.CodeMissingColumns, "feature columns differ from the fitted table").
			WithDetails(map[string]any{"fitted": m.features, "got": names})
	}
	matrix = m.scale.apply(matrix)

	out := make([]float64, len(matrix))
	for i, row := range matrix {
		out[i] = m.predictRow(row)
	}
	return out, nil
}

func (m *logistic) Score(ctx context.Context, tbl *table.Table, labels []float64) (Metrics, error) {
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
