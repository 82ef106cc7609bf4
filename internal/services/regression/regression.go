// Package regression provides the regression algorithms a bank model can be
// trained with and the artifact format they are persisted in.
package regression

import (
	"errors"
	"fmt"
	"math"

	domsvc "FinCast/internal/domain/service"
)

const (
	AlgorithmGBRT   = "gbrt"
	AlgorithmLinear = "linear"
)

var (
	ErrEmptyTrainingSet = errors.New("empty training set")
	ErrShapeMismatch    = errors.New("feature/target shape mismatch")
	ErrNotFinite        = errors.New("non-finite value")
)

// NewTrainer returns the trainer registered for algorithm.
func NewTrainer(algorithm string) (domsvc.Trainer, error) {
	switch algorithm {
	case AlgorithmGBRT, "":
		return NewGBRTTrainer(DefaultGBRTParams()), nil
	case AlgorithmLinear:
		return NewLinearTrainer(DefaultRidge), nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q", algorithm)
	}
}

// checkTrainingSet validates a rectangular, finite matrix with one target per row.
func checkTrainingSet(x [][]float64, y []float64) (int, error) {
	if len(x) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return 0, fmt.Errorf("%w: zero-width rows", ErrShapeMismatch)
	}
	for i, row := range x {
		if len(row) != width {
			return 0, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(row), width)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, fmt.Errorf("%w in row %d", ErrNotFinite, i)
			}
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return 0, fmt.Errorf("%w in target %d", ErrNotFinite, i)
		}
	}
	return width, nil
}

func checkRows(x [][]float64, width int) error {
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(row), width)
		}
	}
	return nil
}
