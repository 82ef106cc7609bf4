package regression

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MeanAbsoluteError is the L1 distance between actual and predicted divided
// by the number of points.
func MeanAbsoluteError(actual, predicted []float64) (float64, error) {
	if len(actual) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(actual) != len(predicted) {
		return 0, fmt.Errorf("%w: %d actual, %d predicted", ErrShapeMismatch, len(actual), len(predicted))
	}
	return floats.Distance(actual, predicted, 1) / float64(len(actual)), nil
}
