package service

// Model maps feature rows to predicted values. Implementations must be
// safe for concurrent Predict calls and never mutate themselves after Fit.
type Model interface {
	Algorithm() string
	Predict(features [][]float64) ([]float64, error)
}

// Trainer fits a Model on a feature matrix and its target column.
type Trainer interface {
	Algorithm() string
	Fit(features [][]float64, targets []float64) (Model, error)
}
