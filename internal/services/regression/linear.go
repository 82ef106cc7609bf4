package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	domsvc "FinCast/internal/domain/service"
)

// DefaultRidge is the L2 penalty per row applied to standardized coefficients.
// It only needs to keep the normal equations positive definite when two
// calendar features are collinear or one is constant.
const DefaultRidge = 1e-6

// LinearModel is an ordinary least squares fit over standardized features.
type LinearModel struct {
	Width     int       `json:"width"`
	Means     []float64 `json:"means"`
	Scales    []float64 `json:"scales"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func (m *LinearModel) Algorithm() string { return AlgorithmLinear }

func (m *LinearModel) Predict(x [][]float64) ([]float64, error) {
	if err := checkRows(x, m.Width); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, row := range x {
		v := m.Intercept
		for j, c := range m.Coef {
			v += c * (row[j] - m.Means[j]) / m.Scales[j]
		}
		out[i] = v
	}
	return out, nil
}

func (m *LinearModel) validate() error {
	if m.Width <= 0 || len(m.Means) != m.Width || len(m.Scales) != m.Width || len(m.Coef) != m.Width {
		return fmt.Errorf("linear: inconsistent width %d", m.Width)
	}
	for _, s := range m.Scales {
		if s == 0 {
			return errors.New("linear: zero scale")
		}
	}
	return nil
}

// LinearTrainer solves ridge-regularised normal equations with a Cholesky
// factorisation.
type LinearTrainer struct {
	ridge float64
}

func NewLinearTrainer(ridge float64) *LinearTrainer {
	if ridge <= 0 {
		ridge = DefaultRidge
	}
	return &LinearTrainer{ridge: ridge}
}

func (t *LinearTrainer) Algorithm() string { return AlgorithmLinear }

func (t *LinearTrainer) Fit(x [][]float64, y []float64) (domsvc.Model, error) {
	width, err := checkTrainingSet(x, y)
	if err != nil {
		return nil, err
	}
	n := len(y)
	m := &LinearModel{
		Width:  width,
		Means:  make([]float64, width),
		Scales: make([]float64, width),
	}

	col := make([]float64, n)
	z := mat.NewDense(n, width, nil)
	for j := 0; j < width; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		m.Means[j], m.Scales[j] = mean, std
		for i := range x {
			z.Set(i, j, (x[i][j]-mean)/std)
		}
	}

	m.Intercept = stat.Mean(y, nil)
	yc := make([]float64, n)
	for i, v := range y {
		yc[i] = v - m.Intercept
	}

	var gram mat.SymDense
	gram.SymOuterK(1, z.T())
	for j := 0; j < width; j++ {
		gram.SetSym(j, j, gram.At(j, j)+t.ridge*float64(n))
	}
	var rhs mat.VecDense
	rhs.MulVec(z.T(), mat.NewVecDense(n, yc))

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return nil, errors.New("linear: normal equations not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		return nil, fmt.Errorf("linear: solve: %w", err)
	}
	m.Coef = make([]float64, width)
	for j := range m.Coef {
		m.Coef[j] = beta.AtVec(j)
	}
	return m, nil
}
