package regression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
)

// linearData returns y = 3*a - 2*b + 10 over a small grid.
func linearData() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for a := 0; a < 20; a++ {
		for b := 0; b < 5; b++ {
			x = append(x, []float64{float64(a), float64(b)})
			y = append(y, 3*float64(a)-2*float64(b)+10)
		}
	}
	return x, y
}

// stepData returns a target that jumps at a=50.
func stepData() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for a := 0; a < 100; a++ {
		x = append(x, []float64{float64(a)})
		if a < 50 {
			y = append(y, 100)
		} else {
			y = append(y, 200)
		}
	}
	return x, y
}

func TestNewTrainer(t *testing.T) {
	tr, err := NewTrainer("")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmGBRT, tr.Algorithm())

	tr, err = NewTrainer(AlgorithmLinear)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmLinear, tr.Algorithm())

	_, err = NewTrainer("xgboost")
	require.Error(t, err)
}

func TestLinearRecoversCoefficients(t *testing.T) {
	x, y := linearData()
	m, err := NewLinearTrainer(0).Fit(x, y)
	require.NoError(t, err)

	got, err := m.Predict([][]float64{{7, 3}, {100, 0}})
	require.NoError(t, err)
	assert.InDelta(t, 3*7-2*3+10, got[0], 1e-3)
	assert.InDelta(t, 310, got[1], 1e-2)
}

func TestLinearHandlesConstantColumn(t *testing.T) {
	x := [][]float64{{1, 2024}, {2, 2024}, {3, 2024}, {4, 2024}}
	y := []float64{2, 4, 6, 8}
	m, err := NewLinearTrainer(0).Fit(x, y)
	require.NoError(t, err)
	got, err := m.Predict([][]float64{{5, 2024}})
	require.NoError(t, err)
	assert.InDelta(t, 10, got[0], 1e-3)
}

func TestGBRTFitsStep(t *testing.T) {
	x, y := stepData()
	m, err := NewGBRTTrainer(GBRTParams{Iterations: 50, LearningRate: 0.3, MaxDepth: 2, MinSamplesLeaf: 5}).Fit(x, y)
	require.NoError(t, err)

	got, err := m.Predict([][]float64{{10}, {90}})
	require.NoError(t, err)
	assert.InDelta(t, 100, got[0], 1)
	assert.InDelta(t, 200, got[1], 1)
}

func TestGBRTDeterministic(t *testing.T) {
	x, y := linearData()
	tr := NewGBRTTrainer(DefaultGBRTParams())
	a, err := tr.Fit(x, y)
	require.NoError(t, err)
	b, err := tr.Fit(x, y)
	require.NoError(t, err)

	pa, _ := a.Predict(x)
	pb, _ := b.Predict(x)
	assert.Equal(t, pa, pb)
}

func TestGBRTSmallSetPredictsMean(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := []float64{1, 2, 3}
	m, err := NewGBRTTrainer(DefaultGBRTParams()).Fit(x, y)
	require.NoError(t, err)
	got, err := m.Predict([][]float64{{100}})
	require.NoError(t, err)
	assert.InDelta(t, 2, got[0], 1e-9)
}

func TestFitRejectsBadInput(t *testing.T) {
	trainers := []func(x [][]float64, y []float64) error{
		func(x [][]float64, y []float64) error { _, err := NewGBRTTrainer(DefaultGBRTParams()).Fit(x, y); return err },
		func(x [][]float64, y []float64) error { _, err := NewLinearTrainer(0).Fit(x, y); return err },
	}
	for _, fit := range trainers {
		require.ErrorIs(t, fit(nil, nil), ErrEmptyTrainingSet)
		require.ErrorIs(t, fit([][]float64{{1}}, []float64{1, 2}), ErrShapeMismatch)
		require.ErrorIs(t, fit([][]float64{{1}, {1, 2}}, []float64{1, 2}), ErrShapeMismatch)
		require.ErrorIs(t, fit([][]float64{{1}}, []float64{math.NaN()}), ErrNotFinite)
	}
}

func TestPredictRejectsWrongWidth(t *testing.T) {
	x, y := linearData()
	g, err := NewGBRTTrainer(DefaultGBRTParams()).Fit(x, y)
	require.NoError(t, err)
	_, err = g.Predict([][]float64{{1}})
	require.ErrorIs(t, err, ErrShapeMismatch)

	l, err := NewLinearTrainer(0).Fit(x, y)
	require.NoError(t, err)
	_, err = l.Predict([][]float64{{1, 2, 3}})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCodecRoundTripKeepsPredictions(t *testing.T) {
	x, y := linearData()
	for _, algo := range []string{AlgorithmGBRT, AlgorithmLinear} {
		tr, err := NewTrainer(algo)
		require.NoError(t, err)
		m, err := tr.Fit(x, y)
		require.NoError(t, err)

		b, err := Encode(models.ArtifactMeta{Entity: "HDFC", Features: []string{"a", "b"}, Rows: len(y)}, m)
		require.NoError(t, err)

		got, meta, err := Decode(b)
		require.NoError(t, err)
		assert.Equal(t, algo, meta.Algorithm)
		assert.Equal(t, "HDFC", meta.Entity)
		assert.Equal(t, []string{"a", "b"}, meta.Features)

		want, _ := m.Predict(x)
		have, err := got.Predict(x)
		require.NoError(t, err)
		assert.InDeltaSlice(t, want, have, 1e-9)
	}
}

func TestDecodeRejectsCorruptArtifacts(t *testing.T) {
	_, _, err := Decode([]byte("not json"))
	require.Error(t, err)

	_, _, err = Decode([]byte(`{"algorithm":"gbrt"}`))
	require.Error(t, err)

	_, _, err = Decode([]byte(`{"algorithm":"forest","model":{}}`))
	require.Error(t, err)

	_, _, err = Decode([]byte(`{"algorithm":"gbrt","model":{"width":1,"trees":[{"nodes":[{"f":0,"t":1,"l":0,"r":0}]}]}}`))
	require.Error(t, err)
}

func TestMeanAbsoluteError(t *testing.T) {
	mae, err := MeanAbsoluteError([]float64{1, 2, 3}, []float64{2, 2, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1, mae, 1e-12)

	_, err = MeanAbsoluteError(nil, nil)
	require.Error(t, err)
	_, err = MeanAbsoluteError([]float64{1}, []float64{1, 2})
	require.ErrorIs(t, err, ErrShapeMismatch)
}
