package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
	"FinCast/internal/services/features"
	"FinCast/internal/services/regression"
)

// constantModel fits y = c on two calendar rows.
func constantModel(t *testing.T, c float64) domsvc.Model {
	t.Helper()
	x := [][]float64{{1, 2020, 1, 0}, {2, 2020, 1, 1}, {3, 2020, 1, 2}}
	m, err := regression.NewGBRTTrainer(regression.GBRTParams{Iterations: 1}).Fit(x, []float64{c, c, c})
	require.NoError(t, err)
	return m
}

func predictOne(t *testing.T, m domsvc.Model) float64 {
	t.Helper()
	out, err := m.Predict([][]float64{{10, 2020, 2, 3}})
	require.NoError(t, err)
	return out[0]
}

func TestRegistryPersistLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	primary := NewFSArtifactStore(t.TempDir(), ".json")
	r := NewModelRegistry(primary)

	h, err := r.Persist(ctx, "HDFC", models.ArtifactMeta{Rows: 3}, constantModel(t, 42))
	require.NoError(t, err)
	assert.Equal(t, primary.Location("HDFC"), h.Location)

	resolved, err := r.Resolve(ctx, "HDFC")
	require.NoError(t, err)
	assert.Equal(t, h, resolved)

	m, meta, err := r.Load(ctx, resolved)
	require.NoError(t, err)
	assert.Equal(t, "HDFC", meta.Entity)
	assert.Equal(t, features.Names(), meta.Features)
	assert.Equal(t, regression.AlgorithmGBRT, meta.Algorithm)
	assert.False(t, meta.TrainedAt.IsZero())
	assert.InDelta(t, 42, predictOne(t, m), 1e-9)
}

func TestRegistryPrimaryWinsOverFallback(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryArtifactStore("primary")
	fallback := NewMemoryArtifactStore("fallback")

	seed := NewModelRegistry(fallback)
	_, err := seed.Persist(ctx, "SBI", models.ArtifactMeta{}, constantModel(t, 1))
	require.NoError(t, err)
	_, err = seed.Persist(ctx, "AXIS", models.ArtifactMeta{}, constantModel(t, 2))
	require.NoError(t, err)

	r := NewModelRegistry(primary, fallback)
	_, err = r.Persist(ctx, "SBI", models.ArtifactMeta{}, constantModel(t, 3))
	require.NoError(t, err)

	h, err := r.Resolve(ctx, "SBI")
	require.NoError(t, err)
	assert.Equal(t, primary.Location("SBI"), h.Location)
	m, _, err := r.Load(ctx, h)
	require.NoError(t, err)
	assert.InDelta(t, 3, predictOne(t, m), 1e-9)

	h, err = r.Resolve(ctx, "AXIS")
	require.NoError(t, err)
	assert.Equal(t, fallback.Location("AXIS"), h.Location)
	m, _, err = r.Load(ctx, h)
	require.NoError(t, err)
	assert.InDelta(t, 2, predictOne(t, m), 1e-9)

	keys, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AXIS", "SBI"}, keys)
}

func TestRegistryNotFoundListsAttemptedLocations(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	a := NewFSArtifactStore(filepath.Join(dirA, "models"), ".json")
	b := NewFSArtifactStore(dirB, ".json")
	r := NewModelRegistry(a, b)

	_, err := r.Resolve(context.Background(), "YES")
	require.ErrorIs(t, err, models.ErrModelNotFound)

	var nf *models.ModelNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "YES", nf.Key)
	assert.Equal(t, []string{a.Location("YES"), b.Location("YES")}, nf.Attempted)

	ok, err := r.Has(context.Background(), "YES")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryRejectsUnsafeKeys(t *testing.T) {
	r := NewModelRegistry(NewFSArtifactStore(t.TempDir(), ".json"))
	ctx := context.Background()
	for _, key := range []string{"", " ", "..", "../etc/passwd", "a/b", `a\b`, "."} {
		_, err := r.Resolve(ctx, key)
		assert.ErrorIs(t, err, models.ErrModelNotFound, key)

		_, err = r.Persist(ctx, key, models.ArtifactMeta{}, constantModel(t, 1))
		assert.ErrorIs(t, err, models.ErrTrainingFailure, key)
	}
}

func TestRegistryLoadFailuresArePredictionFailures(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryArtifactStore("m")
	r := NewModelRegistry(store)

	_, err := store.Write(ctx, "CORRUPT", []byte("not an artifact"))
	require.NoError(t, err)

	other := []string{features.Year, features.OrdinalDate, features.Month, features.DayOfWeek}
	b, err := regression.Encode(models.ArtifactMeta{Entity: "OLD", Features: other}, constantModel(t, 1))
	require.NoError(t, err)
	_, err = store.Write(ctx, "OLD", b)
	require.NoError(t, err)

	for _, key := range []string{"CORRUPT", "OLD"} {
		h, err := r.Resolve(ctx, key)
		require.NoError(t, err)
		_, _, err = r.Load(ctx, h)
		assert.ErrorIs(t, err, models.ErrPredictionFailure, key)
	}

	_, _, err = r.Load(ctx, models.ModelHandle{Key: "X", Location: "/nowhere/X_model.json"})
	assert.ErrorIs(t, err, models.ErrPredictionFailure)
}

func TestRegistryLastWriteWins(t *testing.T) {
	ctx := context.Background()
	r := NewModelRegistry(NewFSArtifactStore(t.TempDir(), ".json"))

	fitted := make([]domsvc.Model, 8)
	for i := range fitted {
		fitted[i] = constantModel(t, float64(i+1))
	}

	var wg sync.WaitGroup
	for _, m := range fitted {
		wg.Add(1)
		go func(m domsvc.Model) {
			defer wg.Done()
			_, err := r.Persist(ctx, "KOTAK", models.ArtifactMeta{}, m)
			assert.NoError(t, err)
		}(m)
	}
	wg.Wait()

	h, err := r.Resolve(ctx, "KOTAK")
	require.NoError(t, err)
	m, _, err := r.Load(ctx, h)
	require.NoError(t, err, "a reader must never see a torn artifact")
	v := predictOne(t, m)
	assert.Contains(t, []string{"1", "2", "3", "4", "5", "6", "7", "8"}, fmt.Sprintf("%.0f", v))

	// sequential writes: the later one is what loads
	_, err = r.Persist(ctx, "KOTAK", models.ArtifactMeta{}, constantModel(t, 100))
	require.NoError(t, err)
	_, err = r.Persist(ctx, "KOTAK", models.ArtifactMeta{}, constantModel(t, 200))
	require.NoError(t, err)
	h, err = r.Resolve(ctx, "KOTAK")
	require.NoError(t, err)
	m, _, err = r.Load(ctx, h)
	require.NoError(t, err)
	assert.InDelta(t, 200, predictOne(t, m), 1e-9)
}

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("SBI Dataset"))
	assert.True(t, ValidKey("HDFC.NS"))
	assert.False(t, ValidKey("a..b"))
	assert.False(t, ValidKey("x/y"))
}
