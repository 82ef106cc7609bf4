package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	xhttp "FinCast/pkg/http"
)

type fakeTrainer struct {
	outcomes map[string]models.TrainingOutcome
	err      error
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeTrainer) TrainAll(context.Context) (map[string]models.TrainingOutcome, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	return f.outcomes, f.err
}

func newTrainingEcho(tr Trainer) *echo.Echo {
	return xhttp.NewServer(xhttp.Handlers{
		NewPredictionEchoHandler(nil, &fakePredictor{}),
		NewTrainingEchoHandler(nil, tr),
	}).Echo()
}

func TestTrainReturnsSortedOutcomes(t *testing.T) {
	tr := &fakeTrainer{outcomes: map[string]models.TrainingOutcome{
		"VCB": {Entity: "VCB", Status: models.TrainingSuccess, Rows: 40},
		"ACB": {Entity: "ACB", Status: models.TrainingFailure, Reason: "too few rows"},
	}}
	rec := do(newTrainingEcho(tr), http.MethodPost, "/train", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			Rows  []models.TrainingOutcome `json:"rows"`
			Total int                      `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Rows, 2)
	assert.Equal(t, 2, body.Data.Total)
	assert.Equal(t, "ACB", body.Data.Rows[0].Entity)
	assert.Equal(t, "too few rows", body.Data.Rows[0].Reason)
	assert.Equal(t, "VCB", body.Data.Rows[1].Entity)
}

func TestTrainDiscoveryFailure(t *testing.T) {
	rec := do(newTrainingEcho(&fakeTrainer{err: errors.New("discover datasets: permission denied")}), http.MethodPost, "/train", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "ERR_TRAINING_FAILED", decodeError(t, rec).Data[0].Code)
}

func TestTrainRejectsOverlappingRuns(t *testing.T) {
	tr := &fakeTrainer{
		outcomes: map[string]models.TrainingOutcome{},
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	e := newTrainingEcho(tr)

	done := make(chan int)
	go func() {
		done <- do(e, http.MethodPost, "/train", "").Code
	}()
	<-tr.started

	rec := do(e, http.MethodPost, "/train", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ERR_TRAINING_IN_PROGRESS", decodeError(t, rec).Data[0].Code)

	close(tr.release)
	assert.Equal(t, http.StatusOK, <-done)
}
