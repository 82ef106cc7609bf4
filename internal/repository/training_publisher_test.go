package repository

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	pkgkafka "FinCast/pkg/kafka"
)

type capturingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *capturingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *capturingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaTrainingPublisherKeysByEntity(t *testing.T) {
	w := &capturingWriter{}
	p := NewKafkaTrainingPublisher(pkgkafka.NewProducerWithWriter(w, "fincast.training.outcomes", "none", prometheus.NewRegistry()))

	mae := 1.5
	o := models.TrainingOutcome{
		RunID:      "run-1",
		Entity:     "VCB",
		Status:     models.TrainingSuccess,
		Rows:       120,
		HoldoutMAE: &mae,
		Location:   "models/VCB_model.json",
		Duration:   2 * time.Second,
		FinishedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), o))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "VCB", string(w.msgs[0].Key))
	assert.JSONEq(t, `{
		"run_id": "run-1",
		"entity": "VCB",
		"status": "success",
		"rows": 120,
		"holdout_mae": 1.5,
		"location": "models/VCB_model.json",
		"duration_ns": 2000000000,
		"finished_at": "2024-01-02T03:04:05Z"
	}`, string(w.msgs[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNoopTrainingPublisher(t *testing.T) {
	var p NoopTrainingPublisher
	assert.NoError(t, p.Publish(context.Background(), models.TrainingOutcome{Entity: "ACB"}))
	assert.NoError(t, p.Close())
}
