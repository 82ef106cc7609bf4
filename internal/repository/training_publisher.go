package repository

import (
	"context"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	pkgkafka "FinCast/pkg/kafka"
)

// KafkaTrainingPublisher writes one JSON message per outcome, keyed by entity
// so a consumer sees each entity's outcomes in order.
type KafkaTrainingPublisher struct {
	producer *pkgkafka.Producer
}

var _ domrepo.TrainingPublisher = (*KafkaTrainingPublisher)(nil)

func NewKafkaTrainingPublisher(producer *pkgkafka.Producer) *KafkaTrainingPublisher {
	return &KafkaTrainingPublisher{producer: producer}
}

func (p *KafkaTrainingPublisher) Publish(ctx context.Context, o models.TrainingOutcome) error {
	return p.producer.Publish(ctx, []byte(o.Entity), o)
}

func (p *KafkaTrainingPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopTrainingPublisher drops every outcome.
type NoopTrainingPublisher struct{}

func (NoopTrainingPublisher) Publish(context.Context, models.TrainingOutcome) error { return nil }

func (NoopTrainingPublisher) Close() error { return nil }
