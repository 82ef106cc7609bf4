package repository

import (
	"context"
	"time"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
)

// ArtifactInfo describes a stored artifact without its contents.
type ArtifactInfo struct {
	Key      string
	Location string
	Version  string
}

// ArtifactStore keeps one serialized model per entity key.
type ArtifactStore interface {
	// Location is where the artifact for key lives, whether or not it exists.
	Location(key string) string
	Stat(ctx context.Context, key string) (ArtifactInfo, bool, error)
	Read(ctx context.Context, key string) ([]byte, ArtifactInfo, error)
	// Write replaces the artifact atomically; readers see the old or the new bytes.
	Write(ctx context.Context, key string, data []byte) (ArtifactInfo, error)
	List(ctx context.Context) ([]string, error)
}

// DatasetSource discovers and loads per-entity closing-price series.
type DatasetSource interface {
	Discover(ctx context.Context) ([]models.Dataset, error)
	// Load returns cleaned observations sorted by date, one per date.
	Load(ctx context.Context, ds models.Dataset) ([]models.Observation, error)
}

// ModelRegistry resolves, loads and persists fitted models by entity key.
type ModelRegistry interface {
	Resolve(ctx context.Context, key string) (models.ModelHandle, error)
	Load(ctx context.Context, h models.ModelHandle) (domsvc.Model, models.ArtifactMeta, error)
	Persist(ctx context.Context, key string, meta models.ArtifactMeta, m domsvc.Model) (models.ModelHandle, error)
	Has(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// TrainingPublisher announces per-entity training outcomes.
type TrainingPublisher interface {
	Publish(ctx context.Context, o models.TrainingOutcome) error
	Close() error
}

type Metrics interface {
	RecordPrediction(period, status string)
	RecordLatency(op string, d time.Duration)
	RecordTraining(status string)
	RecordHoldoutMAE(entity string, mae float64)
	RecordError(kind string)
}
