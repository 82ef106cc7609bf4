package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	domsvc "FinCast/internal/domain/service"
	"FinCast/internal/repository"
	"FinCast/internal/services/features"
	"FinCast/internal/services/regression"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/metrics"
)

// TrainingConfig tunes a training run.
type TrainingConfig struct {
	// HoldoutRatio is the trailing share of rows scored before the final
	// refit on every row; 0 skips scoring.
	HoldoutRatio float64
	MinRows      int
	Workers      int
}

// TrainingUseCase fits and persists one model per discovered dataset.
type TrainingUseCase struct {
	source    domrepo.DatasetSource
	registry  domrepo.ModelRegistry
	trainer   domsvc.Trainer
	publisher domrepo.TrainingPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
	cfg       TrainingConfig
	now       func() time.Time
}

type TrainingOption func(*TrainingUseCase)

func WithTrainingConfig(cfg TrainingConfig) TrainingOption {
	return func(uc *TrainingUseCase) { uc.cfg = cfg }
}

func WithTrainingPublisher(p domrepo.TrainingPublisher) TrainingOption {
	return func(uc *TrainingUseCase) {
		if p != nil {
			uc.publisher = p
		}
	}
}

func WithTrainingMetrics(m domrepo.Metrics) TrainingOption {
	return func(uc *TrainingUseCase) {
		if m != nil {
			uc.metrics = m
		}
	}
}

func WithTrainingLogger(l *applogger.Logger) TrainingOption {
	return func(uc *TrainingUseCase) {
		if l != nil {
			uc.l = l
		}
	}
}

func WithTrainingClock(now func() time.Time) TrainingOption {
	return func(uc *TrainingUseCase) { uc.now = now }
}

func NewTrainingUseCase(source domrepo.DatasetSource, registry domrepo.ModelRegistry, trainer domsvc.Trainer, opts ...TrainingOption) *TrainingUseCase {
	uc := &TrainingUseCase{
		source:    source,
		registry:  registry,
		trainer:   trainer,
		publisher: repository.NoopTrainingPublisher{},
		metrics:   metrics.Nop{},
		l:         applogger.Nop(),
		cfg:       TrainingConfig{MinRows: 2, Workers: 1},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.cfg.MinRows < 1 {
		uc.cfg.MinRows = 1
	}
	if uc.cfg.Workers < 1 {
		uc.cfg.Workers = 1
	}
	return uc
}

// TrainAll trains every discovered dataset and returns one outcome per
// entity key. A failing dataset never stops the others; only discovery
// itself can fail the run.
func (uc *TrainingUseCase) TrainAll(ctx context.Context) (map[string]models.TrainingOutcome, error) {
	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "TrainAll", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()
	l := uc.l.With(applogger.String("run_id", runID))

	datasets, err := uc.source.Discover(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("discover datasets: %w", err)
	}
	outcomes := make(map[string]models.TrainingOutcome, len(datasets))
	if len(datasets) == 0 {
		l.Error("no datasets found; nothing to train")
		return outcomes, nil
	}
	l.Info("training started",
		applogger.Int("datasets", len(datasets)),
		applogger.Int("workers", uc.cfg.Workers),
	)

	var (
		mu   sync.Mutex
		g    errgroup.Group
		seen = make(map[string]string, len(datasets))
	)
	g.SetLimit(uc.cfg.Workers)
	for _, ds := range datasets {
		if prev, dup := seen[ds.Key]; dup {
			l.Warn("skipping dataset with duplicate entity key",
				applogger.String("entity", ds.Key),
				applogger.String("location", ds.Location),
				applogger.String("kept", prev),
			)
			continue
		}
		seen[ds.Key] = ds.Location

		g.Go(func() error {
			o := uc.trainOne(ctx, runID, ds)
			mu.Lock()
			outcomes[ds.Key] = o
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if !o.Succeeded() {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("succeeded", len(outcomes)-failed), attribute.Int("failed", failed))
	l.Info("training finished",
		applogger.Int("succeeded", len(outcomes)-failed),
		applogger.Int("failed", failed),
	)
	return outcomes, nil
}

// TrainOne trains a single dataset outside of a batch run.
func (uc *TrainingUseCase) TrainOne(ctx context.Context, ds models.Dataset) models.TrainingOutcome {
	return uc.trainOne(ctx, uuid.NewString(), ds)
}

func (uc *TrainingUseCase) trainOne(ctx context.Context, runID string, ds models.Dataset) models.TrainingOutcome {
	start := uc.now()
	ctx, span := tracer.Start(ctx, "TrainOne", trace.WithAttributes(attribute.String("entity", ds.Key)))
	defer span.End()

	o := models.TrainingOutcome{RunID: runID, Entity: ds.Key}
	err := uc.fitAndPersist(ctx, ds, &o)

	o.FinishedAt = uc.now()
	o.Duration = o.FinishedAt.Sub(start)
	l := uc.l.With(applogger.String("run_id", runID), applogger.String("entity", ds.Key))
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", models.ErrTrainingFailure, ds.Key, err)
		o.Status, o.Reason = models.TrainingFailure, err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.Error("training failed", applogger.String("location", ds.Location), applogger.Error(err))
	} else {
		o.Status = models.TrainingSuccess
		fields := []applogger.Field{
			applogger.Int("rows", o.Rows),
			applogger.String("artifact", o.Location),
			applogger.Duration("duration_ms", o.Duration),
		}
		if o.HoldoutMAE != nil {
			fields = append(fields, applogger.Float64("holdout_mae", *o.HoldoutMAE))
			uc.metrics.RecordHoldoutMAE(ds.Key, *o.HoldoutMAE)
		}
		l.Info("training succeeded", fields...)
	}
	uc.metrics.RecordTraining(string(o.Status))
	uc.metrics.RecordLatency("train_one", o.Duration)

	if perr := uc.publisher.Publish(ctx, o); perr != nil {
		uc.metrics.RecordError("training_publish")
		l.Warn("publish training outcome failed", applogger.Error(perr))
	}
	return o
}

// fitAndPersist fills o as it goes. A panic inside the trainer or the model
// is reported as an error for this dataset only.
func (uc *TrainingUseCase) fitAndPersist(ctx context.Context, ds models.Dataset, o *models.TrainingOutcome) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	obs, err := uc.source.Load(ctx, ds)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	o.Rows = len(obs)
	if len(obs) < uc.cfg.MinRows {
		return fmt.Errorf("only %d usable rows, need at least %d", len(obs), uc.cfg.MinRows)
	}

	x, y := trainingSet(obs)
	mae, scored, err := uc.holdout(x, y)
	if err != nil {
		return fmt.Errorf("holdout evaluation: %w", err)
	}
	if scored {
		o.HoldoutMAE = &mae
	}

	m, err := uc.trainer.Fit(x, y)
	if err != nil {
		return fmt.Errorf("fit %s: %w", uc.trainer.Algorithm(), err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := uc.registry.Persist(ctx, ds.Key, models.ArtifactMeta{
		TrainedAt:  uc.now().UTC(),
		Rows:       len(y),
		HoldoutMAE: o.HoldoutMAE,
	}, m)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	o.Location = h.Location
	return nil
}

// holdout fits on the leading rows and scores the trailing HoldoutRatio
// share. It reports false when the dataset is too small to split.
func (uc *TrainingUseCase) holdout(x [][]float64, y []float64) (float64, bool, error) {
	if uc.cfg.HoldoutRatio <= 0 {
		return 0, false, nil
	}
	n := len(y)
	nTest := int(math.Round(float64(n) * uc.cfg.HoldoutRatio))
	nTrain := n - nTest
	if nTest < 1 || nTrain < uc.cfg.MinRows {
		return 0, false, nil
	}

	m, err := uc.trainer.Fit(x[:nTrain], y[:nTrain])
	if err != nil {
		return 0, false, err
	}
	pred, err := m.Predict(x[nTrain:])
	if err != nil {
		return 0, false, err
	}
	mae, err := regression.MeanAbsoluteError(y[nTrain:], pred)
	if err != nil {
		return 0, false, err
	}
	return mae, true, nil
}

func trainingSet(obs []models.Observation) ([][]float64, []float64) {
	x := make([][]float64, len(obs))
	y := make([]float64, len(obs))
	for i, o := range obs {
		x[i] = features.Row(features.Encode(o.Date))
		y[i] = o.Close
	}
	return x, y
}
