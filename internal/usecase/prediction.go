package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	"FinCast/internal/services/daterange"
	"FinCast/internal/services/features"
	"FinCast/pkg/cache"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/metrics"
	"FinCast/pkg/util"
)

var tracer = otel.Tracer("FinCast/internal/usecase")

// PredictionUseCase serves range predictions from persisted models.
type PredictionUseCase struct {
	registry domrepo.ModelRegistry
	cache    cache.BytesCache
	cacheTTL time.Duration
	metrics  domrepo.Metrics
	l        *applogger.Logger
	timeout  time.Duration
	plan     func(time.Time, models.Period) ([]time.Time, error)
}

type PredictionOption func(*PredictionUseCase)

// WithPredictionCache memoizes results per model version for ttl.
func WithPredictionCache(c cache.BytesCache, ttl time.Duration) PredictionOption {
	return func(uc *PredictionUseCase) {
		if c != nil {
			uc.cache, uc.cacheTTL = c, ttl
		}
	}
}

func WithPredictionMetrics(m domrepo.Metrics) PredictionOption {
	return func(uc *PredictionUseCase) {
		if m != nil {
			uc.metrics = m
		}
	}
}

func WithPredictionLogger(l *applogger.Logger) PredictionOption {
	return func(uc *PredictionUseCase) {
		if l != nil {
			uc.l = l
		}
	}
}

// WithPredictionPlanner replaces the date-range planner.
func WithPredictionPlanner(plan func(time.Time, models.Period) ([]time.Time, error)) PredictionOption {
	return func(uc *PredictionUseCase) {
		if plan != nil {
			uc.plan = plan
		}
	}
}

// WithPredictionTimeout bounds a single PredictRange call; 0 disables.
func WithPredictionTimeout(d time.Duration) PredictionOption {
	return func(uc *PredictionUseCase) { uc.timeout = d }
}

func NewPredictionUseCase(registry domrepo.ModelRegistry, opts ...PredictionOption) *PredictionUseCase {
	uc := &PredictionUseCase{
		registry: registry,
		cache:    cache.Noop{},
		metrics:  metrics.Nop{},
		l:        applogger.Nop(),
		timeout:  10 * time.Second,
		plan:     daterange.Plan,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type PredictParams struct {
	Bank   string
	Date   string
	Period string
}

// PredictRange predicts every date of the period around p.Date with the
// model persisted for p.Bank.
func (uc *PredictionUseCase) PredictRange(ctx context.Context, p PredictParams) (*models.PredictionResult, error) {
	start := time.Now()
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}
	ctx, span := tracer.Start(ctx, "PredictRange", trace.WithAttributes(
		attribute.String("bank", p.Bank),
		attribute.String("date", p.Date),
		attribute.String("period", p.Period),
	))
	defer span.End()

	res, err := uc.predictRange(ctx, p)

	period := "invalid"
	if pp, perr := models.ParsePeriod(p.Period); perr == nil {
		period = string(pp)
	}
	uc.metrics.RecordPrediction(period, ErrorKind(err))
	uc.metrics.RecordLatency("predict_range", time.Since(start))
	if err != nil {
		uc.metrics.RecordError(ErrorKind(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("points", len(res.Points)))
	return res, nil
}

func (uc *PredictionUseCase) predictRange(ctx context.Context, p PredictParams) (*models.PredictionResult, error) {
	target, ok := util.ParseDate(p.Date)
	if !ok {
		return nil, fmt.Errorf("%w: %q (want YYYY-MM-DD)", models.ErrInvalidDate, p.Date)
	}
	period, err := models.ParsePeriod(p.Period)
	if err != nil {
		return nil, err
	}

	h, err := uc.registry.Resolve(ctx, p.Bank)
	if err != nil {
		return nil, err
	}

	key := cache.Key("predict", h.Location, h.Version, util.FormatDate(target), period)
	if res, ok := uc.cached(ctx, key); ok {
		return res, nil
	}

	m, _, err := uc.registry.Load(ctx, h)
	if err != nil {
		return nil, err
	}

	dates, err := uc.plan(target, period)
	if err != nil {
		return nil, err
	}
	values, err := m.Predict(features.Matrix(dates))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrPredictionFailure, h.Key, err)
	}
	if len(values) != len(dates) {
		return nil, fmt.Errorf("%w: %s: model returned %d values for %d dates",
			models.ErrPredictionFailure, h.Key, len(values), len(dates))
	}

	res := &models.PredictionResult{
		Bank:         h.Key,
		TargetDate:   target,
		Period:       period,
		Points:       make([]models.PredictionPoint, len(dates)),
		ModelVersion: h.Version,
	}
	for i, d := range dates {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			return nil, fmt.Errorf("%w: %s: non-finite prediction for %s",
				models.ErrPredictionFailure, h.Key, util.FormatDate(d))
		}
		res.Points[i] = models.PredictionPoint{Date: d, Value: values[i]}
		if !res.TargetFound && util.SameDate(d, target) {
			res.TargetPrediction, res.TargetFound = values[i], true
		}
	}
	if !res.TargetFound {
		uc.l.Warn("target date missing from planned range",
			applogger.String("bank", h.Key),
			applogger.String("date", util.FormatDate(target)),
			applogger.String("period", string(period)),
		)
	}

	uc.store(ctx, key, res)
	return res, nil
}

func (uc *PredictionUseCase) cached(ctx context.Context, key string) (*models.PredictionResult, bool) {
	b, ok, err := uc.cache.GetBytes(ctx, key)
	if err != nil {
		uc.l.Warn("prediction cache read failed", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var res models.PredictionResult
	if err := json.Unmarshal(b, &res); err != nil {
		uc.l.Warn("prediction cache entry unreadable", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	return &res, true
}

func (uc *PredictionUseCase) store(ctx context.Context, key string, res *models.PredictionResult) {
	b, err := json.Marshal(res)
	if err == nil {
		err = uc.cache.SetBytes(ctx, key, b, uc.cacheTTL)
	}
	if err != nil {
		uc.l.Warn("prediction cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

// Banks lists the entity keys that have a persisted model.
func (uc *PredictionUseCase) Banks(ctx context.Context) ([]string, error) {
	keys, err := uc.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return keys, nil
}

// ErrorKind is a low-cardinality label for err.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, models.ErrInvalidPeriod):
		return "invalid_period"
	case errors.Is(err, models.ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, models.ErrPredictionFailure):
		return "prediction_failure"
	case errors.Is(err, models.ErrTrainingFailure):
		return "training_failure"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
