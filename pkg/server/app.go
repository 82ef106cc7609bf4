package server

import (
	"context"
	"errors"
	"net/http"

	"FinCast/internal/domain/models"
	"FinCast/internal/usecase"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/tracing"
)

// App holds the wired use cases and the HTTP server for the lifetime of one
// command.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	training   *usecase.TrainingUseCase
	prediction *usecase.PredictionUseCase
	httpServer *xhttp.Server
	shutdown   tracing.ShutdownFunc
}

func New(
	cfg *config.Config,
	l *applogger.Logger,
	training *usecase.TrainingUseCase,
	prediction *usecase.PredictionUseCase,
	httpServer *xhttp.Server,
	shutdown tracing.ShutdownFunc,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		training:   training,
		prediction: prediction,
		httpServer: httpServer,
		shutdown:   shutdown,
	}
}

func (a *App) Logger() *applogger.Logger { return a.l }

// Handler exposes the HTTP routes without binding a listener.
func (a *App) Handler() http.Handler { return a.httpServer.Echo() }

// Serve runs the HTTP API until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	a.l.Info("serving predictions",
		applogger.String("env", a.cfg.Environment),
		applogger.String("models_dir", a.cfg.Models.Dir),
		applogger.String("fallback_models_dir", a.cfg.Models.FallbackDir),
		applogger.String("cache", a.cfg.Cache.Backend),
	)
	return a.httpServer.Run(ctx)
}

// ErrNothingTrained is returned when datasets were found but none produced a model.
var ErrNothingTrained = errors.New("no dataset trained successfully")

// Train fits every discovered dataset. Per-dataset failures are reported in
// the outcomes; the error is set only when discovery fails or every dataset
// failed.
func (a *App) Train(ctx context.Context) (map[string]models.TrainingOutcome, error) {
	outcomes, err := a.training.TrainAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		if o.Succeeded() {
			return outcomes, nil
		}
	}
	if len(outcomes) > 0 {
		return outcomes, ErrNothingTrained
	}
	return outcomes, nil
}

func (a *App) Predict(ctx context.Context, p usecase.PredictParams) (*models.PredictionResult, error) {
	return a.prediction.PredictRange(ctx, p)
}

func (a *App) Banks(ctx context.Context) ([]string, error) {
	return a.prediction.Banks(ctx)
}

// Close flushes pending spans. Stores, caches and clients are released by
// the cleanup returned from the injector.
func (a *App) Close(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown(ctx)
}
