package api

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/labstack/echo/v4"

	"FinCast/internal/domain/models"
	xhttp "FinCast/pkg/http"
	xlogger "FinCast/pkg/logger"
)

// Trainer is the part of the training use case the handler needs.
type Trainer interface {
	TrainAll(ctx context.Context) (map[string]models.TrainingOutcome, error)
}

// TrainingEchoHandler runs a training batch inside the serving process, so it
// writes through the same open model stores the predictions read from.
type TrainingEchoHandler struct {
	logger *xlogger.Logger
	uc     Trainer
	mu     sync.Mutex
}

func NewTrainingEchoHandler(logger *xlogger.Logger, uc Trainer) *TrainingEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &TrainingEchoHandler{logger: logger, uc: uc}
}

func (h *TrainingEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/train", h.Train)
}

// Train runs TrainAll and answers with one outcome per entity, sorted by key.
// A run already in progress yields 409.
func (h *TrainingEchoHandler) Train(c echo.Context) error {
	if !h.mu.TryLock() {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_TRAINING_IN_PROGRESS", "", "a training run is already in progress", http.StatusConflict))
	}
	defer h.mu.Unlock()

	// A dropped client must not abandon a half-written batch.
	outcomes, err := h.uc.TrainAll(context.WithoutCancel(c.Request().Context()))
	if err != nil {
		h.logger.Error("training run failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("ERR_TRAINING_FAILED", err.Error()).WithError(err))
	}

	rows := make([]models.TrainingOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, o)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Entity < rows[j].Entity })
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
