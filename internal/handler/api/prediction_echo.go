package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"FinCast/internal/domain/models"
	"FinCast/internal/usecase"
	xhttp "FinCast/pkg/http"
	xlogger "FinCast/pkg/logger"
)

const homeMessage = "Stock Prediction API is running"

// Predictor is the part of the prediction use case the handler needs.
type Predictor interface {
	PredictRange(ctx context.Context, p usecase.PredictParams) (*models.PredictionResult, error)
	Banks(ctx context.Context) ([]string, error)
}

// PredictionEchoHandler serves the prediction API.
type PredictionEchoHandler struct {
	logger *xlogger.Logger
	uc     Predictor
}

func NewPredictionEchoHandler(logger *xlogger.Logger, uc Predictor) *PredictionEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &PredictionEchoHandler{logger: logger, uc: uc}
}

func (h *PredictionEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Home)
	e.POST("/predict", h.Predict)
	e.GET("/banks", h.Banks)
	e.GET("/health", h.Health)
}

func (h *PredictionEchoHandler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HomeResponse{Message: homeMessage})
}

func (h *PredictionEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.PredictRange(c.Request().Context(), usecase.PredictParams{
		Bank:   req.BankName,
		Date:   req.Date,
		Period: req.Period,
	})
	if err != nil {
		appErr := predictionError(err)
		fields := []xlogger.Field{
			xlogger.String("bank", req.BankName),
			xlogger.String("date", req.Date),
			xlogger.String("period", req.Period),
			xlogger.Error(err),
		}
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("predict failed", fields...)
		} else {
			h.logger.Warn("predict rejected", fields...)
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	return c.JSON(http.StatusOK, models.NewPredictResponse(res))
}

func (h *PredictionEchoHandler) Banks(c echo.Context) error {
	keys, err := h.uc.Banks(c.Request().Context())
	if err != nil {
		h.logger.Error("list banks failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("ERR_LIST_BANKS", "could not list trained banks").WithError(err))
	}
	if keys == nil {
		keys = []string{}
	}
	return xhttp.ListResponse(c, keys, int64(len(keys)))
}

func (h *PredictionEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, "ok")
}

// predictionError maps pipeline errors onto HTTP errors. Only a missing model
// is a client-visible 404; every other pipeline failure is a 500.
func predictionError(err error) *xhttp.AppError {
	var nf *models.ModelNotFoundError
	switch {
	case errors.As(err, &nf):
		return xhttp.NotFoundError("ERR_MODEL_NOT_FOUND", err.Error()).
			WithParam("bank", nf.Key).
			WithParam("attempted", nf.Attempted).
			WithError(err)
	case errors.Is(err, models.ErrModelNotFound):
		return xhttp.NotFoundError("ERR_MODEL_NOT_FOUND", err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidDate):
		return xhttp.InternalError("ERR_INVALID_DATE", err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidPeriod):
		return xhttp.InternalError("ERR_INVALID_PERIOD", err.Error()).WithError(err)
	case errors.Is(err, models.ErrPredictionFailure):
		return xhttp.InternalError("ERR_PREDICTION_FAILED", err.Error()).WithError(err)
	default:
		return xhttp.InternalError("ERR_INTERNAL", err.Error()).WithError(err)
	}
}
