package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
	"Sentinel/internal/usecase"
	xhttp "Sentinel/pkg/http"
	xlogger "Sentinel/pkg/logger"
)

// EvaluateHandler serves evaluations, the verdict log and realtime snapshots.
type EvaluateHandler struct {
	logger   *xlogger.Logger
	eval     *usecase.EvaluateUseCase
	realtime *usecase.RealtimeFundUseCase
	reader   domrepo.MarketDataReader
	useRT    bool
}

func NewEvaluateHandler(logger *xlogger.Logger, eval *usecase.EvaluateUseCase, rt *usecase.RealtimeFundUseCase, reader domrepo.MarketDataReader, useRealtime bool) *EvaluateHandler {
	return &EvaluateHandler{logger: logger, eval: eval, realtime: rt, reader: reader, useRT: useRealtime}
}

func (h *EvaluateHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/evaluate", h.Evaluate)
	g.GET("/evaluate/:code", h.EvaluateCode)
	g.GET("/verdicts/:code", h.Verdicts)
	g.GET("/realtime/:code", h.Realtime)
}

func (h *EvaluateHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluationInput{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.eval.Evaluate(c.Request().Context(), req))
}

func (h *EvaluateHandler) EvaluateCode(c echo.Context) error {
	req := &models.EvaluateCodeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	out, err := h.eval.EvaluateCode(c.Request().Context(), usecase.EvaluateParams{
		Code:     req.Code,
		Lookback: req.Lookback,
		Index:    req.Index,
		Realtime: h.useRT && !req.Offline,
	})
	if err != nil {
		h.logger.Error("evaluate usecase error", xlogger.String("code", req.Code), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err, errorRules...)
	}
	return xhttp.SuccessResponse(c, out)
}

// Verdicts lists the decision log: ?since=<time>&limit=<n>, newest first.
func (h *EvaluateHandler) Verdicts(c echo.Context) error {
	code := c.Param("code")
	since := xhttp.QueryTime(c, "since", time.Now().Add(-24*time.Hour))
	limit := xhttp.QueryInt(c, "limit", 50, 1, 500)

	rows, err := h.eval.RecentVerdicts(c.Request().Context(), code, since, limit)
	if err != nil {
		h.logger.Error("verdict log error", xlogger.String("code", code), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err, errorRules...)
	}
	if rows == nil {
		rows = []models.Verdict{}
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *EvaluateHandler) Realtime(c echo.Context) error {
	req := &models.RealtimeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()
	var baseline []models.MoneyFlowRecord
	if h.reader != nil {
		flow, err := h.reader.GetFlow(ctx, req.Code, 1)
		if err != nil {
			h.logger.Debug("no baseline flow", xlogger.String("code", req.Code), xlogger.Error(err))
		}
		baseline = flow
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, h.realtime.Report(ctx, req.Code, baseline))
}

// errorRules maps use case errors onto HTTP replies.
var errorRules = []xhttp.ErrorRule{
	{Target: domrepo.ErrNoData, Code: "ERR_NO_MARKET_DATA", Status: http.StatusNotFound, Message: "no market data"},
	{Target: context.DeadlineExceeded, Code: xhttp.CodeUnavailable, Status: http.StatusGatewayTimeout, Message: "upstream timeout"},
}
