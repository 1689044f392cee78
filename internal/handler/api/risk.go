package api

import (
	"github.com/labstack/echo/v4"

	"Sentinel/internal/domain/models"
	"Sentinel/internal/usecase"
	xhttp "Sentinel/pkg/http"
	xlogger "Sentinel/pkg/logger"
)

type RiskHandler struct {
	logger *xlogger.Logger
	risk   *usecase.RiskUseCase
}

func NewRiskHandler(logger *xlogger.Logger, risk *usecase.RiskUseCase) *RiskHandler {
	return &RiskHandler{logger: logger, risk: risk}
}

func (h *RiskHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/risk")
	g.GET("/status", h.Status)
	g.POST("/trade-result", h.TradeResult)
	g.POST("/drawdown", h.Drawdown)
	g.POST("/reset", h.Reset)
	g.POST("/stop-loss", h.StopLoss)
	g.POST("/sentiment", h.Sentiment)
}

func (h *RiskHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.risk.Status())
}

func (h *RiskHandler) TradeResult(c echo.Context) error {
	req := &models.TradeResultRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.risk.RecordTradeResult(*req.IsWin, req.PnLPct))
}

func (h *RiskHandler) Drawdown(c echo.Context) error {
	req := &models.DrawdownRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.risk.UpdateDrawdown(req.Current, req.Peak))
}

func (h *RiskHandler) Reset(c echo.Context) error {
	req := &models.RiskResetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.risk.Reset(req.Operator, req.Note))
}

func (h *RiskHandler) StopLoss(c echo.Context) error {
	req := &models.StopLossRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sl, err := h.risk.StopLoss(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("stop loss error", xlogger.String("code", req.Code), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err, errorRules...)
	}
	return xhttp.SuccessResponse(c, sl)
}

func (h *RiskHandler) Sentiment(c echo.Context) error {
	req := &models.Breadth{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.risk.Sentiment(*req))
}
