package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
	"Sentinel/internal/services/session"
	"Sentinel/internal/usecase"
	xhttp "Sentinel/pkg/http"
	xlogger "Sentinel/pkg/logger"
)

// MarketHandler serves regime, session and health.
type MarketHandler struct {
	logger *xlogger.Logger
	regime *usecase.RegimeUseCase
	reader domrepo.MarketDataReader
	now    func() time.Time
}

func NewMarketHandler(logger *xlogger.Logger, regime *usecase.RegimeUseCase, reader domrepo.MarketDataReader) *MarketHandler {
	return &MarketHandler{logger: logger, regime: regime, reader: reader, now: time.Now}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/regime", h.GetRegime)
	g.PUT("/regime", h.SetRegime)
	g.POST("/regime/refresh", h.RefreshRegime)
	g.GET("/session", h.Session)
	g.GET("/health", h.Health)
}

type regimeResponse struct {
	Regime models.Regime `json:"regime"`
}

func (h *MarketHandler) GetRegime(c echo.Context) error {
	return xhttp.SuccessResponse(c, regimeResponse{Regime: h.regime.Get()})
}

func (h *MarketHandler) SetRegime(c echo.Context) error {
	req := &models.SetRegimeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	r, err := models.ParseRegime(req.Regime)
	if err == nil {
		err = h.regime.Set(r)
	}
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	}
	return xhttp.SuccessResponse(c, regimeResponse{Regime: h.regime.Get()})
}

func (h *MarketHandler) RefreshRegime(c echo.Context) error {
	req := &models.RefreshRegimeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	r, err := h.regime.Refresh(c.Request().Context(), req.Index, req.Lookback)
	if err != nil {
		h.logger.Error("regime refresh error", xlogger.String("index", req.Index), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err, errorRules...)
	}
	return xhttp.SuccessResponse(c, regimeResponse{Regime: r})
}

// Session reports the trading phase at ?at=<time>, default now.
func (h *MarketHandler) Session(c echo.Context) error {
	at := xhttp.QueryTime(c, "at", h.now())
	return xhttp.SuccessResponse(c, session.At(at))
}

func (h *MarketHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if h.reader != nil {
		if err := h.reader.Health(ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.Error(err))
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "storage": err.Error()})
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
