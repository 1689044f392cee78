package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
	sthttp "Sentinel/pkg/http"
	pkgkafka "Sentinel/pkg/kafka"
)

// TradeResultHandler feeds closed trades into the risk state.
// Payload: {"is_win": bool, "pnl_pct": float}.
type TradeResultHandler struct {
	topic   string
	risk    *RiskUseCase
	metrics domrepo.Metrics
}

func NewTradeResultHandler(topic string, risk *RiskUseCase, m domrepo.Metrics) *TradeResultHandler {
	return &TradeResultHandler{topic: topic, risk: risk, metrics: m}
}

func (h *TradeResultHandler) Topic() string { return h.topic }

func (h *TradeResultHandler) Handle(_ context.Context, b []byte) error {
	var req models.TradeResultRequest
	if err := decode(b, &req); err != nil {
		h.recordError()
		return err
	}
	h.risk.RecordTradeResult(*req.IsWin, req.PnLPct)
	return nil
}

func (h *TradeResultHandler) recordError() {
	if h.metrics != nil {
		h.metrics.RecordError("consumer_trade_result")
	}
}

// EquityHandler feeds account value updates into the drawdown check.
// Payload: {"current": float, "peak": float}.
type EquityHandler struct {
	topic   string
	risk    *RiskUseCase
	metrics domrepo.Metrics
}

func NewEquityHandler(topic string, risk *RiskUseCase, m domrepo.Metrics) *EquityHandler {
	return &EquityHandler{topic: topic, risk: risk, metrics: m}
}

func (h *EquityHandler) Topic() string { return h.topic }

func (h *EquityHandler) Handle(_ context.Context, b []byte) error {
	var req models.DrawdownRequest
	if err := decode(b, &req); err != nil {
		if h.metrics != nil {
			h.metrics.RecordError("consumer_equity")
		}
		return err
	}
	h.risk.UpdateDrawdown(req.Current, req.Peak)
	return nil
}

// decode marks malformed or invalid payloads permanent; retrying the same
// bytes cannot succeed.
func decode(b []byte, dest interface{}) error {
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("%w: unmarshal: %v", pkgkafka.ErrPermanent, err)
	}
	if err := sthttp.ValidateStruct(dest); err != nil {
		return fmt.Errorf("%w: validate: %v", pkgkafka.ErrPermanent, err)
	}
	return nil
}

var (
	_ pkgkafka.MessageHandler = (*TradeResultHandler)(nil)
	_ pkgkafka.MessageHandler = (*EquityHandler)(nil)
)
