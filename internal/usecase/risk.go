package usecase

import (
	"context"
	"fmt"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
	"Sentinel/internal/domain/service"
	"Sentinel/internal/services/risk"
	"Sentinel/pkg/logger"
)

type RiskStatus struct {
	models.RiskSnapshot
	TradingAllowed bool                   `json:"trading_allowed"`
	Drawdown       models.DrawdownControl `json:"drawdown_control"`
}

// RiskUseCase fronts the shared risk state for the API and kafka consumers.
type RiskUseCase struct {
	state  service.RiskState
	reader domrepo.MarketDataReader
	l      *logger.Logger
}

func NewRiskUseCase(state service.RiskState, reader domrepo.MarketDataReader, l *logger.Logger) *RiskUseCase {
	if l == nil {
		l = logger.Nop()
	}
	return &RiskUseCase{state: state, reader: reader, l: l.With("risk")}
}

func (uc *RiskUseCase) RecordTradeResult(isWin bool, pnlPct float64) RiskStatus {
	before := uc.state.Snapshot().KillSwitchActive
	uc.state.RecordTradeResult(isWin, pnlPct)
	st := uc.Status()
	uc.logTrip(before, st)
	return st
}

func (uc *RiskUseCase) UpdateDrawdown(current, peak float64) RiskStatus {
	before := uc.state.Snapshot().KillSwitchActive
	uc.state.UpdateDrawdown(current, peak)
	st := uc.Status()
	uc.logTrip(before, st)
	return st
}

func (uc *RiskUseCase) Status() RiskStatus {
	snap := uc.state.Snapshot()
	allowed, _ := uc.state.IsTradingAllowed()
	return RiskStatus{
		RiskSnapshot:   snap,
		TradingAllowed: allowed,
		Drawdown:       risk.DrawdownControl(snap.AccountDrawdown),
	}
}

// Reset clears the kill switch. It is a manual operator action.
func (uc *RiskUseCase) Reset(operator, note string) RiskStatus {
	prev := uc.state.Snapshot()
	uc.state.Deactivate()
	uc.l.Warn("kill switch reset",
		logger.String("operator", operator),
		logger.String("note", note),
		logger.String("previous_reason", prev.KillReason))
	return uc.Status()
}

func (uc *RiskUseCase) StopLoss(ctx context.Context, req models.StopLossRequest) (models.StopLoss, error) {
	bars, err := uc.reader.GetBars(ctx, req.Code, req.Lookback)
	if err != nil {
		return models.StopLoss{}, fmt.Errorf("stop loss %s: %w", req.Code, err)
	}
	return risk.DynamicStopLoss(req.EntryPrice, req.Current, bars), nil
}

func (uc *RiskUseCase) Sentiment(b models.Breadth) models.SentimentIndex {
	return risk.SentimentIndex(b)
}

func (uc *RiskUseCase) logTrip(before bool, st RiskStatus) {
	if !before && st.KillSwitchActive {
		uc.l.Error("kill switch activated",
			logger.String("reason", st.KillReason),
			logger.Int("consecutive_losses", st.ConsecutiveLosses),
			logger.Float64("drawdown", st.AccountDrawdown))
	}
}
