package usecase

import (
	"context"
	"fmt"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
	"Sentinel/internal/services/regime"
	"Sentinel/pkg/logger"
)

type RegimeUseCase struct {
	state  *regime.State
	reader domrepo.MarketDataReader
	l      *logger.Logger
}

func NewRegimeUseCase(state *regime.State, reader domrepo.MarketDataReader, l *logger.Logger) *RegimeUseCase {
	if l == nil {
		l = logger.Nop()
	}
	return &RegimeUseCase{state: state, reader: reader, l: l.With("regime")}
}

func (uc *RegimeUseCase) Get() models.Regime { return uc.state.Get() }

func (uc *RegimeUseCase) Set(r models.Regime) error {
	if !r.Valid() {
		return fmt.Errorf("invalid regime %q", r)
	}
	prev := uc.state.Get()
	uc.state.Set(r)
	uc.l.Info("regime set", logger.String("from", string(prev)), logger.String("to", string(r)))
	return nil
}

// Refresh classifies the latest index bars and stores the result.
func (uc *RegimeUseCase) Refresh(ctx context.Context, index string, lookback int) (models.Regime, error) {
	bars, err := uc.reader.GetIndexBars(ctx, index, lookback)
	if err != nil {
		return "", fmt.Errorf("refresh regime from %s: %w", index, err)
	}
	r := uc.state.Refresh(bars)
	uc.l.Info("regime refreshed",
		logger.String("index", index),
		logger.Int("bars", len(bars)),
		logger.String("regime", string(r)))
	return r, nil
}
