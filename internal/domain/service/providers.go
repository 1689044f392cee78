package service

import (
	"context"

	"Sentinel/internal/domain/models"
)

// ChipProvider estimates the holder cost distribution. Implementations
// degrade through their strategies and return Valid=false rather than an
// error when nothing can be estimated.
type ChipProvider interface {
	GetChip(ctx context.Context, code string, bars []models.Bar, price float64) models.ChipDistribution
}

// OfficialChipSource serves vendor-published chip data when available.
type OfficialChipSource interface {
	OfficialChip(ctx context.Context, code string, price float64) (models.ChipDistribution, error)
}

// SnapshotProvider returns a merged realtime snapshot. Partial source failure
// yields a snapshot with fewer sources; total failure yields Valid=false.
type SnapshotProvider interface {
	GetSnapshot(ctx context.Context, code string) models.RealtimeSnapshot
}

// RiskState is the shared circuit breaker consulted by every evaluation.
type RiskState interface {
	Snapshot() models.RiskSnapshot
	RecordTradeResult(isWin bool, pnlPct float64)
	UpdateDrawdown(current, peak float64)
	Activate(reason string)
	Deactivate()
	IsTradingAllowed() (bool, string)
}

// RegimeHolder stores the process-wide market regime.
type RegimeHolder interface {
	Get() models.Regime
	Set(r models.Regime)
}
