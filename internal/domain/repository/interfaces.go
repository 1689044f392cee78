package repository

import (
	"context"
	"errors"
	"time"

	"Sentinel/internal/domain/models"
)

// ErrNoData is returned by readers when an instrument has no stored rows.
var ErrNoData = errors.New("no data")

// MarketDataReader serves historical bars and flow, most-recent-first.
type MarketDataReader interface {
	GetBars(ctx context.Context, code string, lookback int) ([]models.Bar, error)
	GetFlow(ctx context.Context, code string, lookback int) ([]models.MoneyFlowRecord, error)
	GetIndexBars(ctx context.Context, index string, lookback int) ([]models.Bar, error)
	Health(ctx context.Context) error
}

// VerdictStore is the append-only decision log.
type VerdictStore interface {
	SaveVerdict(ctx context.Context, e *models.Evaluation) error
	RecentVerdicts(ctx context.Context, instrument string, since time.Time, limit int) ([]models.Verdict, error)
}

type VerdictPublisher interface {
	PublishVerdict(ctx context.Context, v *models.Verdict) error
	Close() error
}

type Metrics interface {
	RecordVerdict(class models.ActionClass, vetoed bool)
	RecordKillSwitch(active bool)
	RecordLatency(op string, seconds float64)
	RecordSourceFetch(source string, ok bool)
	RecordError(kind string)
}
