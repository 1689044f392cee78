package usecase

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
	"Sentinel/internal/domain/service"
	"Sentinel/internal/service/quotes"
	"Sentinel/internal/services/realtime"
	"Sentinel/pkg/cache"
	"Sentinel/pkg/logger"
)

var errNoValidSource = errors.New("no valid realtime source")

type RealtimeConfig struct {
	Timeout    time.Duration
	MaxWorkers int
	CacheTTL   time.Duration
}

func DefaultRealtimeConfig() RealtimeConfig {
	return RealtimeConfig{Timeout: 10 * time.Second, MaxWorkers: 3, CacheTTL: 30 * time.Second}
}

// RealtimeFundUseCase fans out to the quote sources and merges whatever
// answered. It never returns an error; a snapshot with no source is
// Valid=false.
type RealtimeFundUseCase struct {
	sources []quotes.Source
	cache   cache.Service
	metrics domrepo.Metrics
	l       *logger.Logger
	cfg     RealtimeConfig
	now     func() time.Time
}

var _ service.SnapshotProvider = (*RealtimeFundUseCase)(nil)

// NewRealtimeFundUseCase accepts a nil cache to disable caching.
func NewRealtimeFundUseCase(sources []quotes.Source, c cache.Service, m domrepo.Metrics, l *logger.Logger, cfg RealtimeConfig) *RealtimeFundUseCase {
	if l == nil {
		l = logger.Nop()
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &RealtimeFundUseCase{
		sources: sources,
		cache:   c,
		metrics: m,
		l:       l.With("realtime"),
		cfg:     cfg,
		now:     time.Now,
	}
}

func (uc *RealtimeFundUseCase) GetSnapshot(ctx context.Context, code string) models.RealtimeSnapshot {
	if uc.cache == nil || uc.cfg.CacheTTL <= 0 {
		snap, _ := uc.fetch(ctx, code)
		return snap
	}
	// invalid snapshots come back with errNoValidSource and are not cached
	snap, hit, _ := cache.Remember(ctx, uc.cache, cache.Key("realtime", code), uc.cfg.CacheTTL,
		func(ctx context.Context) (models.RealtimeSnapshot, error) { return uc.fetch(ctx, code) })
	if hit {
		uc.l.Debug("realtime cache hit", logger.String("code", code))
	}
	return snap
}

// RealtimeReport adds the baseline comparison against the latest daily flow.
type RealtimeReport struct {
	Snapshot models.RealtimeSnapshot `json:"snapshot"`
	Alert    *realtime.Alert         `json:"alert,omitempty"`
}

func (uc *RealtimeFundUseCase) Report(ctx context.Context, code string, baseline []models.MoneyFlowRecord) RealtimeReport {
	r := RealtimeReport{Snapshot: uc.GetSnapshot(ctx, code)}
	if r.Snapshot.Valid && len(baseline) > 0 {
		a := realtime.CompareBaseline(r.Snapshot, baseline[0].MainNetInflow)
		r.Alert = &a
	}
	return r
}

func (uc *RealtimeFundUseCase) fetch(ctx context.Context, code string) (models.RealtimeSnapshot, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
	defer cancel()

	readings := make([]*models.SourceReading, len(uc.sources))
	var g errgroup.Group
	g.SetLimit(uc.cfg.MaxWorkers)
	for i, src := range uc.sources {
		i, src := i, src
		g.Go(func() error {
			r, err := src.Fetch(ctx, code)
			if uc.metrics != nil {
				uc.metrics.RecordSourceFetch(src.Name(), err == nil)
			}
			if err != nil {
				uc.l.Warn("realtime source failed",
					logger.String("source", src.Name()),
					logger.String("code", code),
					logger.Error(err))
				return nil
			}
			readings[i] = &r
			return nil
		})
	}
	_ = g.Wait()

	var ok []models.SourceReading
	for _, r := range readings {
		if r != nil {
			ok = append(ok, *r)
		}
	}
	snap := realtime.Merge(code, ok, uc.now())
	if uc.metrics != nil {
		uc.metrics.RecordLatency("realtime_fetch", time.Since(start).Seconds())
	}
	if !snap.Valid {
		return snap, errNoValidSource
	}
	return snap, nil
}
