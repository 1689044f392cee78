package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
	"Sentinel/internal/domain/service"
	"Sentinel/internal/services/evaluator"
	"Sentinel/pkg/logger"
)

type EvaluateParams struct {
	Code     string
	Lookback int
	Index    string
	Realtime bool
}

// EvaluateUseCase gathers inputs from the stores and sources, runs the
// evaluator and logs every verdict. Persistence and publishing failures are
// logged, never returned; the verdict is already decided.
type EvaluateUseCase struct {
	reader       domrepo.MarketDataReader
	chips        service.ChipProvider
	snapshots    service.SnapshotProvider
	eval         *evaluator.Evaluator
	store        domrepo.VerdictStore
	publisher    domrepo.VerdictPublisher
	metrics      domrepo.Metrics
	l            *logger.Logger
	flowLookback int
	timeout      time.Duration
}

type EvaluateDeps struct {
	Reader    domrepo.MarketDataReader
	Chips     service.ChipProvider
	Snapshots service.SnapshotProvider // nil disables realtime
	Evaluator *evaluator.Evaluator
	Store     domrepo.VerdictStore
	Publisher domrepo.VerdictPublisher
	Metrics   domrepo.Metrics
	Logger    *logger.Logger
}

func NewEvaluateUseCase(d EvaluateDeps, flowLookback int) *EvaluateUseCase {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if flowLookback <= 0 {
		flowLookback = 10
	}
	return &EvaluateUseCase{
		reader:       d.Reader,
		chips:        d.Chips,
		snapshots:    d.Snapshots,
		eval:         d.Evaluator,
		store:        d.Store,
		publisher:    d.Publisher,
		metrics:      d.Metrics,
		l:            d.Logger.With("evaluate"),
		flowLookback: flowLookback,
		timeout:      15 * time.Second,
	}
}

// Evaluate runs the pipeline on caller-supplied inputs.
func (uc *EvaluateUseCase) Evaluate(ctx context.Context, in *models.EvaluationInput) *models.Evaluation {
	start := time.Now()
	out := uc.eval.Evaluate(in)
	uc.record(ctx, &out, start)
	return &out
}

// EvaluateCode fetches inputs for one instrument. Only missing bars fail the
// call; every other input degrades.
func (uc *EvaluateUseCase) EvaluateCode(ctx context.Context, p EvaluateParams) (*models.Evaluation, error) {
	if p.Code == "" {
		return nil, fmt.Errorf("code required")
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	in, err := uc.Inputs(ctx, p)
	if err != nil {
		return nil, err
	}
	out := uc.eval.Evaluate(in)
	uc.record(ctx, &out, start)
	return &out, nil
}

// Inputs assembles an EvaluationInput from the stores and sources.
func (uc *EvaluateUseCase) Inputs(ctx context.Context, p EvaluateParams) (*models.EvaluationInput, error) {
	bars, err := uc.reader.GetBars(ctx, p.Code, p.Lookback)
	if err != nil {
		uc.recordError("get_bars")
		return nil, fmt.Errorf("evaluate %s: %w", p.Code, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("evaluate %s: %w", p.Code, domrepo.ErrNoData)
	}
	in := &models.EvaluationInput{Instrument: p.Code, Bars: bars}

	if in.Flow, err = uc.reader.GetFlow(ctx, p.Code, uc.flowLookback); err != nil {
		uc.l.Warn("flow unavailable", logger.String("code", p.Code), logger.Error(err))
	}
	if p.Index != "" {
		if in.MarketBars, err = uc.reader.GetIndexBars(ctx, p.Index, p.Lookback); err != nil && !errors.Is(err, domrepo.ErrNoData) {
			uc.l.Warn("index bars unavailable", logger.String("index", p.Index), logger.Error(err))
		}
	}
	if uc.chips != nil {
		dist := uc.chips.GetChip(ctx, p.Code, bars, bars[0].Close)
		in.Chip = &dist
	}
	if p.Realtime && uc.snapshots != nil {
		snap := uc.snapshots.GetSnapshot(ctx, p.Code)
		in.Realtime = &snap
	}
	return in, nil
}

func (uc *EvaluateUseCase) RecentVerdicts(ctx context.Context, code string, since time.Time, limit int) ([]models.Verdict, error) {
	if uc.store == nil {
		return nil, nil
	}
	return uc.store.RecentVerdicts(ctx, code, since, limit)
}

func (uc *EvaluateUseCase) record(ctx context.Context, e *models.Evaluation, start time.Time) {
	v := &e.Verdict
	if uc.metrics != nil {
		uc.metrics.RecordVerdict(v.ActionClass, v.IsVetoed)
		uc.metrics.RecordLatency("evaluate", time.Since(start).Seconds())
	}
	uc.l.Info("verdict",
		logger.String("id", v.ID),
		logger.String("instrument", v.Instrument),
		logger.String("action_class", string(v.ActionClass)),
		logger.Bool("vetoed", v.IsVetoed),
		logger.Float64("score", e.Fusion.Score),
		logger.String("reason", v.PrimaryReason),
	)
	if uc.store != nil {
		if err := uc.store.SaveVerdict(ctx, e); err != nil {
			uc.recordError("save_verdict")
			uc.l.Error("save verdict failed", logger.String("id", v.ID), logger.Error(err))
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishVerdict(ctx, v); err != nil {
			uc.recordError("publish_verdict")
			uc.l.Error("publish verdict failed", logger.String("id", v.ID), logger.Error(err))
		}
	}
}

func (uc *EvaluateUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}
