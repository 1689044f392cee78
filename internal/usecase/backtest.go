package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
	"Sentinel/internal/domain/service"
	"Sentinel/internal/services/evaluator"
	"Sentinel/internal/services/indicators"
	"Sentinel/pkg/logger"
)

const (
	defaultBacktestLookback = 500
	defaultBacktestWindow   = 60
	defaultBacktestHorizon  = 20
	defaultTakeProfitPct    = 8.0
	defaultStopLossPct      = -5.0
	reportedTrades          = 20
)

// BacktestParams bound one walk. Zero values take the defaults above.
type BacktestParams struct {
	Code       string
	Lookback   int
	Index      string
	Window     int     // bars per evaluation
	Horizon    int     // bars held at most, also the forward-return span
	TakeProfit float64 // percent
	StopLoss   float64 // percent, negative
}

func (p *BacktestParams) applyDefaults() {
	if p.Lookback <= 0 {
		p.Lookback = defaultBacktestLookback
	}
	if p.Window <= 0 {
		p.Window = defaultBacktestWindow
	}
	if p.Horizon <= 0 {
		p.Horizon = defaultBacktestHorizon
	}
	if p.TakeProfit == 0 {
		p.TakeProfit = defaultTakeProfitPct
	}
	if p.StopLoss == 0 {
		p.StopLoss = defaultStopLossPct
	}
}

// BacktestUseCase walks stored history through the evaluator one bar at a
// time. Every go verdict opens a simulated trade that closes on take-profit,
// stop-loss or the horizon. Nothing is persisted or published.
type BacktestUseCase struct {
	reader       domrepo.MarketDataReader
	chips        service.ChipProvider
	eval         *evaluator.Evaluator
	risk         service.RiskState
	l            *logger.Logger
	flowLookback int
}

type BacktestDeps struct {
	Reader    domrepo.MarketDataReader
	Chips     service.ChipProvider // nil leaves chip input empty
	Evaluator *evaluator.Evaluator
	// Risk receives each trade result once the walk reaches its exit bar.
	// It should be the state the evaluator reads; nil disables feedback.
	Risk   service.RiskState
	Logger *logger.Logger
}

func NewBacktestUseCase(d BacktestDeps, flowLookback int) *BacktestUseCase {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if flowLookback <= 0 {
		flowLookback = 10
	}
	return &BacktestUseCase{
		reader:       d.Reader,
		chips:        d.Chips,
		eval:         d.Evaluator,
		risk:         d.Risk,
		l:            d.Logger.With("backtest"),
		flowLookback: flowLookback,
	}
}

type openTrade struct {
	trade   models.BacktestTrade
	exitPos int
}

func (uc *BacktestUseCase) Run(ctx context.Context, p BacktestParams) (*models.BacktestReport, error) {
	if p.Code == "" {
		return nil, fmt.Errorf("code required")
	}
	p.applyDefaults()
	if p.TakeProfit < 0 || p.StopLoss > 0 {
		return nil, fmt.Errorf("take profit must be positive and stop loss negative, got %v/%v", p.TakeProfit, p.StopLoss)
	}

	bars, err := uc.reader.GetBars(ctx, p.Code, p.Lookback)
	if err != nil {
		return nil, fmt.Errorf("backtest %s: %w", p.Code, err)
	}
	if len(bars) < p.Window {
		return nil, fmt.Errorf("backtest %s: %d bars, window needs %d: %w", p.Code, len(bars), p.Window, domrepo.ErrNoData)
	}
	flow, err := uc.reader.GetFlow(ctx, p.Code, p.Lookback)
	if err != nil {
		uc.l.Warn("flow unavailable", logger.String("code", p.Code), logger.Error(err))
	}
	var index []models.Bar
	if p.Index != "" {
		if index, err = uc.reader.GetIndexBars(ctx, p.Index, p.Lookback); err != nil && !errors.Is(err, domrepo.ErrNoData) {
			uc.l.Warn("index bars unavailable", logger.String("index", p.Index), logger.Error(err))
		}
	}

	rep := &models.BacktestReport{
		Instrument:    p.Code,
		From:          bars[len(bars)-1].TradeDate,
		To:            bars[0].TradeDate,
		Verdicts:      map[models.ActionClass]int{},
		ForwardReturn: map[models.ActionClass]float64{},
	}
	fwdSum := map[models.ActionClass]float64{}
	fwdN := map[models.ActionClass]int{}
	var pending []openTrade
	var trades []models.BacktestTrade

	// bars are most-recent-first, so the walk runs pos downwards
	for pos := len(bars) - p.Window; pos >= 0; pos-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pending = uc.settle(pending, pos)

		window := bars[pos : pos+p.Window]
		in := &models.EvaluationInput{
			Instrument: p.Code,
			Bars:       window,
			Flow:       flowAsOf(flow, window[0].TradeDate, uc.flowLookback),
			MarketBars: barsAsOf(index, window[0].TradeDate, p.Window),
		}
		if uc.chips != nil {
			dist := uc.chips.GetChip(ctx, p.Code, window, window[0].Close)
			in.Chip = &dist
		}
		out := uc.eval.Evaluate(in)

		class := out.Verdict.ActionClass
		rep.Evaluations++
		rep.Verdicts[class]++
		if out.Verdict.IsVetoed {
			rep.Vetoed++
		}
		if pos >= p.Horizon {
			if fwd, ok := pctChange(window[0].Close, bars[pos-p.Horizon].Close); ok {
				fwdSum[class] += fwd
				fwdN[class]++
			}
		}

		if class != models.ActionGo {
			continue
		}
		rep.Signals++
		t, exitPos, ok := simulateTrade(bars, pos, p)
		if !ok {
			rep.OpenTrades++
			continue
		}
		trades = append(trades, t)
		pending = append(pending, openTrade{trade: t, exitPos: exitPos})
	}

	for class, n := range fwdN {
		rep.ForwardReturn[class] = indicators.Round(fwdSum[class]/float64(n), 2)
	}
	summarizeTrades(rep, trades)

	uc.l.Info("backtest finished",
		logger.String("code", p.Code),
		logger.Int("evaluations", rep.Evaluations),
		logger.Int("signals", rep.Signals),
		logger.Int("trades", rep.CompletedTrades),
		logger.Float64("win_rate", rep.WinRate),
		logger.Float64("avg_return", rep.AvgReturn),
	)
	return rep, nil
}

// settle reports trades whose exit bar is at or before pos, earliest exit
// first.
func (uc *BacktestUseCase) settle(pending []openTrade, pos int) []openTrade {
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].exitPos > pending[j].exitPos })
	n := 0
	for n < len(pending) && pending[n].exitPos >= pos {
		if uc.risk != nil {
			uc.risk.RecordTradeResult(pending[n].trade.Win, pending[n].trade.ProfitPct)
		}
		n++
	}
	return pending[n:]
}

// simulateTrade enters at the close of bars[pos]. ok is false when the
// history ends before any exit rule fires.
func simulateTrade(bars []models.Bar, pos int, p BacktestParams) (models.BacktestTrade, int, bool) {
	entry := bars[pos]
	for j := 1; j <= p.Horizon && pos-j >= 0; j++ {
		b := bars[pos-j]
		chg, ok := pctChange(entry.Close, b.Close)
		if !ok {
			return models.BacktestTrade{}, 0, false
		}
		var reason models.ExitReason
		switch {
		case chg >= p.TakeProfit:
			reason = models.ExitTakeProfit
		case chg <= p.StopLoss:
			reason = models.ExitStopLoss
		case j == p.Horizon:
			reason = models.ExitTimeLimit
		default:
			continue
		}
		return models.BacktestTrade{
			EntryDate:  entry.TradeDate,
			EntryPrice: entry.Close,
			ExitDate:   b.TradeDate,
			ExitPrice:  b.Close,
			HoldBars:   j,
			ProfitPct:  indicators.Round(chg, 2),
			ExitReason: reason,
			Win:        chg > 0,
		}, pos - j, true
	}
	return models.BacktestTrade{}, 0, false
}

func summarizeTrades(rep *models.BacktestReport, trades []models.BacktestTrade) {
	rep.CompletedTrades = len(trades)
	if len(trades) == 0 {
		return
	}
	var sum, hold float64
	rep.MaxReturn, rep.MaxLoss = trades[0].ProfitPct, trades[0].ProfitPct
	for _, t := range trades {
		if t.Win {
			rep.Wins++
		} else {
			rep.Losses++
		}
		sum += t.ProfitPct
		hold += float64(t.HoldBars)
		if t.ProfitPct > rep.MaxReturn {
			rep.MaxReturn = t.ProfitPct
		}
		if t.ProfitPct < rep.MaxLoss {
			rep.MaxLoss = t.ProfitPct
		}
	}
	n := float64(len(trades))
	rep.WinRate = indicators.Round(float64(rep.Wins)/n*100, 2)
	rep.AvgReturn = indicators.Round(sum/n, 2)
	rep.AvgHoldBars = indicators.Round(hold/n, 1)
	if len(trades) > reportedTrades {
		trades = trades[len(trades)-reportedTrades:]
	}
	rep.Trades = trades
}

func pctChange(from, to float64) (float64, bool) {
	if from <= 0 {
		return 0, false
	}
	return (to - from) / from * 100, true
}

// flowAsOf keeps the newest n records dated on or before date. Undated
// records are kept.
func flowAsOf(flow []models.MoneyFlowRecord, date string, n int) []models.MoneyFlowRecord {
	out := make([]models.MoneyFlowRecord, 0, n)
	for _, f := range flow {
		if date != "" && f.TradeDate != "" && f.TradeDate > date {
			continue
		}
		out = append(out, f)
		if len(out) == n {
			break
		}
	}
	return out
}

func barsAsOf(bars []models.Bar, date string, n int) []models.Bar {
	if len(bars) == 0 {
		return nil
	}
	out := make([]models.Bar, 0, n)
	for _, b := range bars {
		if date != "" && b.TradeDate != "" && b.TradeDate > date {
			continue
		}
		out = append(out, b)
		if len(out) == n {
			break
		}
	}
	return out
}
