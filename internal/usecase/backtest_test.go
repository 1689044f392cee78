package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
	"Sentinel/internal/services/decision"
	"Sentinel/internal/services/evaluator"
	"Sentinel/internal/services/fusion"
	"Sentinel/internal/services/regime"
	"Sentinel/internal/services/risk"
)

type staticChips struct{ dist models.ChipDistribution }

func (s staticChips) GetChip(context.Context, string, []models.Bar, float64) models.ChipDistribution {
	return s.dist
}

// history returns a flat run at 10 followed by tail, most-recent-first, with
// one inflow record per day.
func history(flat int, tail ...float64) ([]models.Bar, []models.MoneyFlowRecord) {
	closes := make([]float64, 0, flat+len(tail))
	for i := 0; i < flat; i++ {
		closes = append(closes, 10)
	}
	closes = append(closes, tail...)

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := len(closes)
	bars := make([]models.Bar, n)
	flow := make([]models.MoneyFlowRecord, n)
	for i, c := range closes {
		date := day.AddDate(0, 0, i).Format("20060102")
		bars[n-1-i] = models.Bar{TradeDate: date, Open: c, High: c, Low: c, Close: c, Volume: 1000, Amount: c * 100}
		flow[n-1-i] = models.MoneyFlowRecord{TradeDate: date, MainNetInflow: 2500}
	}
	return bars, flow
}

func newBacktest(t *testing.T, bars []models.Bar, flow []models.MoneyFlowRecord, limits risk.Limits) (*BacktestUseCase, *risk.GlobalState) {
	t.Helper()
	reader := &mockReader{}
	reader.On("GetBars", mock.Anything, "600519", 200).Return(bars, nil)
	reader.On("GetFlow", mock.Anything, "600519", 200).Return(flow, nil)

	th := decision.DefaultThresholds()
	th.BuyMargin = 0.2
	th.MinWinProbability = 0
	engine, err := fusion.NewEngine(fusion.DefaultConfig())
	require.NoError(t, err)
	rs := risk.NewGlobalState(limits, func() time.Time { return fixed })
	ev := evaluator.New(engine, th, rs, regime.NewState(models.RegimeShock),
		evaluator.WithClock(func() time.Time { return fixed }))

	uc := NewBacktestUseCase(BacktestDeps{
		Reader:    reader,
		Chips:     staticChips{models.ChipDistribution{AvgCost: 12, WinnerRate: 15, Valid: true}},
		Evaluator: ev,
		Risk:      rs,
	}, 5)
	return uc, rs
}

func TestBacktestTakeProfit(t *testing.T) {
	bars, flow := history(60, 10.2, 10.4, 10.6, 10.8, 11.0)
	uc, _ := newBacktest(t, bars, flow, risk.DefaultLimits())

	rep, err := uc.Run(context.Background(), BacktestParams{
		Code: "600519", Lookback: 200, Window: 60, Horizon: 5, TakeProfit: 7.9, StopLoss: -5,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, rep.Evaluations)
	assert.Equal(t, bars[len(bars)-1].TradeDate, rep.From)
	assert.Equal(t, bars[0].TradeDate, rep.To)

	var total int
	for _, n := range rep.Verdicts {
		total += n
	}
	assert.Equal(t, rep.Evaluations, total)
	assert.Equal(t, rep.Signals, rep.Verdicts[models.ActionGo])
	assert.Equal(t, rep.Signals, rep.OpenTrades+rep.CompletedTrades)

	// only the entry on the last flat bar reaches an exit inside the history;
	// the next entry at 10.2 peaks at 7.84%
	require.Equal(t, 1, rep.CompletedTrades)
	tr := rep.Trades[0]
	assert.Equal(t, bars[5].TradeDate, tr.EntryDate)
	assert.Equal(t, bars[1].TradeDate, tr.ExitDate)
	assert.Equal(t, 4, tr.HoldBars)
	assert.Equal(t, models.ExitTakeProfit, tr.ExitReason)
	assert.InDelta(t, 8.0, tr.ProfitPct, 1e-9)
	assert.True(t, tr.Win)
	assert.Equal(t, 100.0, rep.WinRate)
	assert.Equal(t, 1, rep.Wins)

	// the only bar with a full horizon ahead is the flat one, a go verdict
	assert.Equal(t, map[models.ActionClass]float64{models.ActionGo: 10}, rep.ForwardReturn)
}

func TestBacktestLossFeedsKillSwitch(t *testing.T) {
	bars, flow := history(60, 9, 9, 9, 9, 9, 9)
	uc, rs := newBacktest(t, bars, flow, risk.Limits{MaxConsecutiveLosses: 1, MaxDrawdown: 0.5})

	rep, err := uc.Run(context.Background(), BacktestParams{
		Code: "600519", Lookback: 200, Window: 60, Horizon: 3, TakeProfit: 8, StopLoss: -5,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, rep.Evaluations)

	require.Equal(t, 1, rep.CompletedTrades)
	assert.Equal(t, models.ExitStopLoss, rep.Trades[0].ExitReason)
	assert.Equal(t, -10.0, rep.Trades[0].ProfitPct)
	assert.Equal(t, 1, rep.Losses)

	// the stop-out is reported before the next bar is judged
	assert.Equal(t, 1, rep.Signals)
	assert.Equal(t, 6, rep.Vetoed)
	assert.True(t, rs.Snapshot().KillSwitchActive)
	assert.Equal(t, -10.0, rs.Snapshot().LastPnLPct)
}

func TestBacktestNeedsAWindow(t *testing.T) {
	bars, flow := history(30)
	uc, _ := newBacktest(t, bars, flow, risk.DefaultLimits())

	_, err := uc.Run(context.Background(), BacktestParams{Code: "600519", Lookback: 200, Window: 60})
	assert.ErrorIs(t, err, domrepo.ErrNoData)

	_, err = uc.Run(context.Background(), BacktestParams{})
	assert.Error(t, err)
}

func TestFlowAsOf(t *testing.T) {
	flow := []models.MoneyFlowRecord{
		{TradeDate: "20240105"}, {TradeDate: "20240104"}, {TradeDate: "20240103"}, {TradeDate: "20240102"},
	}
	got := flowAsOf(flow, "20240104", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "20240104", got[0].TradeDate)
	assert.Equal(t, "20240103", got[1].TradeDate)

	assert.Nil(t, barsAsOf(nil, "20240104", 5))
}
