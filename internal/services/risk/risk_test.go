package risk

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinel/internal/domain/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newState() (*GlobalState, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)}
	return NewGlobalState(DefaultLimits(), clk.Now), clk
}

func TestLossStreakTripsKillSwitch(t *testing.T) {
	g, clk := newState()
	g.RecordTradeResult(false, -3)
	ok, _ := g.IsTradingAllowed()
	assert.True(t, ok)

	clk.t = clk.t.Add(time.Hour)
	g.RecordTradeResult(false, -2)
	ok, reason := g.IsTradingAllowed()
	assert.False(t, ok)
	assert.Equal(t, "2 consecutive losses", reason)

	s := g.Snapshot()
	assert.True(t, s.KillSwitchActive)
	assert.Equal(t, clk.t, s.KillTimestamp)
	assert.Equal(t, -2.0, s.LastPnLPct)
}

func TestWinResetsStreakButNotSwitch(t *testing.T) {
	g, _ := newState()
	g.RecordTradeResult(false, -1)
	g.RecordTradeResult(false, -1)
	g.RecordTradeResult(true, 4)

	s := g.Snapshot()
	assert.Equal(t, 0, s.ConsecutiveLosses)
	assert.True(t, s.KillSwitchActive)

	g.Deactivate()
	ok, _ := g.IsTradingAllowed()
	assert.True(t, ok)
	assert.Empty(t, g.Snapshot().KillReason)
}

func TestWinBetweenLossesPreventsTrip(t *testing.T) {
	g, _ := newState()
	g.RecordTradeResult(false, -1)
	g.RecordTradeResult(true, 1)
	g.RecordTradeResult(false, -1)
	assert.False(t, g.Snapshot().KillSwitchActive)
}

func TestDrawdownTripsKillSwitch(t *testing.T) {
	g, _ := newState()
	g.UpdateDrawdown(95, 100)
	assert.False(t, g.Snapshot().KillSwitchActive)
	assert.InDelta(t, 0.05, g.Snapshot().AccountDrawdown, 1e-12)

	g.UpdateDrawdown(100, 0)
	assert.InDelta(t, 0.05, g.Snapshot().AccountDrawdown, 1e-12)

	g.UpdateDrawdown(88, 100)
	s := g.Snapshot()
	assert.True(t, s.KillSwitchActive)
	assert.Contains(t, s.KillReason, "drawdown")
}

func TestManualActivateKeepsFirstReason(t *testing.T) {
	g, _ := newState()
	var seen []models.RiskSnapshot
	g.OnChange(func(s models.RiskSnapshot) { seen = append(seen, s) })

	g.Activate("operator halt")
	g.RecordTradeResult(false, -1)
	g.RecordTradeResult(false, -1)

	assert.Equal(t, "operator halt", g.Snapshot().KillReason)
	require.Len(t, seen, 3)
	assert.True(t, seen[0].KillSwitchActive)
}

func TestSnapshotIsACopy(t *testing.T) {
	g, _ := newState()
	s := g.Snapshot()
	s.KillSwitchActive = true
	assert.False(t, g.Snapshot().KillSwitchActive)
}

func TestConcurrentMutation(t *testing.T) {
	g := NewGlobalState(Limits{MaxConsecutiveLosses: 1000, MaxDrawdown: 0.5}, nil)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.RecordTradeResult(false, -1)
		}()
		go func() {
			defer wg.Done()
			_, _ = g.IsTradingAllowed()
			_ = g.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, g.Snapshot().ConsecutiveLosses)
}

func TestOnChangeGaugeMatchesFinalSnapshot(t *testing.T) {
	for round := 0; round < 20; round++ {
		g := NewGlobalState(Limits{MaxConsecutiveLosses: 1, MaxDrawdown: 0.5}, nil)
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "kill_switch_active"})
		g.OnChange(func(s models.RiskSnapshot) {
			if s.KillSwitchActive {
				gauge.Set(1)
				return
			}
			gauge.Set(0)
		})

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				g.RecordTradeResult(false, -1)
			}()
			go func() {
				defer wg.Done()
				g.Deactivate()
			}()
		}
		wg.Wait()

		want := 0.0
		if g.Snapshot().KillSwitchActive {
			want = 1
		}
		require.Equal(t, want, testutil.ToFloat64(gauge), "round %d", round)
	}
}

func TestLimitsValidate(t *testing.T) {
	assert.NoError(t, DefaultLimits().Validate())
	assert.Error(t, Limits{MaxConsecutiveLosses: 0, MaxDrawdown: 0.1}.Validate())
	assert.Error(t, Limits{MaxConsecutiveLosses: 2, MaxDrawdown: 0}.Validate())
}

func rangeBars(n int, close, spread float64) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = models.Bar{Close: close, High: close + spread/2, Low: close - spread/2}
	}
	return bars
}

func TestDynamicStopLoss(t *testing.T) {
	tests := []struct {
		name       string
		entry, cur float64
		bars       []models.Bar
		stop       float64
		pct        float64
		typ        models.StopType
		suggestion string
	}{
		{"fallback atr flat", 10, 10, nil, 9.6, -4, models.StopFixed, "normal hold"},
		{"big gain ratchets", 10, 12.5, nil, 11, -12, models.StopTrailing, "large gain, take profit in batches"},
		{"gain over 10", 10, 11.5, nil, 10.5, -8.7, models.StopTrailing, "solid gain, reduce to lock in profit"},
		{"gain over 5", 10, 10.6, nil, 10, -5.66, models.StopTrailing, "in profit, hold with breakeven stop"},
		{"wide atr", 10, 10, rangeBars(16, 10, 0.5), 9, -10, models.StopFixed, "stop is far, consider a tighter position"},
		{"mid atr", 10, 10, rangeBars(16, 10, 0.3), 9.4, -6, models.StopFixed, "watch the risk, stop within reach"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sl := DynamicStopLoss(tt.entry, tt.cur, tt.bars)
			assert.InDelta(t, tt.stop, sl.StopPrice, 1e-9)
			assert.InDelta(t, tt.pct, sl.StopPct, 1e-9)
			assert.Equal(t, tt.typ, sl.Type)
			assert.Equal(t, tt.suggestion, sl.Suggestion)
		})
	}
}

func TestDrawdownControl(t *testing.T) {
	tests := []struct {
		dd     float64
		action models.DrawdownAction
		maxPos float64
	}{
		{0.25, models.DrawdownStop, 0},
		{0.18, models.DrawdownForceReduce, 0.5},
		{0.12, models.DrawdownWarn, 0.7},
		{0.07, models.DrawdownNotice, 1},
		{0.05, models.DrawdownNormal, 1},
		{0, models.DrawdownNormal, 1},
	}
	for _, tt := range tests {
		c := DrawdownControl(tt.dd)
		assert.Equal(t, tt.action, c.Action, "dd=%v", tt.dd)
		assert.Equal(t, tt.maxPos, c.MaxPositionPct, "dd=%v", tt.dd)
		assert.Equal(t, 15.0, c.MaxAllowedPct)
	}
	assert.Equal(t, 12.0, DrawdownControl(0.12).DrawdownPct)
}

func TestSentimentIndex(t *testing.T) {
	tests := []struct {
		name  string
		in    models.Breadth
		score float64
		level models.SentimentLevel
	}{
		{"no data", models.Breadth{}, 50, models.SentimentNeutral},
		{"euphoria", models.Breadth{UpCount: 800, DownCount: 200, LimitUp: 120, Volume: 160, AvgVolume: 100, NorthboundNet: 150}, 100, models.SentimentExtremeOptimism},
		{"crash", models.Breadth{UpCount: 100, DownCount: 900, LimitDown: 150, Volume: 60, AvgVolume: 100, NorthboundNet: -200}, 0, models.SentimentExtremePanic},
		{"quiet", models.Breadth{UpCount: 550, DownCount: 450}, 50, models.SentimentNeutral},
		{"mild optimism", models.Breadth{UpCount: 650, DownCount: 350, NorthboundNet: 60}, 66, models.SentimentOptimism},
		{"fearful", models.Breadth{UpCount: 350, DownCount: 650, LimitDown: 60}, 37, models.SentimentNeutral},
		{"panic", models.Breadth{UpCount: 350, DownCount: 650, LimitDown: 60, Volume: 85, AvgVolume: 100}, 32, models.SentimentPanic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SentimentIndex(tt.in)
			assert.Equal(t, tt.score, s.Score)
			assert.Equal(t, tt.level, s.Level)
		})
	}
}
