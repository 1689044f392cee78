package decision

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinel/internal/domain/models"
)

var fixed = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func newCore() *Core {
	return NewCore(DefaultThresholds(), func() time.Time { return fixed })
}

func TestVerdictNoJudgments(t *testing.T) {
	v := newCore().Verdict("600519")
	assert.Equal(t, models.ActionWatch, v.ActionClass)
	assert.Equal(t, 0.5, v.Confidence)
	assert.Equal(t, reasonNoSignal, v.PrimaryReason)
	assert.False(t, v.IsVetoed)
	assert.Equal(t, fixed, v.Timestamp)
}

func TestP2SellVetoesBuys(t *testing.T) {
	c := newCore()
	require.NoError(t, c.Judge(models.P3TrendChip, models.SignalBuy, "score 78", 0.6, "score"))
	require.NoError(t, c.Judge(models.P3TrendChip, models.SignalBuy, "chip confirm", 0.6, "chip"))
	require.NoError(t, c.Judge(models.P2RealtimeFund, models.SignalSell, "outflow 3000", 0.8, "realtime_fund"))

	v := c.Verdict("000001")
	assert.True(t, v.IsVetoed)
	assert.Equal(t, models.ActionWatch, v.ActionClass)
	assert.Equal(t, 0.7, v.Confidence)
	assert.Equal(t, reasonVetoed, v.PrimaryReason)
	assert.Equal(t, []string{"[P2_REALTIME_FUND] outflow 3000"}, v.VetoReasons)
	assert.Equal(t, models.P2RealtimeFund, v.AllInputs[0].Priority)
}

func TestStrongSellVetoRuns(t *testing.T) {
	c := newCore()
	require.NoError(t, c.Judge(models.P3TrendChip, models.SignalStrongSell, "late", 1, "x"))
	require.NoError(t, c.Judge(models.P1MarketExtreme, models.SignalStrongSell, "market crash", 0.9, "market"))

	v := c.Verdict("000001")
	assert.Equal(t, models.ActionRun, v.ActionClass)
	assert.Equal(t, 0.9, v.Confidence)
	assert.Equal(t, "market crash", v.PrimaryReason)
}

func TestKillSwitchVetoBeatsBuys(t *testing.T) {
	c := newCore()
	for i := 0; i < 4; i++ {
		require.NoError(t, c.Judge(models.P3TrendChip, models.SignalStrongBuy, "buy", 1, "score"))
	}
	require.NoError(t, c.Judge(models.P0AccountRisk, models.SignalVeto, "2 consecutive losses", 1, "global_risk"))

	v := c.Verdict("000001")
	assert.NotEqual(t, models.ActionGo, v.ActionClass)
	assert.True(t, v.IsVetoed)
	assert.True(t, v.HasJudgment(models.P0AccountRisk, models.SignalVeto, "global_risk"))
}

func TestVetoPrecedenceOverNarrativeBuy(t *testing.T) {
	priorities := []models.Priority{models.P0AccountRisk, models.P1MarketExtreme, models.P2RealtimeFund}
	signals := []models.Signal{models.SignalSell, models.SignalStrongSell, models.SignalVeto}
	for _, p := range priorities {
		for _, sig := range signals {
			t.Run(p.String()+"/"+string(sig), func(t *testing.T) {
				c := newCore()
				require.NoError(t, c.Judge(models.P4Narrative, models.SignalBuy, "story", 1.0, "narrative"))
				require.NoError(t, c.Judge(p, sig, "bearish", 0.5, "guard"))

				v := c.Verdict("000001")
				assert.True(t, v.IsVetoed)
				assert.NotEqual(t, models.ActionGo, v.ActionClass)
				assert.Equal(t, []string{"[" + p.String() + "] bearish"}, v.VetoReasons)
				if sig == models.SignalStrongSell {
					assert.Equal(t, models.ActionRun, v.ActionClass)
				} else {
					assert.Equal(t, models.ActionWatch, v.ActionClass)
					assert.Equal(t, reasonVetoed, v.PrimaryReason)
				}
			})
		}
	}
}

func TestVetoIsSticky(t *testing.T) {
	c := newCore()
	require.NoError(t, c.Judge(models.P1MarketExtreme, models.SignalVeto, "chip crowded", 1, "chip"))
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Judge(models.P2RealtimeFund, models.SignalStrongBuy, "inflow", 1, "realtime_fund"))
	}
	assert.True(t, c.IsVetoed())
	assert.True(t, c.Verdict("x").IsVetoed)
}

func TestBearishLowPriorityDoesNotVeto(t *testing.T) {
	c := newCore()
	require.NoError(t, c.Judge(models.P3TrendChip, models.SignalSell, "weak", 0.6, "score"))
	require.NoError(t, c.Judge(models.P4Narrative, models.SignalVeto, "story", 1, "ai"))
	assert.False(t, c.IsVetoed())
}

func TestTally(t *testing.T) {
	tests := []struct {
		name   string
		inputs []models.Judgment
		class  models.ActionClass
		conf   float64
		reason string
	}{
		{
			name: "two confirmed buys",
			inputs: []models.Judgment{
				{Priority: models.P2RealtimeFund, Signal: models.SignalBuy, Reason: "inflow", Confidence: 0.7},
				{Priority: models.P3TrendChip, Signal: models.SignalBuy, Reason: "score", Confidence: 0.6},
			},
			// 0.7/3 + 0.6/4 = 0.3833, under the buy margin
			class: models.ActionWatch, conf: 0.5, reason: reasonMixed,
		},
		{
			name: "strong buys at P1",
			inputs: []models.Judgment{
				{Priority: models.P3TrendChip, Signal: models.SignalBuy, Reason: "score", Confidence: 0.6},
				{Priority: models.P1MarketExtreme, Signal: models.SignalStrongBuy, Reason: "market", Confidence: 1},
				{Priority: models.P1MarketExtreme, Signal: models.SignalBuy, Reason: "breadth", Confidence: 1},
			},
			class: models.ActionGo, conf: 1, reason: "market (3 signals confirmed)",
		},
		{
			name: "single buy is not enough",
			inputs: []models.Judgment{
				{Priority: models.P0AccountRisk, Signal: models.SignalStrongBuy, Reason: "solo", Confidence: 1},
			},
			class: models.ActionWatch, conf: 0.5, reason: reasonMixed,
		},
		{
			name: "two sells confirm",
			inputs: []models.Judgment{
				{Priority: models.P3TrendChip, Signal: models.SignalSell, Reason: "score low", Confidence: 0.6},
				{Priority: models.P4Narrative, Signal: models.SignalSell, Reason: "story", Confidence: 0.5},
			},
			class: models.ActionWatch, conf: 0.25, reason: "score low",
		},
		{
			name: "reduce adds weight but no confirmation",
			inputs: []models.Judgment{
				{Priority: models.P3TrendChip, Signal: models.SignalReduce, Reason: "crowded", Confidence: 0.5},
				{Priority: models.P3TrendChip, Signal: models.SignalReduce, Reason: "crowded", Confidence: 0.5},
			},
			class: models.ActionWatch, conf: 0.5, reason: reasonMixed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCore()
			for _, j := range tt.inputs {
				require.NoError(t, c.Add(j))
			}
			v := c.Verdict("x")
			assert.Equal(t, tt.class, v.ActionClass)
			assert.InDelta(t, tt.conf, v.Confidence, 1e-9)
			assert.Equal(t, tt.reason, v.PrimaryReason)
			assert.False(t, v.IsVetoed)
		})
	}
}

func TestAddClampsConfidence(t *testing.T) {
	c := newCore()
	require.NoError(t, c.Judge(models.P3TrendChip, models.SignalBuy, "a", 7, "s"))
	require.NoError(t, c.Judge(models.P3TrendChip, models.SignalBuy, "b", math.NaN(), "s"))
	v := c.Verdict("x")
	assert.Equal(t, 1.0, v.AllInputs[0].Confidence)
	assert.Equal(t, 0.0, v.AllInputs[1].Confidence)
	assert.Equal(t, fixed, v.AllInputs[0].Timestamp)

	assert.Error(t, c.Judge(models.Priority(9), models.SignalBuy, "bad", 1, "s"))
	assert.Error(t, c.Judge(models.P3TrendChip, models.Signal("MAYBE"), "bad", 1, "s"))
}

func TestCheckVetoConditions(t *testing.T) {
	th := DefaultThresholds()
	assert.Empty(t, CheckVetoConditions(VetoInputs{BuySellRatio: 1}, th))
	assert.Empty(t, CheckVetoConditions(VetoInputs{}, th))

	reasons := CheckVetoConditions(VetoInputs{
		AccountDrawdown:   0.15,
		ConsecutiveLosses: 3,
		Sentiment:         models.SentimentSystemic,
		RealtimeNet:       -2500,
		BuySellRatio:      0.4,
		FundTrend:         models.FundTrendContinuousOutflow,
	}, th)
	assert.Len(t, reasons, 6)
	assert.Contains(t, reasons[3], "2500")
}

func TestApplyVetoConditions(t *testing.T) {
	c := newCore()
	require.NoError(t, c.Judge(models.P3TrendChip, models.SignalBuy, "score", 0.6, "score"))
	c.ApplyVetoConditions(VetoInputs{Sentiment: models.SentimentExtremePanic})

	v := c.Verdict("x")
	assert.True(t, v.IsVetoed)
	assert.Equal(t, models.ActionWatch, v.ActionClass)
	assert.Equal(t, []string{"market state: extreme_panic"}, v.VetoReasons)
}

func TestFilterNarrative(t *testing.T) {
	text := "main wave breakout ahead"
	assert.Equal(t, text, FilterNarrative(text, false))

	out := FilterNarrative(text, true)
	assert.True(t, strings.HasPrefix(out, riskBanner))
	assert.Contains(t, out, "[filtered:main wave]")
	assert.Contains(t, out, "[filtered:breakout]")
}

func TestCheckContradiction(t *testing.T) {
	ok, desc := CheckContradiction("Strong trend", "big outflow today")
	assert.True(t, ok)
	assert.Len(t, desc, 1)

	ok, desc = CheckContradiction("steady", "balanced")
	assert.False(t, ok)
	assert.Empty(t, desc)
}

func TestUnifiedConclusionFormats(t *testing.T) {
	v := models.Verdict{Action: "wait and see", PrimaryReason: "mixed"}
	assert.Equal(t, "SUMMARY: wait and see\nmixed", UnifiedConclusion(v, nil))
	assert.Equal(t, "VERDICT: wait and see\nweighing: mixed", UnifiedConclusion(v, []string{"c"}))

	v.IsVetoed = true
	v.VetoReasons = []string{"a", "b", "c"}
	assert.Equal(t, "FINAL VERDICT: wait and see\nveto factors: a; b", UnifiedConclusion(v, nil))
	assert.Equal(t, "FINAL VERDICT: wait and see\nreason: mixed\nc", UnifiedConclusion(v, []string{"c"}))
}

func TestNarrateFiltersVetoedText(t *testing.T) {
	v := models.Verdict{Action: "wait and see", PrimaryReason: "golden pit", IsVetoed: true, VetoReasons: []string{"iron bottom broken"}}
	text, contradictions := Narrate(v, "buy now", "extreme risk")
	assert.NotEmpty(t, contradictions)
	assert.Contains(t, text, "[filtered:golden pit]")
}
