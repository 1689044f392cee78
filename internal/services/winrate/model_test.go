package winrate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"Sentinel/internal/domain/models"
)

func TestProbability(t *testing.T) {
	assert.Equal(t, 0.5, Probability(nil))
	assert.Equal(t, 0.5, Probability([]string{"unknown_tag"}))
	assert.InDelta(t, 0.56089, Probability([]string{FundStrongBuy}), 1e-4)

	many := make([]string, 10)
	for i := range many {
		many[i] = FundStrongSell
	}
	assert.Equal(t, minProbability, Probability(many))

	for i := range many {
		many[i] = FundStrongBuy
	}
	assert.Equal(t, maxProbability, Probability(many))
}

func TestQuick(t *testing.T) {
	tests := []struct {
		name    string
		net     float64
		score   float64
		regime  models.Regime
		wp      float64
		ret     float64
		dd      float64
		signal  models.WinRateSignal
		conf    float64
		factors int
	}{
		{"bullish setup", 6000, 80, models.RegimeBull, 0.629, 0.0571, 0.021, models.WinRateBullish, 0.65, 3},
		{"bearish setup", -6000, 20, models.RegimeBear, 0.212, -0.0285, 0.045, models.WinRateBearish, 0.75, 3},
		{"neutral", 0, 50, models.RegimeShock, 0.465, 0.0097, 0.03, models.WinRateNeutral, 0.5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Quick(tt.net, tt.score, tt.regime)
			assert.Equal(t, tt.wp, res.WinProbability)
			assert.InDelta(t, tt.ret, res.ExpectedReturn, 1e-9)
			assert.InDelta(t, tt.dd, res.MaxDrawdownRisk, 1e-9)
			assert.Equal(t, tt.signal, res.Signal)
			assert.Equal(t, tt.conf, res.Confidence)
			assert.Len(t, res.FactorsUsed, tt.factors)
		})
	}
}

func TestClassifyFund(t *testing.T) {
	assert.Equal(t, FundStrongBuy, ClassifyFund(5001))
	assert.Equal(t, FundBuy, ClassifyFund(5000))
	assert.Equal(t, FundNeutral, ClassifyFund(0))
	assert.Equal(t, FundSell, ClassifyFund(-1000))
	assert.Equal(t, FundStrongSell, ClassifyFund(-5000))
}

func TestClassifyTrend(t *testing.T) {
	assert.Equal(t, TrendStrongUp, ClassifyTrend(12, 11, 10, 4))
	assert.Equal(t, TrendUp, ClassifyTrend(12, 11, 13, 1))
	assert.Equal(t, TrendStrongDown, ClassifyTrend(10, 11, 12, -4))
	assert.Equal(t, TrendDown, ClassifyTrend(10, 11, 9, -1))
	assert.Equal(t, TrendNeutral, ClassifyTrend(12, 11, 10, -1))
}

func TestClassifyTech(t *testing.T) {
	assert.Equal(t, []string{TrendNeutral}, ClassifyTech(50, models.MACDBull, 50))
	assert.Equal(t, []string{RSIOversold, MACDGolden, BollBottom}, ClassifyTech(25, models.MACDGolden, 10))
	assert.Equal(t, []string{RSIOverbought, MACDDead, BollTop}, ClassifyTech(75, models.MACDDead, 90))
}

func TestDrawdownRiskCapped(t *testing.T) {
	assert.Equal(t, 1.0, DrawdownRisk(0.5, 1, models.RegimeBear))
	assert.Equal(t, 0.03, DrawdownRisk(DefaultVolatility, DefaultPosition, models.RegimeShock))
}

func TestMarketFactorHasPrior(t *testing.T) {
	for _, r := range []models.Regime{models.RegimeBull, models.RegimeBear, models.RegimeShock} {
		_, ok := Prior(MarketFactor(r))
		assert.True(t, ok, r.String())
	}
}

func TestQuickMonotonicInFundBucket(t *testing.T) {
	nets := []float64{-8000, -3000, -500, 0, 500, 3000, 8000}
	for _, r := range []models.Regime{models.RegimeBull, models.RegimeBear, models.RegimeShock} {
		prev := 0.0
		for _, net := range nets {
			wp := Quick(net, 50, r).WinProbability
			assert.GreaterOrEqual(t, wp, prev, "regime %s net %.0f", r, net)
			prev = wp
		}
	}
}

func TestDetailed(t *testing.T) {
	bullish := Readings{
		MainNet: 6000,
		MA5:     12, MA10: 11, MA20: 10, ChangePct: 4,
		HasTech: true, RSI: 25, Cross: models.MACDGolden, BollPos: 10,
		Volatility: 0.04,
	}
	res := Detailed(bullish, models.RegimeShock)
	assert.ElementsMatch(t, []string{
		FundStrongBuy, "market_shock", TrendStrongUp, RSIOversold, MACDGolden, BollBottom,
	}, res.FactorsUsed)
	assert.InDelta(t, 0.06, res.MaxDrawdownRisk, 1e-9)
	assert.Greater(t, res.WinProbability, Quick(6000, 50, models.RegimeShock).WinProbability)

	bare := Detailed(Readings{MainNet: 6000}, models.RegimeShock)
	assert.Len(t, bare.FactorsUsed, 2)
	assert.Equal(t, 0.03, bare.MaxDrawdownRisk)

	quiet := Detailed(Readings{HasTech: true, RSI: 50, Cross: models.MACDBull, BollPos: 50}, models.RegimeShock)
	assert.Equal(t, []string{FundNeutral, "market_shock"}, quiet.FactorsUsed)
}
