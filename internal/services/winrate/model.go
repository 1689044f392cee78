// Package winrate estimates win probability by a naive-Bayes style odds
// update over discrete factor tags.
package winrate

import (
	"math"
	"sort"

	"Sentinel/internal/domain/models"
	"Sentinel/internal/services/indicators"
)

const (
	minProbability = 0.15
	maxProbability = 0.85

	DefaultVolatility = 0.02
	DefaultPosition   = 0.5
)

// Factor tags understood by the model.
const (
	FundStrongBuy  = "fund_strong_buy"
	FundBuy        = "fund_buy"
	FundNeutral    = "fund_neutral"
	FundSell       = "fund_sell"
	FundStrongSell = "fund_strong_sell"

	TrendStrongUp   = "trend_strong_up"
	TrendUp         = "trend_up"
	TrendNeutral    = "trend_neutral"
	TrendDown       = "trend_down"
	TrendStrongDown = "trend_strong_down"

	MACDGolden     = "macd_golden"
	MACDDead       = "macd_dead"
	RSIOversold    = "rsi_oversold"
	RSIOverbought  = "rsi_overbought"
	BollBottom     = "boll_bottom"
	BollTop        = "boll_top"
	ChipHighProfit = "chip_high_profit"
	ChipLowProfit  = "chip_low_profit"
)

var priors = map[string]float64{
	FundStrongBuy:  0.62,
	FundBuy:        0.54,
	FundNeutral:    0.45,
	FundSell:       0.32,
	FundStrongSell: 0.18,

	TrendStrongUp:   0.58,
	TrendUp:         0.52,
	TrendNeutral:    0.48,
	TrendDown:       0.38,
	TrendStrongDown: 0.28,

	MACDGolden:     0.55,
	MACDDead:       0.42,
	RSIOversold:    0.52,
	RSIOverbought:  0.40,
	BollBottom:     0.54,
	BollTop:        0.32,
	ChipHighProfit: 0.48,
	ChipLowProfit:  0.52,

	"market_bull":  0.56,
	"market_shock": 0.48,
	"market_bear":  0.35,
}

var returnAdjust = map[string]float64{
	FundStrongBuy:  0.08,
	FundBuy:        0.04,
	FundNeutral:    0.01,
	FundSell:       -0.02,
	FundStrongSell: -0.05,

	TrendStrongUp:   0.06,
	TrendUp:         0.03,
	TrendNeutral:    0,
	TrendDown:       -0.02,
	TrendStrongDown: -0.04,
}

var drawdownFactor = map[models.Regime]float64{
	models.RegimeBull:  0.7,
	models.RegimeShock: 1.0,
	models.RegimeBear:  1.5,
}

// MarketFactor is the tag for a regime, e.g. "market_bull".
func MarketFactor(r models.Regime) string {
	switch r {
	case models.RegimeBull:
		return "market_bull"
	case models.RegimeBear:
		return "market_bear"
	}
	return "market_shock"
}

// Prior exposes the prior for a tag.
func Prior(factor string) (float64, bool) {
	p, ok := priors[factor]
	return p, ok
}

// Probability combines priors by multiplying odds with a square-root
// damping. Unknown tags are ignored; no tags yields .5.
func Probability(factors []string) float64 {
	if len(factors) == 0 {
		return 0.5
	}
	odds := 1.0
	for _, f := range factors {
		p, ok := priors[f]
		if !ok || p == 0.5 {
			continue
		}
		odds *= math.Pow(p/(1-p), 0.5)
	}
	prob := odds / (1 + odds)
	return math.Max(minProbability, math.Min(maxProbability, prob))
}

func ExpectedReturn(wp float64, factors []string) float64 {
	var adj float64
	for _, f := range factors {
		adj += returnAdjust[f]
	}
	win := 0.05 + adj*0.3
	loss := -0.03 + adj*0.2
	return indicators.Round(wp*win+(1-wp)*loss, 4)
}

func DrawdownRisk(volatility, position float64, r models.Regime) float64 {
	f, ok := drawdownFactor[r]
	if !ok {
		f = 1.0
	}
	return indicators.Round(math.Min(1, volatility*position*3*f), 3)
}

func classify(wp, ret float64) (models.WinRateSignal, float64) {
	switch {
	case wp >= 0.65 && ret > 0.02:
		return models.WinRateStrongBullish, 0.8
	case wp >= 0.55 && ret > 0:
		return models.WinRateBullish, 0.65
	case wp <= 0.35 || ret < -0.02:
		return models.WinRateBearish, 0.75
	case wp <= 0.45:
		return models.WinRateLeanBearish, 0.6
	}
	return models.WinRateNeutral, 0.5
}

// Calculate runs the full model with explicit volatility and position.
func Calculate(factors []string, r models.Regime, volatility, position float64) models.WinRateResult {
	wp := Probability(factors)
	ret := ExpectedReturn(wp, factors)
	signal, conf := classify(wp, ret)

	used := append([]string(nil), factors...)
	sort.Strings(used)
	return models.WinRateResult{
		WinProbability:  indicators.Round(wp, 3),
		ExpectedReturn:  ret,
		MaxDrawdownRisk: DrawdownRisk(volatility, position, r),
		Signal:          signal,
		Confidence:      conf,
		FactorsUsed:     used,
	}
}
