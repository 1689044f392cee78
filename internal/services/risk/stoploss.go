package risk

import (
	"math"

	"Sentinel/internal/domain/models"
	"Sentinel/internal/services/indicators"
)

const fallbackATRPct = 0.02

// DynamicStopLoss places the stop two ATRs under entry and ratchets it up
// as profit grows. bars are most-recent-first; with too few bars the ATR
// falls back to 2% of entry.
func DynamicStopLoss(entry, current float64, bars []models.Bar) models.StopLoss {
	atr, ok := indicators.ATR(bars, indicators.ATRPeriod)
	if !ok || atr <= 0 {
		atr = entry * fallbackATRPct
	}
	profit := 0.0
	if entry > 0 {
		profit = (current - entry) / entry * 100
	}

	stop := entry - 2*atr
	switch {
	case profit > 20:
		stop = math.Max(stop, entry*1.10)
	case profit > 10:
		stop = math.Max(stop, entry*1.05)
	case profit > 5:
		stop = math.Max(stop, entry)
	}

	stopPct := 0.0
	if current > 0 {
		stopPct = (stop - current) / current * 100
	}

	typ := models.StopFixed
	if profit > 5 {
		typ = models.StopTrailing
	}

	var suggestion string
	switch {
	case profit > 20:
		suggestion = "large gain, take profit in batches"
	case profit > 10:
		suggestion = "solid gain, reduce to lock in profit"
	case profit > 5:
		suggestion = "in profit, hold with breakeven stop"
	case stopPct < -8:
		suggestion = "stop is far, consider a tighter position"
	case stopPct < -5:
		suggestion = "watch the risk, stop within reach"
	default:
		suggestion = "normal hold"
	}

	return models.StopLoss{
		StopPrice:  indicators.Round(stop, 2),
		StopPct:    indicators.Round(stopPct, 2),
		ATR:        indicators.Round(atr, 3),
		Type:       typ,
		Suggestion: suggestion,
	}
}
