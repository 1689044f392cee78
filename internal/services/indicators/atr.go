package indicators

import (
	"github.com/markcheno/go-talib"

	"Sentinel/internal/domain/models"
)

const ATRPeriod = 14

// ATR is the simple mean true range of the most recent period bars.
// bars are most-recent-first; a bar with no high/low uses its close.
func ATR(bars []models.Bar, period int) (float64, bool) {
	if period <= 0 || len(bars) < period+1 {
		return 0, false
	}
	n := period + 1
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		b := bars[n-1-i]
		h, l := b.High, b.Low
		if h == 0 && l == 0 {
			h, l = b.Close, b.Close
		}
		high[i], low[i], closes[i] = h, l, b.Close
	}
	tr := talib.TRange(high, low, closes)
	return SMA(tr[1:], period)
}
