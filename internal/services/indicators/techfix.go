package indicators

import "Sentinel/internal/domain/models"

const techFixMinCloses = 30

// TechFix is the band/RSI correction added on top of the fused score.
// Its RSI uses total gains over total losses across the whole series.
func TechFix(closes []float64) (float64, models.TechSignal) {
	if len(closes) < techFixMinCloses {
		return 0, models.TechNone
	}

	upper, ma20, lower, ok := Bands(closes, 20, 2)
	if !ok {
		return 0, models.TechNone
	}
	ma5, _ := SMA(closes, 5)
	cur := closes[len(closes)-1]

	var gains, losses float64
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	rsi := 50.0
	if losses > 0 {
		rsi = 100 - 100/(1+gains/losses)
	}

	switch {
	case cur < lower:
		return 25, models.TechBottom
	case cur > upper:
		return -25, models.TechTop
	case rsi > 85:
		return -20, models.TechOverbought
	case rsi < 15:
		return 20, models.TechOversold
	case ma5 > ma20:
		return 10, models.TechGolden
	}
	return 0, models.TechNormal
}
