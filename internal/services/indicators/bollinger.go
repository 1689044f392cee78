package indicators

import "Sentinel/internal/domain/models"

const (
	BollingerPeriod = 20
	BollingerWidth  = 2.0
)

func Bollinger(closes []float64, period int, width float64) models.BollingerReading {
	upper, middle, lower, ok := Bands(closes, period, width)
	if !ok {
		return models.BollingerReading{Label: models.BollInsufficient, Score: 50}
	}

	cur := closes[len(closes)-1]
	r := models.BollingerReading{Upper: upper, Middle: middle, Lower: lower, Position: 50}
	if middle != 0 {
		r.Bandwidth = (upper - lower) / middle * 100
	}
	if upper != lower {
		r.Position = (cur - lower) / (upper - lower) * 100
	}

	switch {
	case cur > upper:
		r.Label, r.Score = models.BollTouchTop, 20
	case cur < lower:
		r.Label, r.Score = models.BollTouchBottom, 80
	case r.Bandwidth < 5:
		r.Label, r.Score = models.BollSqueeze, 60
	case r.Position > 80:
		r.Label, r.Score = models.BollNearUpper, 50
	case r.Position < 20:
		r.Label, r.Score = models.BollNearLower, 50
	default:
		r.Label, r.Score = models.BollMiddle, 50
	}
	return r
}

// TechScore blends the three readings 40/40/20.
func TechScore(rsi models.RSIReading, macd models.MACDReading, boll models.BollingerReading) float64 {
	return rsi.Score*0.4 + macd.Score*0.4 + boll.Score*0.2
}
