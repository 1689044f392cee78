package indicators

import "Sentinel/internal/domain/models"

const RSIPeriod = 14

// RSI uses plain averages of the gains and losses over the last period
// differences. A window without losses uses a 0.001 floor, so a straight
// rise reads close to 100 rather than dividing by zero.
func RSI(closes []float64, period int) models.RSIReading {
	if period <= 0 || len(closes) < period+1 {
		return models.RSIReading{Value: 50, Label: models.RSIInsufficient, Score: 50}
	}

	window := closes[len(closes)-period-1:]
	var gainSum, lossSum float64
	var gains, losses int
	for i := 1; i < len(window); i++ {
		d := window[i] - window[i-1]
		switch {
		case d > 0:
			gainSum += d
			gains++
		case d < 0:
			lossSum -= d
			losses++
		}
	}

	avgGain := 0.0
	if gains > 0 {
		avgGain = gainSum / float64(gains)
	}
	avgLoss := 0.001
	if losses > 0 {
		avgLoss = lossSum / float64(losses)
	}

	value := 100 - 100/(1+avgGain/avgLoss)
	return models.RSIReading{Value: value, Label: rsiLabel(value), Score: rsiScore(value)}
}

func rsiLabel(v float64) models.RSILabel {
	switch {
	case v > 80:
		return models.RSISevereOverbought
	case v > 70:
		return models.RSIOverbought
	case v < 20:
		return models.RSISevereOversold
	case v < 30:
		return models.RSIOversold
	}
	return models.RSINeutral
}

func rsiScore(v float64) float64 {
	switch {
	case v < 30:
		return 80
	case v > 70:
		return 20
	}
	return 50 + (50-v)*0.5
}
