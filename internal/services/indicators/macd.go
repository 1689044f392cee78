package indicators

import "Sentinel/internal/domain/models"

const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// MACD runs over the last slow+signal closes with EMAs seeded from the first
// value of that window.
func MACD(closes []float64, fast, slow, signal int) models.MACDReading {
	need := slow + signal
	if fast <= 0 || slow <= 0 || signal <= 0 || len(closes) < need {
		return models.MACDReading{Cross: models.MACDInsufficient, Score: 35}
	}

	window := closes[len(closes)-need:]
	emaFast := ema(window, fast)
	emaSlow := ema(window, slow)
	line := make([]float64, len(window))
	for i := range window {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := ema(line, signal)

	n := len(line) - 1
	cur, curSig := line[n], sig[n]
	prev, prevSig := line[n-1], sig[n-1]
	hist := cur - curSig

	var cross models.MACDCross
	switch {
	case prev <= prevSig && cur > curSig:
		cross = models.MACDGolden
	case prev >= prevSig && cur < curSig:
		cross = models.MACDDead
	case hist > 0:
		cross = models.MACDBull
	default:
		cross = models.MACDBear
	}

	return models.MACDReading{
		MACD:      cur,
		Signal:    curSig,
		Histogram: hist,
		Cross:     cross,
		Score:     macdScore(cross, cur, curSig),
	}
}

func macdScore(cross models.MACDCross, macd, signal float64) float64 {
	switch {
	case cross == models.MACDGolden:
		return 85
	case cross == models.MACDDead:
		return 15
	case macd > signal:
		return 65
	}
	return 35
}

// ema is seeded with data[0]; talib seeds with an SMA, which shifts the
// crossover points this scoring was calibrated on.
func ema(data []float64, period int) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 {
		return out
	}
	alpha := 2 / float64(period+1)
	out[0] = data[0]
	for i := 1; i < len(data); i++ {
		out[i] = out[i-1] + alpha*(data[i]-out[i-1])
	}
	return out
}
