// Package indicators implements the technical readings used by fusion and
// risk control. All series are oldest-first.
package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMA returns the simple average of the last period values.
func SMA(series []float64, period int) (float64, bool) {
	if period <= 0 || len(series) < period {
		return 0, false
	}
	tail := series[len(series)-period:]
	if period == 1 {
		return tail[0], true
	}
	out := talib.Sma(tail, period)
	return out[len(out)-1], true
}

// Bands returns upper, middle and lower Bollinger bands over the last period
// values using a population standard deviation.
func Bands(series []float64, period int, width float64) (upper, middle, lower float64, ok bool) {
	if period <= 1 || len(series) < period {
		return 0, 0, 0, false
	}
	tail := sanitize(series[len(series)-period:])
	if len(tail) < period {
		return 0, 0, 0, false
	}
	up, mid, lo := talib.BBands(tail, period, width, width, talib.SMA)
	n := len(tail) - 1
	return up[n], mid[n], lo[n], true
}

func sanitize(src []float64) []float64 {
	out := make([]float64, 0, len(src))
	for _, v := range src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
