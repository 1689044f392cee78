package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
)

// ROC returns the percent change of the last value against the value lag
// steps earlier. A zero base yields zero.
func ROC(series []float64, lag int) (float64, bool) {
	if lag <= 0 || len(series) < lag+1 {
		return 0, false
	}
	out := talib.Roc(series[len(series)-lag-1:], lag)
	return out[len(out)-1], true
}

// LogReturns returns ln(v[i]/v[i-1]); non-positive prices give a zero return.
func LogReturns(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility is the per-bar sample standard deviation of the last
// window log returns. It is not annualized.
func RealizedVolatility(series []float64, window int) (float64, bool) {
	rets := LogReturns(series)
	if window <= 1 || len(rets) < window {
		return 0, false
	}
	tail := rets[len(rets)-window:]
	n := float64(window)
	sd := talib.StdDev(tail, window, 1)[window-1]
	// talib reports the population deviation
	return sd * math.Sqrt(n/(n-1)), true
}
