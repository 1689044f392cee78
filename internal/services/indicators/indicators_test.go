package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinel/internal/domain/models"
)

func linear(from, to float64) []float64 {
	var out []float64
	if from <= to {
		for v := from; v <= to; v++ {
			out = append(out, v)
		}
		return out
	}
	for v := from; v >= to; v-- {
		out = append(out, v)
	}
	return out
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSMA(t *testing.T) {
	v, ok := SMA(linear(1, 10), 5)
	require.True(t, ok)
	assert.InDelta(t, 8.0, v, 1e-9)

	v, ok = SMA(linear(1, 10), 1)
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = SMA(linear(1, 4), 5)
	assert.False(t, ok)
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		label  models.RSILabel
		score  float64
		value  float64
	}{
		{"insufficient", linear(1, 14), models.RSIInsufficient, 50, 50},
		{"straight rise", linear(1, 15), models.RSISevereOverbought, 20, 100 - 100/1001.0},
		{"straight fall", linear(15, 1), models.RSISevereOversold, 80, 0},
		{"balanced", []float64{10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10}, models.RSINeutral, 50, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RSI(tt.closes, RSIPeriod)
			assert.Equal(t, tt.label, r.Label)
			assert.InDelta(t, tt.score, r.Score, 1e-9)
			assert.InDelta(t, tt.value, r.Value, 1e-6)
		})
	}
}

func TestRSIScoreIsLinearInNeutralBand(t *testing.T) {
	assert.InDelta(t, 60.0, rsiScore(30), 1e-9)
	assert.InDelta(t, 40.0, rsiScore(70), 1e-9)
	assert.Equal(t, 80.0, rsiScore(29.9))
	assert.Equal(t, 20.0, rsiScore(70.1))
}

func TestMACD(t *testing.T) {
	t.Run("insufficient", func(t *testing.T) {
		r := MACD(linear(1, 34), MACDFast, MACDSlow, MACDSignal)
		assert.Equal(t, models.MACDInsufficient, r.Cross)
		assert.Equal(t, 35.0, r.Score)
	})
	t.Run("flat is bear with zero lines", func(t *testing.T) {
		r := MACD(flat(40, 10), MACDFast, MACDSlow, MACDSignal)
		assert.Equal(t, models.MACDBear, r.Cross)
		assert.InDelta(t, 0, r.MACD, 1e-12)
		assert.Equal(t, 35.0, r.Score)
	})
	t.Run("steady rise is bull", func(t *testing.T) {
		r := MACD(linear(1, 35), MACDFast, MACDSlow, MACDSignal)
		assert.Equal(t, models.MACDBull, r.Cross)
		assert.Greater(t, r.Histogram, 0.0)
		assert.Equal(t, 65.0, r.Score)
	})
	t.Run("reversal up is golden cross", func(t *testing.T) {
		closes := append(linear(100, 67), 200)
		r := MACD(closes, MACDFast, MACDSlow, MACDSignal)
		assert.Equal(t, models.MACDGolden, r.Cross)
		assert.Equal(t, 85.0, r.Score)
	})
	t.Run("reversal down is dead cross", func(t *testing.T) {
		closes := append(linear(100, 133), 0)
		r := MACD(closes, MACDFast, MACDSlow, MACDSignal)
		assert.Equal(t, models.MACDDead, r.Cross)
		assert.Equal(t, 15.0, r.Score)
	})
}

func TestBollinger(t *testing.T) {
	t.Run("insufficient", func(t *testing.T) {
		r := Bollinger(flat(19, 10), BollingerPeriod, BollingerWidth)
		assert.Equal(t, models.BollInsufficient, r.Label)
		assert.Equal(t, 50.0, r.Score)
	})
	t.Run("flat is a squeeze at mid position", func(t *testing.T) {
		r := Bollinger(flat(20, 10), BollingerPeriod, BollingerWidth)
		assert.Equal(t, models.BollSqueeze, r.Label)
		assert.Equal(t, 50.0, r.Position)
		assert.Equal(t, 60.0, r.Score)
	})
	t.Run("spike above upper band", func(t *testing.T) {
		r := Bollinger(append(flat(19, 10), 20), BollingerPeriod, BollingerWidth)
		assert.Equal(t, models.BollTouchTop, r.Label)
		assert.Equal(t, 20.0, r.Score)
	})
	t.Run("drop below lower band", func(t *testing.T) {
		r := Bollinger(append(flat(19, 10), 0), BollingerPeriod, BollingerWidth)
		assert.Equal(t, models.BollTouchBottom, r.Label)
		assert.Equal(t, 80.0, r.Score)
	})
	t.Run("inside wide band", func(t *testing.T) {
		var closes []float64
		for i := 0; i < 10; i++ {
			closes = append(closes, 9, 11)
		}
		r := Bollinger(closes, BollingerPeriod, BollingerWidth)
		assert.Equal(t, models.BollMiddle, r.Label)
		assert.InDelta(t, 12.0, r.Upper, 1e-9)
		assert.InDelta(t, 8.0, r.Lower, 1e-9)
		assert.InDelta(t, 40.0, r.Bandwidth, 1e-9)
		assert.InDelta(t, 75.0, r.Position, 1e-9)
	})
}

func TestTechScoreWeights(t *testing.T) {
	s := TechScore(models.RSIReading{Score: 80}, models.MACDReading{Score: 85}, models.BollingerReading{Score: 20})
	assert.InDelta(t, 80*0.4+85*0.4+20*0.2, s, 1e-9)
}

func TestTechFix(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		fix    float64
		signal models.TechSignal
	}{
		{"too short", flat(29, 10), 0, models.TechNone},
		{"flat", flat(30, 10), 0, models.TechNormal},
		{"spike", append(flat(29, 10), 20), -25, models.TechTop},
		{"crash", append(flat(29, 10), 0), 25, models.TechBottom},
		{"steady rise", linear(1, 30), 10, models.TechGolden},
		{"overbought", append([]float64{2}, linear(1, 29)...), -20, models.TechOverbought},
		{"oversold", append([]float64{28}, linear(29, 1)...), 20, models.TechOversold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix, sig := TechFix(tt.closes)
			assert.Equal(t, tt.signal, sig)
			assert.Equal(t, tt.fix, fix)
		})
	}
}

func TestATR(t *testing.T) {
	bars := make([]models.Bar, 20)
	for i := range bars {
		bars[i] = models.Bar{High: 11, Low: 9, Close: 10}
	}
	atr, ok := ATR(bars, ATRPeriod)
	require.True(t, ok)
	assert.InDelta(t, 2.0, atr, 1e-9)

	_, ok = ATR(bars[:14], ATRPeriod)
	assert.False(t, ok)
}

func TestATRTrueRangeUsesPriorClose(t *testing.T) {
	bars := []models.Bar{
		{High: 12, Low: 11, Close: 11.5},
		{High: 10, Low: 9, Close: 10},
		{High: 10, Low: 9, Close: 9.5},
		{High: 50, Low: 1, Close: 20},
	}
	atr, ok := ATR(bars, 2)
	require.True(t, ok)
	// gap up from 10 gives 2, the inside bar against 9.5 gives 1
	assert.InDelta(t, 1.5, atr, 1e-9)

	bars[0] = models.Bar{Close: 13}
	atr, ok = ATR(bars, 2)
	require.True(t, ok)
	assert.InDelta(t, 2.0, atr, 1e-9)
}

func TestROC(t *testing.T) {
	v, ok := ROC([]float64{1, 100, 105, 110}, 2)
	require.True(t, ok)
	assert.InDelta(t, 10.0, v, 1e-9)

	v, ok = ROC([]float64{0, 1, 2}, 2)
	require.True(t, ok)
	assert.Zero(t, v)

	_, ok = ROC([]float64{1, 2}, 2)
	assert.False(t, ok)
}

func TestRealizedVolatility(t *testing.T) {
	flat := []float64{10, 10, 10, 10, 10, 10}
	v, ok := RealizedVolatility(flat, 5)
	require.True(t, ok)
	assert.Zero(t, v)

	zigzag := []float64{100, 110, 100, 110, 100}
	v, ok = RealizedVolatility(zigzag, 4)
	require.True(t, ok)
	l := math.Log(1.1)
	assert.InDelta(t, l*math.Sqrt(4.0/3.0), v, 1e-9)

	_, ok = RealizedVolatility(zigzag, 5)
	assert.False(t, ok)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 12.3, Round(12.345, 1))
	assert.Equal(t, 0.125, Round(0.12549, 3))
}
