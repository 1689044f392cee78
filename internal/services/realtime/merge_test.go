package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"Sentinel/internal/domain/models"
)

var now = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func flow(net float64) models.SourceReading {
	return models.SourceReading{Source: "eastmoney", HasFlow: true, MainNet: net}
}

func book(pct, power float64) models.SourceReading {
	return models.SourceReading{Source: "tencent", HasPower: true, ChangePct: pct, PowerRatio: power, Price: 10}
}

func tape(ratio float64) models.SourceReading {
	return models.SourceReading{Source: "sina", HasTape: true, BuySellRatio: ratio, Price: 11}
}

func TestMergeNoSources(t *testing.T) {
	s := Merge("600519", nil, now)
	assert.False(t, s.Valid)
	assert.Equal(t, 0.0, s.Confidence)
	assert.Equal(t, now, s.UpdatedAt)
}

func TestMergeAllSources(t *testing.T) {
	s := Merge("600519", []models.SourceReading{tape(1.2), flow(600), book(1, 1.1)}, now)
	assert.True(t, s.Valid)
	assert.Equal(t, 100.0, s.Confidence)
	assert.Equal(t, []string{"eastmoney", "sina", "tencent"}, s.Sources)
	assert.Equal(t, models.FundTrendBigInflow, s.FundTrend)
	assert.Equal(t, 1.1, s.PowerRatio)
	assert.Equal(t, 1.2, s.BuySellRatio)
	assert.Equal(t, 10.0, s.Price, "book price wins over tape")
	assert.Equal(t, RiskNormal, s.RiskSignal)
}

func TestMergePartial(t *testing.T) {
	s := Merge("600519", []models.SourceReading{tape(0.9)}, now)
	assert.True(t, s.Valid)
	assert.Equal(t, 30.0, s.Confidence)
	assert.Equal(t, 11.0, s.Price)
	assert.Equal(t, models.FundTrendBalanced, s.FundTrend)
}

func TestClassifyTrend(t *testing.T) {
	assert.Equal(t, models.FundTrendBigInflow, ClassifyTrend(501))
	assert.Equal(t, models.FundTrendInflow, ClassifyTrend(101))
	assert.Equal(t, models.FundTrendBalanced, ClassifyTrend(100))
	assert.Equal(t, models.FundTrendOutflow, ClassifyTrend(-101))
	assert.Equal(t, models.FundTrendBigOutflow, ClassifyTrend(-501))
}

func TestRiskSignals(t *testing.T) {
	tests := []struct {
		name     string
		readings []models.SourceReading
		want     string
	}{
		{"distribution", []models.SourceReading{flow(-600), book(-1, 0.7)}, RiskDistribution},
		{"divergence", []models.SourceReading{flow(200), book(-4, 1)}, RiskDivergence},
		{"outflow overrides distribution", []models.SourceReading{flow(-600), book(-4, 0.7)}, RiskOutflow},
		{"washout", []models.SourceReading{flow(-50), book(-2.5, 1.6)}, RiskWashout},
		{"grabbing wins last", []models.SourceReading{flow(1500), book(-4, 1.6)}, RiskGrabbing},
		{"no book no price rules", []models.SourceReading{flow(-600)}, RiskNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge("x", tt.readings, now).RiskSignal)
		})
	}
}

func TestCompareBaseline(t *testing.T) {
	snap := models.RealtimeSnapshot{MainNet: -300}
	a := CompareBaseline(snap, 400)
	assert.Equal(t, -700.0, a.Change)
	assert.Contains(t, a.Message, "sharp outflow")
	assert.Empty(t, CompareBaseline(snap, -300).Message)
}
