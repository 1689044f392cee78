package chip

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinel/internal/domain/models"
)

func bars(n int, close float64) []models.Bar {
	out := make([]models.Bar, n)
	for i := range out {
		out[i] = models.Bar{Close: close, Volume: 100, Amount: close * 10}
	}
	return out
}

func TestVWAP(t *testing.T) {
	e, ok := VWAP(bars(10, 10), 10)
	require.True(t, ok)
	assert.Equal(t, 10.0, e.AvgCost)
	assert.Equal(t, 100.0, e.WinnerRate)
	assert.Equal(t, vwapConfidence, e.Confidence)

	e, ok = VWAP(bars(10, 10), 9)
	require.True(t, ok)
	assert.Equal(t, 0.0, e.WinnerRate)

	_, ok = VWAP(bars(9, 10), 10)
	assert.False(t, ok)
	_, ok = VWAP(bars(20, 10), 0)
	assert.False(t, ok)
}

func TestDecaySingleLevel(t *testing.T) {
	e, ok := Decay(bars(30, 10), 10)
	require.True(t, ok)
	assert.Equal(t, 10.0, e.AvgCost)
	assert.Equal(t, 100.0, e.WinnerRate)
	require.NotNil(t, e.Concentration)
	assert.Equal(t, 100.0, *e.Concentration)
	require.NotNil(t, e.Percentiles)
	assert.Equal(t, 10.0, e.Percentiles.P90)
}

func TestDecayTwoLevels(t *testing.T) {
	b := append(bars(5, 10), bars(5, 12)...)
	e, ok := Decay(b, 11)
	require.True(t, ok)
	assert.Equal(t, 90.91, *e.Concentration)
	assert.Greater(t, e.WinnerRate, 50.0, "recent bars weigh more")
	assert.Equal(t, 10.0, e.Percentiles.P10)
	assert.Equal(t, 12.0, e.Percentiles.P90)
	assert.True(t, e.AvgCost > 10 && e.AvgCost < 11)
}

func TestFuse(t *testing.T) {
	assert.False(t, Fuse(nil, nil, nil).Valid)

	vwap := &Estimate{Source: SourceVWAP, AvgCost: 10, WinnerRate: 80}
	conc := 85.0
	decay := &Estimate{Source: SourceDecay, AvgCost: 12, WinnerRate: 60, Concentration: &conc}
	official := &Estimate{Source: SourceOfficial, AvgCost: 20, WinnerRate: 40}

	only := Fuse(nil, vwap, nil)
	assert.True(t, only.Valid)
	assert.Equal(t, 10.0, only.AvgCost)
	assert.Equal(t, 0.55, only.Confidence)
	assert.Equal(t, 50.0, only.Concentration)

	two := Fuse(nil, vwap, decay)
	assert.InDelta(t, 10.8, two.AvgCost, 1e-9)
	assert.InDelta(t, 72.0, two.WinnerRate, 1e-9)
	assert.Equal(t, 0.8, two.Confidence)
	assert.Equal(t, 85.0, two.Concentration)
	assert.Equal(t, "vwap+turnover_decay", two.Source)

	all := Fuse(official, vwap, decay)
	assert.InDelta(t, 15.4, all.AvgCost, 1e-9)
	assert.Equal(t, 1.0, all.Confidence)
}

func TestSignal(t *testing.T) {
	tests := []struct {
		name  string
		chip  models.ChipDistribution
		price float64
		want  models.ChipSignalKind
		risk  float64
	}{
		{"invalid", models.ChipDistribution{}, 10, models.ChipNeutral, 50},
		{"crowded with premium", models.ChipDistribution{WinnerRate: 96, AvgCost: 10, Valid: true}, 13, models.ChipVeto, 90},
		{"crowded near cost", models.ChipDistribution{WinnerRate: 96, AvgCost: 10, Valid: true}, 11, models.ChipWarning, 70},
		{"high profit", models.ChipDistribution{WinnerRate: 86, AvgCost: 10, Valid: true}, 10, models.ChipWarning, 70},
		{"trapped", models.ChipDistribution{WinnerRate: 15, AvgCost: 10, Valid: true}, 8, models.ChipConfirm, 30},
		{"concentrated", models.ChipDistribution{WinnerRate: 50, Concentration: 85, AvgCost: 10, Valid: true}, 10, models.ChipConfirm, 40},
		{"neutral", models.ChipDistribution{WinnerRate: 50, Concentration: 60, AvgCost: 10, Valid: true}, 10, models.ChipNeutral, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Signal(tt.chip, tt.price)
			assert.Equal(t, tt.want, d.Signal)
			assert.Equal(t, tt.risk, d.RiskScore)
			assert.NotEmpty(t, d.Reason)
		})
	}
}

type stubOfficial struct {
	dist models.ChipDistribution
	err  error
}

func (s stubOfficial) OfficialChip(context.Context, string, float64) (models.ChipDistribution, error) {
	return s.dist, s.err
}

func TestProviderFallsBackWhenOfficialFails(t *testing.T) {
	p := NewProvider(stubOfficial{err: errors.New("timeout")}, nil)
	dist := p.GetChip(context.Background(), "600519", bars(30, 10), 10)
	assert.True(t, dist.Valid)
	assert.Equal(t, "vwap+turnover_decay", dist.Source)
	assert.Equal(t, 0.8, dist.Confidence)
}

func TestProviderUsesOfficial(t *testing.T) {
	p := NewProvider(stubOfficial{dist: models.ChipDistribution{AvgCost: 10, WinnerRate: 100, Valid: true}}, nil)
	dist := p.GetChip(context.Background(), "600519", bars(30, 10), 10)
	assert.Equal(t, "official+vwap+turnover_decay", dist.Source)
	assert.Equal(t, 1.0, dist.Confidence)
}

func TestProviderNoData(t *testing.T) {
	p := NewProvider(nil, nil)
	assert.False(t, p.GetChip(context.Background(), "600519", nil, 10).Valid)
}
