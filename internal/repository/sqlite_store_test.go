package repository

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
)

func newStore(t *testing.T) *SQLiteMarketStore {
	t.Helper()
	s, err := NewSQLiteMarketStore(filepath.Join(t.TempDir(), "db", "sentinel.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteBarsNewestFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertBars(ctx, "600519", []models.Bar{
		{TradeDate: "20240301", Close: 10},
		{TradeDate: "20240304", Close: 12},
		{TradeDate: "20240302", Close: 11},
	}))

	bars, err := s.GetBars(ctx, "600519", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "20240304", bars[0].TradeDate)
	assert.Equal(t, "20240302", bars[1].TradeDate)
}

func TestSQLiteUpsertReplaces(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertBars(ctx, "000001", []models.Bar{{TradeDate: "20240301", Close: 10}}))
	require.NoError(t, s.UpsertBars(ctx, "000001", []models.Bar{{TradeDate: "20240301", Close: 10.5}}))

	bars, err := s.GetBars(ctx, "000001", 10)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 10.5, bars[0].Close)
}

func TestSQLiteNoBars(t *testing.T) {
	s := newStore(t)
	_, err := s.GetIndexBars(context.Background(), "000300.SH", 60)
	assert.True(t, errors.Is(err, domrepo.ErrNoData))
}

func TestSQLiteFlow(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	flow, err := s.GetFlow(ctx, "600519", 5)
	require.NoError(t, err)
	assert.Empty(t, flow)

	require.NoError(t, s.UpsertFlow(ctx, "600519", []models.MoneyFlowRecord{
		{TradeDate: "20240301", MainNetInflow: -300},
		{TradeDate: "20240304", MainNetInflow: 800},
	}))
	flow, err = s.GetFlow(ctx, "600519", 5)
	require.NoError(t, err)
	require.Len(t, flow, 2)
	assert.Equal(t, 800.0, flow[0].MainNetInflow)
}

func TestSQLiteOfficialChip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.OfficialChip(ctx, "600519", 13)
	assert.ErrorIs(t, err, domrepo.ErrNoData)

	require.NoError(t, s.UpsertChip(ctx, "600519", "20240301", models.ChipDistribution{AvgCost: 9, WinnerRate: 70}))
	require.NoError(t, s.UpsertChip(ctx, "600519", "20240304", models.ChipDistribution{
		AvgCost:         10,
		WinnerRate:      80,
		CostPercentiles: models.CostPercentiles{P10: 8, P50: 10, P90: 12},
		Concentration:   0.2,
	}))

	d, err := s.OfficialChip(ctx, "600519", 13)
	require.NoError(t, err)
	assert.True(t, d.Valid)
	assert.Equal(t, 10.0, d.AvgCost)
	assert.Equal(t, 80.0, d.WinnerRate)
	assert.Equal(t, 12.0, d.CostPercentiles.P90)
	assert.Equal(t, "official", d.Source)
}

func TestSQLiteVerdictLog(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		e := &models.Evaluation{
			Verdict: models.Verdict{
				ID:          id,
				Instrument:  "600519",
				ActionClass: models.ActionWatch,
				IsVetoed:    i == 2,
				VetoReasons: []string{},
				Timestamp:   base.Add(time.Duration(i) * time.Minute),
			},
			Fusion:    models.FusionResult{Score: 50, Regime: models.RegimeShock},
			Narrative: "n",
		}
		require.NoError(t, s.SaveVerdict(ctx, e))
	}

	got, err := s.RecentVerdicts(ctx, "600519", base.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.True(t, got[0].IsVetoed)
	assert.Equal(t, "b", got[1].ID)

	got, err = s.RecentVerdicts(ctx, "000001", base, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVerdictRecordPayload(t *testing.T) {
	e := &models.Evaluation{
		Verdict: models.Verdict{ID: "x", Instrument: "600519", ActionClass: models.ActionGo},
		Fusion:  models.FusionResult{Score: 77},
		WinRate: models.WinRateResult{WinProbability: 0.6},
	}
	r, err := verdictRecord(e, "BULL")
	require.NoError(t, err)
	assert.Equal(t, "go", r.ActionClass)
	assert.Equal(t, 77.0, r.Score)
	assert.Equal(t, 0.6, r.WinProbability)
	assert.NotZero(t, r.CreatedAtUnix)

	var v models.Verdict
	require.NoError(t, json.Unmarshal(r.Payload, &v))
	assert.Equal(t, "x", v.ID)
}

func TestSchemaStatements(t *testing.T) {
	stmts := Schema("sentinel")
	require.Len(t, stmts, 4)
	assert.Contains(t, stmts[0], "CREATE DATABASE IF NOT EXISTS sentinel")
	assert.Contains(t, stmts[1], "sentinel.daily_bars")
	assert.Contains(t, stmts[3], "sentinel.verdicts")
	assert.Contains(t, stmts[3], "ORDER BY (instrument, ts)")
}
