package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinel/internal/domain/models"
	internalrepo "Sentinel/internal/repository"
	"Sentinel/internal/usecase"
	"Sentinel/pkg/config"
)

func seedHistory(t *testing.T, path string, n int) {
	t.Helper()
	st, err := internalrepo.NewSQLiteMarketStore(path, nil)
	require.NoError(t, err)
	defer st.Close()

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	flow := make([]models.MoneyFlowRecord, n)
	for i := range bars {
		date := day.AddDate(0, 0, i).Format("20060102")
		c := 10 + float64(i%7)*0.1
		bars[i] = models.Bar{TradeDate: date, Open: c, High: c + 0.1, Low: c - 0.1, Close: c, Volume: 1000, Amount: c * 100}
		flow[i] = models.MoneyFlowRecord{TradeDate: date, MainNetInflow: 500}
	}
	ctx := context.Background()
	require.NoError(t, st.UpsertBars(ctx, "600519", bars))
	require.NoError(t, st.UpsertFlow(ctx, "600519", flow))
}

func TestBacktestOverSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "sentinel.db")
	seedHistory(t, cfg.Storage.SQLite.Path, 80)

	rep, err := backtest(context.Background(), cfg, usecase.BacktestParams{Code: "600519", Lookback: 200, Window: 60, Horizon: 5}, "bear")
	require.NoError(t, err)
	assert.Equal(t, "600519", rep.Instrument)
	assert.Equal(t, 21, rep.Evaluations)
	assert.Equal(t, "20240101", rep.From)

	_, err = backtest(context.Background(), cfg, usecase.BacktestParams{Code: "000001", Lookback: 200}, "")
	assert.Error(t, err)
}

func TestBacktestCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "sentinel.db")
	seedHistory(t, dbPath, 70)
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  driver: sqlite\n  sqlite:\n    path: "+dbPath+"\n"), 0o644))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"backtest", "--config", cfgPath, "--code", "600519", "--horizon", "5", "--pretty=false"})
	require.NoError(t, rootCmd.Execute())

	var rep models.BacktestReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, 11, rep.Evaluations)
}
