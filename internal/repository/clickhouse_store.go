package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
	pkgch "Sentinel/pkg/clickhouse"
	applogger "Sentinel/pkg/logger"
)

// Schema returns the idempotent DDL for the ClickHouse tables.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.daily_bars (
            code String,
            trade_date String,
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            vol Float64,
            amount Float64,
            change_pct Float64,
            turnover_rate Float64,
            updated_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY (code, trade_date)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.money_flow (
            code String,
            trade_date String,
            main_net_inflow Float64,
            updated_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY (code, trade_date)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.verdicts (
            id String,
            instrument String,
            action_class LowCardinality(String),
            vetoed UInt8,
            confidence Float64,
            primary_reason String,
            score Float64,
            win_probability Float64,
            regime LowCardinality(String),
            narrative String,
            payload String,
            ts DateTime64(3)
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (instrument, ts)`, database),
	}
}

// CHMarketStore reads bars and flow from ClickHouse.
type CHMarketStore struct {
	db *sql.DB
	l  *applogger.Logger
}

var _ domrepo.MarketDataReader = (*CHMarketStore)(nil)

func NewCHMarketStore(ch *pkgch.Client, l *applogger.Logger) *CHMarketStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHMarketStore{db: ch.DB(), l: l.With("ch_market")}
}

func (s *CHMarketStore) GetBars(ctx context.Context, code string, lookback int) ([]models.Bar, error) {
	return s.bars(ctx, code, lookback)
}

func (s *CHMarketStore) GetIndexBars(ctx context.Context, index string, lookback int) ([]models.Bar, error) {
	return s.bars(ctx, index, lookback)
}

func (s *CHMarketStore) bars(ctx context.Context, code string, lookback int) ([]models.Bar, error) {
	start := time.Now()
	const q = `
        SELECT trade_date, open, high, low, close, vol, amount, change_pct, turnover_rate
        FROM daily_bars FINAL
        WHERE code = ?
        ORDER BY trade_date DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, code, lookback)
	if err != nil {
		s.l.Error("clickhouse get_bars query error", applogger.String("code", code), applogger.Error(err))
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, lookback)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.TradeDate, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Amount, &b.ChangePct, &b.TurnoverRate); err != nil {
			s.l.Error("clickhouse get_bars scan error", applogger.String("code", code), applogger.Error(err))
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("bars for %s: %w", code, domrepo.ErrNoData)
	}
	s.l.Debug("clickhouse get_bars ok",
		applogger.String("code", code),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHMarketStore) GetFlow(ctx context.Context, code string, lookback int) ([]models.MoneyFlowRecord, error) {
	const q = `
        SELECT trade_date, main_net_inflow
        FROM money_flow FINAL
        WHERE code = ?
        ORDER BY trade_date DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, code, lookback)
	if err != nil {
		s.l.Error("clickhouse get_flow query error", applogger.String("code", code), applogger.Error(err))
		return nil, fmt.Errorf("get flow: %w", err)
	}
	defer rows.Close()

	var out []models.MoneyFlowRecord
	for rows.Next() {
		var f models.MoneyFlowRecord
		if err := rows.Scan(&f.TradeDate, &f.MainNetInflow); err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHMarketStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CHVerdictStore appends verdicts to sentinel.verdicts.
type CHVerdictStore struct {
	db *sql.DB
	l  *applogger.Logger
}

var _ domrepo.VerdictStore = (*CHVerdictStore)(nil)

func NewCHVerdictStore(ch *pkgch.Client, l *applogger.Logger) *CHVerdictStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHVerdictStore{db: ch.DB(), l: l.With("ch_verdicts")}
}

func (s *CHVerdictStore) SaveVerdict(ctx context.Context, e *models.Evaluation) error {
	r, err := verdictRecord(e, string(e.Fusion.Regime))
	if err != nil {
		return err
	}
	const q = `INSERT INTO verdicts (id, instrument, action_class, vetoed, confidence, primary_reason, score, win_probability, regime, narrative, payload, ts)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q,
		r.ID,
		r.Instrument,
		r.ActionClass,
		boolToUInt8(r.Vetoed),
		r.Confidence,
		r.PrimaryReason,
		r.Score,
		r.WinProbability,
		r.Regime,
		r.Narrative,
		string(r.Payload),
		time.UnixMilli(r.CreatedAtUnix),
	)
	if err != nil {
		s.l.Error("clickhouse save_verdict error", applogger.String("id", r.ID), applogger.Error(err))
		return fmt.Errorf("save verdict: %w", err)
	}
	return nil
}

func (s *CHVerdictStore) RecentVerdicts(ctx context.Context, instrument string, since time.Time, limit int) ([]models.Verdict, error) {
	const q = `
        SELECT payload
        FROM verdicts
        WHERE instrument = ? AND ts >= ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, instrument, since, limit)
	if err != nil {
		return nil, fmt.Errorf("recent verdicts: %w", err)
	}
	defer rows.Close()

	var out []models.Verdict
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		v, err := decodeVerdict([]byte(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
