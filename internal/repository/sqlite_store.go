package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
	"Sentinel/internal/domain/service"
	applogger "Sentinel/pkg/logger"
)

// SQLiteMarketStore keeps bars, flow, official chip rows and the verdict log
// in one SQLite file.
type SQLiteMarketStore struct {
	db *gorm.DB
	l  *applogger.Logger
}

var (
	_ domrepo.MarketDataReader   = (*SQLiteMarketStore)(nil)
	_ domrepo.VerdictStore       = (*SQLiteMarketStore)(nil)
	_ service.OfficialChipSource = (*SQLiteMarketStore)(nil)
)

func NewSQLiteMarketStore(path string, l *applogger.Logger) (*SQLiteMarketStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return NewSQLiteMarketStoreFromDB(db, l)
}

func NewSQLiteMarketStoreFromDB(db *gorm.DB, l *applogger.Logger) (*SQLiteMarketStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	if l == nil {
		l = applogger.Nop()
	}
	if err := db.AutoMigrate(&BarRecord{}, &FlowRecord{}, &ChipRecord{}, &VerdictRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &SQLiteMarketStore{db: db, l: l.With("sqlite_store")}, nil
}

func (s *SQLiteMarketStore) GetBars(ctx context.Context, code string, lookback int) ([]models.Bar, error) {
	return s.bars(ctx, code, lookback)
}

func (s *SQLiteMarketStore) GetIndexBars(ctx context.Context, index string, lookback int) ([]models.Bar, error) {
	return s.bars(ctx, index, lookback)
}

func (s *SQLiteMarketStore) bars(ctx context.Context, code string, lookback int) ([]models.Bar, error) {
	var rows []BarRecord
	q := s.db.WithContext(ctx).Where("code = ?", code).Order("trade_date DESC")
	if lookback > 0 {
		q = q.Limit(lookback)
	}
	if err := q.Find(&rows).Error; err != nil {
		s.l.Error("sqlite get_bars error", applogger.String("code", code), applogger.Error(err))
		return nil, fmt.Errorf("get bars: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("bars for %s: %w", code, domrepo.ErrNoData)
	}
	out := make([]models.Bar, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// GetFlow returns an empty slice, not ErrNoData, when no flow is stored;
// the factors treat missing flow as neutral.
func (s *SQLiteMarketStore) GetFlow(ctx context.Context, code string, lookback int) ([]models.MoneyFlowRecord, error) {
	var rows []FlowRecord
	q := s.db.WithContext(ctx).Where("code = ?", code).Order("trade_date DESC")
	if lookback > 0 {
		q = q.Limit(lookback)
	}
	if err := q.Find(&rows).Error; err != nil {
		s.l.Error("sqlite get_flow error", applogger.String("code", code), applogger.Error(err))
		return nil, fmt.Errorf("get flow: %w", err)
	}
	out := make([]models.MoneyFlowRecord, len(rows))
	for i, r := range rows {
		out[i] = models.MoneyFlowRecord{TradeDate: r.TradeDate, MainNetInflow: r.MainNetInflow}
	}
	return out, nil
}

// OfficialChip returns the latest published profile for code.
func (s *SQLiteMarketStore) OfficialChip(ctx context.Context, code string, _ float64) (models.ChipDistribution, error) {
	var row ChipRecord
	err := s.db.WithContext(ctx).Where("code = ?", code).Order("trade_date DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ChipDistribution{}, fmt.Errorf("official chip for %s: %w", code, domrepo.ErrNoData)
	}
	if err != nil {
		return models.ChipDistribution{}, fmt.Errorf("official chip: %w", err)
	}
	return row.toModel(), nil
}

func (s *SQLiteMarketStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// UpsertBars replaces rows with the same (code, trade_date).
func (s *SQLiteMarketStore) UpsertBars(ctx context.Context, code string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	rows := make([]BarRecord, len(bars))
	for i, b := range bars {
		rows[i] = barRecord(code, b)
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "vol", "amount", "change_pct", "turnover_rate"}),
	}).Create(&rows).Error
}

func (s *SQLiteMarketStore) UpsertFlow(ctx context.Context, code string, flow []models.MoneyFlowRecord) error {
	if len(flow) == 0 {
		return nil
	}
	rows := make([]FlowRecord, len(flow))
	for i, f := range flow {
		rows[i] = FlowRecord{Code: code, TradeDate: f.TradeDate, MainNetInflow: f.MainNetInflow}
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"main_net_inflow"}),
	}).Create(&rows).Error
}

func (s *SQLiteMarketStore) UpsertChip(ctx context.Context, code, tradeDate string, d models.ChipDistribution) error {
	row := chipRecord(code, tradeDate, d)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}, {Name: "trade_date"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (s *SQLiteMarketStore) SaveVerdict(ctx context.Context, e *models.Evaluation) error {
	row, err := verdictRecord(e, string(e.Fusion.Regime))
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.l.Error("sqlite save_verdict error", applogger.String("id", row.ID), applogger.Error(err))
		return fmt.Errorf("save verdict: %w", err)
	}
	return nil
}

// RecentVerdicts lists verdicts at or after since, newest first.
func (s *SQLiteMarketStore) RecentVerdicts(ctx context.Context, instrument string, since time.Time, limit int) ([]models.Verdict, error) {
	var rows []VerdictRecord
	q := s.db.WithContext(ctx).
		Where("instrument = ? AND created_at >= ?", instrument, since.UnixMilli()).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("recent verdicts: %w", err)
	}
	out := make([]models.Verdict, 0, len(rows))
	for _, r := range rows {
		v, err := decodeVerdict(r.Payload)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *SQLiteMarketStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
