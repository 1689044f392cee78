package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"Sentinel/internal/domain/models"
)

// BarRecord is one daily bar. Index bars share the table, keyed by index code.
type BarRecord struct {
	ID           int64   `gorm:"column:id;primaryKey"`
	Code         string  `gorm:"column:code;uniqueIndex:idx_bar_code_date,priority:1"`
	TradeDate    string  `gorm:"column:trade_date;uniqueIndex:idx_bar_code_date,priority:2"`
	Open         float64 `gorm:"column:open"`
	High         float64 `gorm:"column:high"`
	Low          float64 `gorm:"column:low"`
	Close        float64 `gorm:"column:close"`
	Volume       float64 `gorm:"column:vol"`
	Amount       float64 `gorm:"column:amount"`
	ChangePct    float64 `gorm:"column:change_pct"`
	TurnoverRate float64 `gorm:"column:turnover_rate"`
}

func (BarRecord) TableName() string { return "daily_bars" }

type FlowRecord struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	Code          string  `gorm:"column:code;uniqueIndex:idx_flow_code_date,priority:1"`
	TradeDate     string  `gorm:"column:trade_date;uniqueIndex:idx_flow_code_date,priority:2"`
	MainNetInflow float64 `gorm:"column:main_net_inflow"`
}

func (FlowRecord) TableName() string { return "money_flow" }

// ChipRecord is a vendor-published holder cost profile for one day.
type ChipRecord struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	Code          string  `gorm:"column:code;uniqueIndex:idx_chip_code_date,priority:1"`
	TradeDate     string  `gorm:"column:trade_date;uniqueIndex:idx_chip_code_date,priority:2"`
	AvgCost       float64 `gorm:"column:avg_cost"`
	WinnerRate    float64 `gorm:"column:winner_rate"`
	P10           float64 `gorm:"column:p10"`
	P30           float64 `gorm:"column:p30"`
	P50           float64 `gorm:"column:p50"`
	P70           float64 `gorm:"column:p70"`
	P90           float64 `gorm:"column:p90"`
	Concentration float64 `gorm:"column:concentration"`
}

func (ChipRecord) TableName() string { return "chip_official" }

// VerdictRecord is one row of the decision log. Payload holds the verdict as
// returned to callers; the flat columns exist for filtering.
type VerdictRecord struct {
	ID             string         `gorm:"column:id;primaryKey"`
	Instrument     string         `gorm:"column:instrument;index:idx_verdict_instrument_ts,priority:1"`
	ActionClass    string         `gorm:"column:action_class"`
	Vetoed         bool           `gorm:"column:vetoed"`
	Confidence     float64        `gorm:"column:confidence"`
	PrimaryReason  string         `gorm:"column:primary_reason"`
	Score          float64        `gorm:"column:score"`
	WinProbability float64        `gorm:"column:win_probability"`
	Regime         string         `gorm:"column:regime"`
	Narrative      string         `gorm:"column:narrative"`
	Payload        datatypes.JSON `gorm:"column:payload;type:TEXT"`
	CreatedAtUnix  int64          `gorm:"column:created_at;index:idx_verdict_instrument_ts,priority:2"`
}

func (VerdictRecord) TableName() string { return "verdicts" }

func barRecord(code string, b models.Bar) BarRecord {
	return BarRecord{
		Code:         code,
		TradeDate:    b.TradeDate,
		Open:         b.Open,
		High:         b.High,
		Low:          b.Low,
		Close:        b.Close,
		Volume:       b.Volume,
		Amount:       b.Amount,
		ChangePct:    b.ChangePct,
		TurnoverRate: b.TurnoverRate,
	}
}

func (r BarRecord) toModel() models.Bar {
	return models.Bar{
		TradeDate:    r.TradeDate,
		Open:         r.Open,
		High:         r.High,
		Low:          r.Low,
		Close:        r.Close,
		Volume:       r.Volume,
		Amount:       r.Amount,
		ChangePct:    r.ChangePct,
		TurnoverRate: r.TurnoverRate,
	}
}

func chipRecord(code, tradeDate string, d models.ChipDistribution) ChipRecord {
	return ChipRecord{
		Code:          code,
		TradeDate:     tradeDate,
		AvgCost:       d.AvgCost,
		WinnerRate:    d.WinnerRate,
		P10:           d.CostPercentiles.P10,
		P30:           d.CostPercentiles.P30,
		P50:           d.CostPercentiles.P50,
		P70:           d.CostPercentiles.P70,
		P90:           d.CostPercentiles.P90,
		Concentration: d.Concentration,
	}
}

// toModel marks the row valid only when it carries a positive cost.
func (r ChipRecord) toModel() models.ChipDistribution {
	return models.ChipDistribution{
		AvgCost:    r.AvgCost,
		WinnerRate: r.WinnerRate,
		CostPercentiles: models.CostPercentiles{
			P10: r.P10, P30: r.P30, P50: r.P50, P70: r.P70, P90: r.P90,
		},
		Concentration: r.Concentration,
		Confidence:    1,
		Source:        "official",
		Valid:         r.AvgCost > 0,
	}
}

func verdictRecord(e *models.Evaluation, regime string) (VerdictRecord, error) {
	payload, err := json.Marshal(e.Verdict)
	if err != nil {
		return VerdictRecord{}, fmt.Errorf("encode verdict: %w", err)
	}
	ts := e.Verdict.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return VerdictRecord{
		ID:             e.Verdict.ID,
		Instrument:     e.Verdict.Instrument,
		ActionClass:    string(e.Verdict.ActionClass),
		Vetoed:         e.Verdict.IsVetoed,
		Confidence:     e.Verdict.Confidence,
		PrimaryReason:  e.Verdict.PrimaryReason,
		Score:          e.Fusion.Score,
		WinProbability: e.WinRate.WinProbability,
		Regime:         regime,
		Narrative:      e.Narrative,
		Payload:        datatypes.JSON(payload),
		CreatedAtUnix:  ts.UnixMilli(),
	}, nil
}

func decodeVerdict(payload []byte) (models.Verdict, error) {
	var v models.Verdict
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("decode verdict: %w", err)
	}
	return v, nil
}
