package models

import "time"

// RiskSnapshot is an immutable copy of the global risk state.
type RiskSnapshot struct {
	KillSwitchActive  bool      `json:"kill_switch_active"`
	KillReason        string    `json:"kill_reason"`
	KillTimestamp     time.Time `json:"kill_timestamp,omitempty"`
	ConsecutiveLosses int       `json:"consecutive_losses"`
	AccountDrawdown   float64   `json:"account_drawdown"`
	LastPnLPct        float64   `json:"last_pnl_pct"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type StopType string

const (
	StopFixed    StopType = "fixed"
	StopTrailing StopType = "trailing"
)

type StopLoss struct {
	StopPrice  float64  `json:"stop_price"`
	StopPct    float64  `json:"stop_pct"` // relative to current price
	ATR        float64  `json:"atr"`
	Type       StopType `json:"type"`
	Suggestion string   `json:"suggestion"`
}

type DrawdownAction string

const (
	DrawdownNormal      DrawdownAction = "normal"
	DrawdownNotice      DrawdownAction = "notice"
	DrawdownWarn        DrawdownAction = "reduce_warning"
	DrawdownForceReduce DrawdownAction = "force_reduce"
	DrawdownStop        DrawdownAction = "stop_trading"
)

type DrawdownControl struct {
	DrawdownPct    float64        `json:"drawdown_pct"`
	MaxAllowedPct  float64        `json:"max_allowed_pct"`
	Action         DrawdownAction `json:"action"`
	MaxPositionPct float64        `json:"max_position_pct"`
	Suggestion     string         `json:"suggestion"`
}

type SentimentLevel string

const (
	SentimentExtremeOptimism SentimentLevel = "extreme_optimism"
	SentimentOptimism        SentimentLevel = "optimism"
	SentimentNeutral         SentimentLevel = "neutral"
	SentimentPanic           SentimentLevel = "panic"
	SentimentExtremePanic    SentimentLevel = "extreme_panic"
	// Set by upstream systems, never computed here.
	SentimentCircuitBreaker SentimentLevel = "circuit_breaker_risk"
	SentimentSystemic       SentimentLevel = "systemic_risk"
)

type SentimentIndex struct {
	Score       float64        `json:"score"`
	Level       SentimentLevel `json:"level"`
	Signals     []string       `json:"signals"`
	UpRatio     float64        `json:"up_ratio"`
	VolumeRatio float64        `json:"volume_ratio"`
	Suggestion  string         `json:"suggestion"`
}
