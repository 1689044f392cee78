package models

import "time"

// Bar is one trading day for one instrument. Slices of Bar are always
// ordered most-recent-first.
type Bar struct {
	TradeDate    string  `json:"trade_date"` // YYYYMMDD
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Close        float64 `json:"close"`
	Volume       float64 `json:"vol"`    // lots
	Amount       float64 `json:"amount"` // thousand CNY
	ChangePct    float64 `json:"change_pct"`
	TurnoverRate float64 `json:"turnover_rate,omitempty"`
}

// MoneyFlowRecord carries the main-force net inflow of one day in 10k CNY.
type MoneyFlowRecord struct {
	TradeDate     string  `json:"trade_date"`
	MainNetInflow float64 `json:"main_net_inflow"`
}

// Closes returns closing prices oldest-first, the order indicator math expects.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[len(bars)-1-i] = b.Close
	}
	return out
}

type CostPercentiles struct {
	P10 float64 `json:"p10"`
	P30 float64 `json:"p30"`
	P50 float64 `json:"p50"`
	P70 float64 `json:"p70"`
	P90 float64 `json:"p90"`
}

// ChipDistribution is the estimated holder cost profile for an instrument.
type ChipDistribution struct {
	AvgCost         float64         `json:"avg_cost"`
	WinnerRate      float64         `json:"winner_rate"` // 0..100
	CostPercentiles CostPercentiles `json:"cost_percentiles"`
	Concentration   float64         `json:"concentration"`
	Confidence      float64         `json:"confidence"`
	Source          string          `json:"source"`
	Valid           bool            `json:"valid"`
}

// RealtimeSnapshot merges intraday quotes and fund flow from several sources.
// Money fields are in 10k CNY.
type RealtimeSnapshot struct {
	Code         string    `json:"code"`
	Price        float64   `json:"price"`
	ChangePct    float64   `json:"change_pct"`
	MainNet      float64   `json:"main_net"`
	MainInflow   float64   `json:"main_inflow"`
	MainOutflow  float64   `json:"main_outflow"`
	SuperBigNet  float64   `json:"super_big_net"`
	BigNet       float64   `json:"big_net"`
	MidNet       float64   `json:"mid_net"`
	BuySellRatio float64   `json:"buy_sell_ratio"`
	PowerRatio   float64   `json:"power_ratio"`
	FundTrend    FundTrend `json:"fund_trend"`
	RiskSignal   string    `json:"risk_signal"`
	Sources      []string  `json:"sources"`
	Confidence   float64   `json:"confidence"` // 0..100
	Valid        bool      `json:"valid"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type FundTrend string

const (
	FundTrendBigInflow         FundTrend = "big_inflow"
	FundTrendInflow            FundTrend = "inflow"
	FundTrendBalanced          FundTrend = "balanced"
	FundTrendOutflow           FundTrend = "outflow"
	FundTrendBigOutflow        FundTrend = "big_outflow"
	FundTrendHugeOutflow       FundTrend = "huge_outflow"
	FundTrendContinuousOutflow FundTrend = "continuous_outflow"
)

// Breadth is a market-wide snapshot used by the sentiment index.
type Breadth struct {
	UpCount       int     `json:"up_count"`
	DownCount     int     `json:"down_count"`
	LimitUp       int     `json:"limit_up"`
	LimitDown     int     `json:"limit_down"`
	Volume        float64 `json:"volume"`
	AvgVolume     float64 `json:"avg_volume"`
	NorthboundNet float64 `json:"northbound_net"` // million CNY
}

// SourceReading is what one realtime source contributed. Only the groups
// flagged Has* are meaningful.
type SourceReading struct {
	Source    string  `json:"source"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`

	HasFlow     bool    `json:"has_flow"`
	MainNet     float64 `json:"main_net"`
	MainInflow  float64 `json:"main_inflow"`
	MainOutflow float64 `json:"main_outflow"`
	SuperBigNet float64 `json:"super_big_net"`
	BigNet      float64 `json:"big_net"`
	MidNet      float64 `json:"mid_net"`

	HasPower   bool    `json:"has_power"`
	BuyPower   float64 `json:"buy_power"`
	SellPower  float64 `json:"sell_power"`
	PowerRatio float64 `json:"power_ratio"`

	HasTape      bool    `json:"has_tape"`
	BuyVolume    float64 `json:"buy_volume"`
	SellVolume   float64 `json:"sell_volume"`
	BuySellRatio float64 `json:"buy_sell_ratio"`
}
