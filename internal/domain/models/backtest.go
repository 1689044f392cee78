package models

type ExitReason string

const (
	ExitTakeProfit ExitReason = "take_profit"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTimeLimit  ExitReason = "time_limit"
)

// BacktestTrade is one simulated entry on a go verdict. Percentages are
// relative to the entry close.
type BacktestTrade struct {
	EntryDate  string     `json:"entry_date"`
	EntryPrice float64    `json:"entry_price"`
	ExitDate   string     `json:"exit_date"`
	ExitPrice  float64    `json:"exit_price"`
	HoldBars   int        `json:"hold_bars"`
	ProfitPct  float64    `json:"profit_pct"`
	ExitReason ExitReason `json:"exit_reason"`
	Win        bool       `json:"win"`
}

// BacktestReport tallies a walk over stored bars. ForwardReturn is the mean
// close-to-close percent change over the horizon per verdict class.
type BacktestReport struct {
	Instrument      string                  `json:"instrument"`
	From            string                  `json:"from"`
	To              string                  `json:"to"`
	Evaluations     int                     `json:"evaluations"`
	Verdicts        map[ActionClass]int     `json:"verdicts"`
	Vetoed          int                     `json:"vetoed"`
	ForwardReturn   map[ActionClass]float64 `json:"forward_return"`
	Signals         int                     `json:"signals"`
	OpenTrades      int                     `json:"open_trades"`
	CompletedTrades int                     `json:"completed_trades"`
	Wins            int                     `json:"wins"`
	Losses          int                     `json:"losses"`
	WinRate         float64                 `json:"win_rate"`
	AvgReturn       float64                 `json:"avg_return"`
	MaxReturn       float64                 `json:"max_return"`
	MaxLoss         float64                 `json:"max_loss"`
	AvgHoldBars     float64                 `json:"avg_hold_bars"`
	Trades          []BacktestTrade         `json:"trades"`
}
