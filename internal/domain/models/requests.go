package models

// Requests for the HTTP API. Tags drive echo binding, creasty/defaults and validator.

type EvaluateCodeRequest struct {
	Code     string `param:"code" validate:"required,stock_code"`
	Lookback int    `query:"lookback" default:"120" validate:"gte=30,lte=500"`
	Index    string `query:"index" default:"000001.SH" validate:"required,index_code"`
	Offline  bool   `query:"offline"` // skip the realtime sources
}

type TradeResultRequest struct {
	IsWin  *bool   `json:"is_win" validate:"required"`
	PnLPct float64 `json:"pnl_pct"`
}

type DrawdownRequest struct {
	Current float64 `json:"current" validate:"gte=0"`
	Peak    float64 `json:"peak" validate:"gte=0"`
}

type RiskResetRequest struct {
	Operator string `json:"operator" validate:"required"`
	Note     string `json:"note"`
}

type StopLossRequest struct {
	Code       string  `json:"code" validate:"required,stock_code"`
	EntryPrice float64 `json:"entry_price" validate:"gt=0"`
	Current    float64 `json:"current_price" validate:"gt=0"`
	Lookback   int     `json:"lookback" default:"30" validate:"gte=15,lte=250"`
}

type SetRegimeRequest struct {
	Regime string `json:"regime" validate:"required,oneof=BULL BEAR SHOCK bull bear shock"`
}

type RefreshRegimeRequest struct {
	Index    string `json:"index" default:"000001.SH" validate:"required,index_code"`
	Lookback int    `json:"lookback" default:"60" validate:"gte=20,lte=500"`
}

type RealtimeRequest struct {
	Code string `param:"code" validate:"required,stock_code"`
}
