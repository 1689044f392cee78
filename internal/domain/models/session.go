package models

import "time"

type TradingSession string

const (
	SessionPreMarket  TradingSession = "pre_market"
	SessionOpening    TradingSession = "opening"
	SessionMid        TradingSession = "mid_session"
	SessionTail       TradingSession = "tail_session"
	SessionPostMarket TradingSession = "post_market"
	SessionClosed     TradingSession = "closed"
)

type SessionStatus struct {
	Session          TradingSession `json:"session"`
	AllowNewPosition bool           `json:"allow_new_position"`
	MaxPositionPct   float64        `json:"max_position_pct"`
	StrictStopLoss   bool           `json:"strict_stop_loss"`
	Strategies       []string       `json:"strategies"`
	Reason           string         `json:"reason"`
	At               time.Time      `json:"at"`
}
