// Package session maps wall-clock time to A-share trading phases.
package session

import (
	"time"

	"Sentinel/internal/domain/models"
)

var shanghai = loadShanghai()

func loadShanghai() *time.Location {
	if loc, err := time.LoadLocation("Asia/Shanghai"); err == nil {
		return loc
	}
	return time.FixedZone("CST", 8*3600)
}

type phase struct {
	session    models.TradingSession
	from       int // minutes since midnight, inclusive
	maxPos     float64
	strict     bool
	strategies []string
	reason     string
}

var phases = []phase{
	{models.SessionPreMarket, 9 * 60, 0, false, []string{"gap_analysis", "sector_rotation"}, "call auction, plan only"},
	{models.SessionOpening, 9*60 + 25, 0.3, true, []string{"opening_breakout", "reversal_detection"}, "opening volatility, small size and strict stops"},
	{models.SessionMid, 9*60 + 35, 0.7, false, []string{"trend_follow", "fund_flow_chase", "dip_buy"}, "main session"},
	{models.SessionTail, 14*60 + 30, 1.0, false, []string{"tail_pull", "fund_accumulation"}, "tail session, positions settle for the day"},
	{models.SessionPostMarket, 15 * 60, 0, false, []string{"review", "next_day_prep"}, "market closed for the day"},
}

// Location is the exchange time zone.
func Location() *time.Location { return shanghai }

// At reports the trading phase for t, converted to exchange time.
func At(t time.Time) models.SessionStatus {
	local := t.In(shanghai)
	st := models.SessionStatus{Session: models.SessionClosed, At: local, Reason: "market closed"}

	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		st.Reason = "weekend"
		return st
	}
	minutes := local.Hour()*60 + local.Minute()
	for i := len(phases) - 1; i >= 0; i-- {
		p := phases[i]
		if minutes < p.from {
			continue
		}
		st.Session = p.session
		st.MaxPositionPct = p.maxPos
		st.AllowNewPosition = p.maxPos > 0
		st.StrictStopLoss = p.strict
		st.Strategies = append([]string(nil), p.strategies...)
		st.Reason = p.reason
		return st
	}
	return st
}
