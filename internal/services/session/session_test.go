package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"Sentinel/internal/domain/models"
)

func at(day, hour, minute int) time.Time {
	// March 2024: the 4th is a Monday.
	return time.Date(2024, 3, day, hour, minute, 0, 0, Location())
}

func TestAt(t *testing.T) {
	tests := []struct {
		name    string
		t       time.Time
		session models.TradingSession
		maxPos  float64
		allow   bool
	}{
		{"early morning", at(4, 8, 59), models.SessionClosed, 0, false},
		{"pre market", at(4, 9, 0), models.SessionPreMarket, 0, false},
		{"opening", at(4, 9, 25), models.SessionOpening, 0.3, true},
		{"mid", at(4, 9, 35), models.SessionMid, 0.7, true},
		{"lunch still mid", at(4, 12, 0), models.SessionMid, 0.7, true},
		{"tail", at(4, 14, 30), models.SessionTail, 1.0, true},
		{"close", at(4, 15, 0), models.SessionPostMarket, 0, false},
		{"saturday", at(2, 10, 0), models.SessionClosed, 0, false},
		{"sunday", at(3, 10, 0), models.SessionClosed, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := At(tt.t)
			assert.Equal(t, tt.session, st.Session)
			assert.Equal(t, tt.maxPos, st.MaxPositionPct)
			assert.Equal(t, tt.allow, st.AllowNewPosition)
		})
	}
}

func TestOpeningIsStrict(t *testing.T) {
	st := At(at(4, 9, 30))
	assert.True(t, st.StrictStopLoss)
	assert.Contains(t, st.Strategies, "opening_breakout")
	assert.False(t, At(at(4, 10, 0)).StrictStopLoss)
}

func TestConvertsToExchangeTime(t *testing.T) {
	// 02:00 UTC is 10:00 in Shanghai.
	st := At(time.Date(2024, 3, 4, 2, 0, 0, 0, time.UTC))
	assert.Equal(t, models.SessionMid, st.Session)
	assert.Equal(t, 10, st.At.Hour())
}
