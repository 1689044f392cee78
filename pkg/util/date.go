package util

import (
	"fmt"
	"strconv"
	"time"
)

// TradeDateLayout is the YYYYMMDD form used for bar dates.
const TradeDateLayout = "20060102"

var queryLayouts = []string{time.RFC3339Nano, time.DateTime, time.DateOnly}

// ParseTime accepts RFC3339 (with or without fraction), "2006-01-02 15:04:05",
// a bare date, or positive unix seconds. Zoneless forms are read as UTC.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		if sec <= 0 || len(s) == len(TradeDateLayout) {
			return time.Time{}, false
		}
		return time.Unix(sec, 0), true
	}
	for _, layout := range queryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTimeDefault returns def when s is empty or unparseable.
func ParseTimeDefault(s string, def time.Time) time.Time {
	t, ok := ParseTime(s)
	if !ok {
		return def
	}
	return t
}

// ParseTradeDate reads YYYYMMDD or YYYY-MM-DD in loc.
func ParseTradeDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{TradeDateLayout, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid trade date %q", s)
}

func FormatTradeDate(t time.Time) string {
	return t.Format(TradeDateLayout)
}
