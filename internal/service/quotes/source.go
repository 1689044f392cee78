// Package quotes fetches intraday fund flow and order book readings from
// public A-share quote endpoints.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"Sentinel/internal/domain/models"
)

var (
	ErrBadCode     = errors.New("invalid instrument code")
	ErrEmptyQuote  = errors.New("empty quote")
	ErrShortRecord = errors.New("quote record too short")
)

// Source is one realtime endpoint.
type Source interface {
	Name() string
	Fetch(ctx context.Context, code string) (models.SourceReading, error)
}

// Symbol splits "600519", "600519.SH" or "sh600519" into exchange prefix
// and the six digits.
func Symbol(code string) (exchange, digits string, err error) {
	c := strings.ToLower(strings.TrimSpace(code))
	switch {
	case strings.HasSuffix(c, ".sh"), strings.HasSuffix(c, ".sz"):
		exchange, digits = c[len(c)-2:], c[:len(c)-3]
	case strings.HasPrefix(c, "sh"), strings.HasPrefix(c, "sz"):
		exchange, digits = c[:2], c[2:]
	default:
		digits = c
	}
	if len(digits) != 6 || strings.Trim(digits, "0123456789") != "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadCode, code)
	}
	if exchange == "" {
		exchange = "sz"
		if digits[0] == '6' || digits[0] == '9' {
			exchange = "sh"
		}
	}
	return exchange, digits, nil
}

// yuanToWan converts CNY to 10k CNY, rounded to cents of a wan.
func yuanToWan(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Div(decimal.NewFromInt(10000)).Round(2).Float64()
	return f
}

func ratio(num, den float64) float64 {
	f, _ := decimal.NewFromFloat(num).Div(decimal.NewFromFloat(den)).Round(2).Float64()
	return f
}
