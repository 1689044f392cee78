package models

import (
	"fmt"
	"strings"
)

// Regime is the coarse index-level market trend.
type Regime string

const (
	RegimeBull  Regime = "BULL"
	RegimeBear  Regime = "BEAR"
	RegimeShock Regime = "SHOCK"
)

func (r Regime) Valid() bool {
	return r == RegimeBull || r == RegimeBear || r == RegimeShock
}

func (r Regime) String() string { return string(r) }

// ParseRegime accepts any case ("bull", "Bull", "BULL").
func ParseRegime(s string) (Regime, error) {
	r := Regime(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return RegimeShock, fmt.Errorf("unknown regime %q", s)
	}
	return r, nil
}
