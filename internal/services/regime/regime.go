// Package regime classifies the index trend and holds the active regime.
package regime

import (
	"sync/atomic"

	"Sentinel/internal/domain/models"
)

const (
	minBars        = 20
	trendThreshold = 1.0 // percent distance from MA20
)

// Classify compares the latest index close with its 20-day average.
// Short or degenerate input yields SHOCK.
func Classify(index []models.Bar) models.Regime {
	if len(index) < minBars {
		return models.RegimeShock
	}
	var sum float64
	for _, b := range index[:minBars] {
		sum += b.Close
	}
	ma20 := sum / minBars
	if ma20 <= 0 {
		return models.RegimeShock
	}

	trend := (index[0].Close - ma20) / ma20 * 100
	switch {
	case trend > trendThreshold:
		return models.RegimeBull
	case trend < -trendThreshold:
		return models.RegimeBear
	}
	return models.RegimeShock
}

// State holds the process-wide regime. The zero value reads SHOCK.
type State struct {
	v atomic.Value
}

func NewState(initial models.Regime) *State {
	s := &State{}
	if initial.Valid() {
		s.v.Store(initial)
	}
	return s
}

func (s *State) Get() models.Regime {
	if r, ok := s.v.Load().(models.Regime); ok {
		return r
	}
	return models.RegimeShock
}

// Set ignores invalid values.
func (s *State) Set(r models.Regime) {
	if r.Valid() {
		s.v.Store(r)
	}
}

// Refresh classifies index bars, stores and returns the result.
func (s *State) Refresh(index []models.Bar) models.Regime {
	r := Classify(index)
	s.Set(r)
	return r
}
