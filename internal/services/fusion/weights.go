package fusion

import (
	"errors"
	"fmt"
	"math"

	"Sentinel/internal/domain/models"
)

const weightTolerance = 1e-6

var (
	ErrWeightSum        = errors.New("weights must sum to 1")
	ErrNegativeWeight   = errors.New("weights must be non-negative")
	ErrInvalidMultipler = errors.New("regime multipliers must be positive")
)

// Weights maps the six fusion categories to their share of the factor score.
type Weights struct {
	Trend    float64 `yaml:"trend"`
	Volume   float64 `yaml:"volume"`
	Position float64 `yaml:"position"`
	Chip     float64 `yaml:"chip"`
	Money    float64 `yaml:"money"`
	Market   float64 `yaml:"market"`
}

func DefaultWeights() Weights {
	return Weights{Trend: 0.18, Volume: 0.15, Position: 0.10, Chip: 0.17, Money: 0.25, Market: 0.15}
}

func (w Weights) Get(c models.FactorCategory) float64 {
	switch c {
	case models.CategoryTrend:
		return w.Trend
	case models.CategoryVolume:
		return w.Volume
	case models.CategoryPosition:
		return w.Position
	case models.CategoryChip:
		return w.Chip
	case models.CategoryMoney:
		return w.Money
	case models.CategoryMarket:
		return w.Market
	}
	return 0
}

func (w Weights) Sum() float64 {
	return w.Trend + w.Volume + w.Position + w.Chip + w.Money + w.Market
}

func (w Weights) each() []float64 {
	return []float64{w.Trend, w.Volume, w.Position, w.Chip, w.Money, w.Market}
}

// Validate enforces non-negative weights summing to 1.
func (w Weights) Validate() error {
	for _, v := range w.each() {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %+v", ErrNegativeWeight, w)
		}
	}
	if math.Abs(w.Sum()-1) > weightTolerance {
		return fmt.Errorf("%w: got %.6f", ErrWeightSum, w.Sum())
	}
	return nil
}

func (w Weights) scale(m Weights) Weights {
	return Weights{
		Trend:    w.Trend * m.Trend,
		Volume:   w.Volume * m.Volume,
		Position: w.Position * m.Position,
		Chip:     w.Chip * m.Chip,
		Money:    w.Money * m.Money,
		Market:   w.Market * m.Market,
	}
}

func (w Weights) normalized() Weights {
	total := w.Sum()
	if total <= 0 {
		return w
	}
	return Weights{
		Trend:    w.Trend / total,
		Volume:   w.Volume / total,
		Position: w.Position / total,
		Chip:     w.Chip / total,
		Money:    w.Money / total,
		Market:   w.Market / total,
	}
}

// Multipliers are per-regime factors applied before renormalization.
// A category left at 1 is unchanged by that regime.
type Multipliers struct {
	Bull  Weights `yaml:"bull"`
	Bear  Weights `yaml:"bear"`
	Shock Weights `yaml:"shock"`
}

func unit() Weights {
	return Weights{Trend: 1, Volume: 1, Position: 1, Chip: 1, Money: 1, Market: 1}
}

func DefaultMultipliers() Multipliers {
	bull, bear, shock := unit(), unit(), unit()
	bull.Trend, bull.Chip, bull.Position, bull.Money = 1.3, 0.8, 0.7, 1.2
	bear.Money, bear.Chip, bear.Position, bear.Trend = 1.5, 1.2, 1.3, 0.6
	shock.Volume, shock.Chip, shock.Money = 1.2, 1.1, 1.3
	return Multipliers{Bull: bull, Bear: bear, Shock: shock}
}

func (m Multipliers) For(r models.Regime) Weights {
	switch r {
	case models.RegimeBull:
		return m.Bull
	case models.RegimeBear:
		return m.Bear
	case models.RegimeShock:
		return m.Shock
	}
	return unit()
}

func (m Multipliers) Validate() error {
	for _, w := range []Weights{m.Bull, m.Bear, m.Shock} {
		for _, v := range w.each() {
			if !(v > 0) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %+v", ErrInvalidMultipler, w)
			}
		}
	}
	return nil
}

// Adjusted applies the regime multipliers and renormalizes to sum 1.
func Adjusted(base Weights, m Multipliers, r models.Regime) Weights {
	return base.scale(m.For(r)).normalized()
}
