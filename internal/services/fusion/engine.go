// Package fusion combines factor scores into one bounded composite score.
package fusion

import (
	"fmt"
	"math"

	"Sentinel/internal/domain/models"
	"Sentinel/internal/services/factors"
	"Sentinel/internal/services/indicators"
)

const (
	MinScore = 1.0
	MaxScore = 99.0
)

type Penalties struct {
	DivergeShort float64 `yaml:"diverge_short"`
	DivergeLong  float64 `yaml:"diverge_long"` // bonus
	ChipRisk     float64 `yaml:"chip_risk"`
}

type Config struct {
	Weights     Weights
	Multipliers Multipliers
	// FactorShare is the weight of the factor score against the technical
	// sub-score.
	FactorShare float64
	MinBars     int
	Divergence  factors.DivergenceRule
	ChipRisk    factors.ChipRiskRule
	Penalties   Penalties
}

func DefaultConfig() Config {
	return Config{
		Weights:     DefaultWeights(),
		Multipliers: DefaultMultipliers(),
		FactorShare: 0.8,
		MinBars:     30,
		Divergence:  factors.DefaultDivergenceRule(),
		ChipRisk:    factors.DefaultChipRiskRule(),
		Penalties:   Penalties{DivergeShort: 15, DivergeLong: 10, ChipRisk: 10},
	}
}

func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("base weights: %w", err)
	}
	if err := c.Multipliers.Validate(); err != nil {
		return err
	}
	if c.FactorShare < 0 || c.FactorShare > 1 {
		return fmt.Errorf("factor share must be within [0,1], got %v", c.FactorShare)
	}
	if c.MinBars < 1 {
		return fmt.Errorf("min bars must be positive, got %d", c.MinBars)
	}
	if c.Penalties.DivergeShort < 0 || c.Penalties.DivergeLong < 0 || c.Penalties.ChipRisk < 0 {
		return fmt.Errorf("penalties must be non-negative: %+v", c.Penalties)
	}
	return nil
}

type Engine struct {
	cfg Config
}

// NewEngine validates cfg; a bad weight table never reaches evaluation.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("fusion config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Weights returns the normalized weights in effect for a regime.
func (e *Engine) Weights(r models.Regime) Weights {
	return Adjusted(e.cfg.Weights, e.cfg.Multipliers, r)
}

// Score fuses the input under the given regime. It never fails: short
// input yields a neutral observe result.
func (e *Engine) Score(in *models.EvaluationInput, r models.Regime) models.FusionResult {
	bars := in.Bars
	if len(bars) < e.cfg.MinBars {
		return models.FusionResult{
			Score:      models.NeutralScore,
			Intent:     models.IntentObserve,
			Regime:     r,
			TechSignal: models.TechNone,
			FlowSignal: models.FlowNormal,
			ChipRisk:   models.ChipRiskNormal,
		}
	}

	ma := factors.MAAlignment(bars)
	mom := factors.Momentum(bars)
	pos := factors.Position(bars)
	ratio := factors.VolumeRatio(bars)
	pattern := factors.VolumePattern(bars)
	chip := factors.ChipProfit(in.Chip)
	money := factors.RealtimeMoney(in.Realtime)
	if !money.Sufficient() {
		money = factors.MainFlow(in.Flow)
	}
	market := factors.MarketSync(bars, in.MarketBars)

	bd := models.Breakdown{
		Trend:    (ma.Score() + mom.Score() + pos.Score()) / 3,
		Volume:   (ratio.Score() + pattern.Score()) / 2,
		Position: pos.Score(),
		Chip:     chip.Score(),
		Money:    money.Score(),
		Market:   market.Score(),
		Factors: []models.FactorScore{
			models.NewFactorScore("ma_alignment", models.CategoryTrend, ma),
			models.NewFactorScore("momentum", models.CategoryTrend, mom),
			models.NewFactorScore("position", models.CategoryPosition, pos),
			models.NewFactorScore("volume_ratio", models.CategoryVolume, ratio),
			models.NewFactorScore("volume_pattern", models.CategoryVolume, pattern),
			models.NewFactorScore("chip_profit", models.CategoryChip, chip),
			models.NewFactorScore("main_flow", models.CategoryMoney, money),
			models.NewFactorScore("market_sync", models.CategoryMarket, market),
		},
	}

	w := e.Weights(r)
	var factorScore float64
	for _, c := range models.Categories {
		factorScore += bd.Get(c) * w.Get(c)
	}

	closes := models.Closes(bars)
	rsi := indicators.RSI(closes, indicators.RSIPeriod)
	macd := indicators.MACD(closes, indicators.MACDFast, indicators.MACDSlow, indicators.MACDSignal)
	boll := indicators.Bollinger(closes, indicators.BollingerPeriod, indicators.BollingerWidth)
	tech := indicators.TechScore(rsi, macd, boll)
	techFix, techSignal := indicators.TechFix(closes)

	latest := bars[0]
	flowSignal := factors.FundDivergence(in.Flow, latest.ChangePct, e.cfg.Divergence)
	chipRisk := factors.ChipRisk(in.Chip, latest.Close, e.cfg.ChipRisk)

	score := factorScore*e.cfg.FactorShare + tech*(1-e.cfg.FactorShare) + techFix
	switch {
	case flowSignal.IsShort():
		score -= e.cfg.Penalties.DivergeShort
	case flowSignal.IsLong():
		score += e.cfg.Penalties.DivergeLong
	}
	if chipRisk == models.ChipRiskHigh {
		score -= e.cfg.Penalties.ChipRisk
	}
	if math.IsNaN(score) {
		score = models.NeutralScore
	}
	score = math.Max(MinScore, math.Min(MaxScore, score))

	intent := ClassifyIntent(IntentContext{
		Score:     score,
		ChangePct: latest.ChangePct,
		Tech:      techSignal,
		Flow:      flowSignal,
		Chip:      chipRisk,
	})

	bd.Trend = indicators.Round(bd.Trend, 1)
	bd.Volume = indicators.Round(bd.Volume, 1)
	bd.Position = indicators.Round(bd.Position, 1)
	bd.Chip = indicators.Round(bd.Chip, 1)
	bd.Money = indicators.Round(bd.Money, 1)
	bd.Market = indicators.Round(bd.Market, 1)

	return models.FusionResult{
		Score:      indicators.Round(score, 1),
		Intent:     intent,
		Regime:     r,
		Breakdown:  bd,
		TechScore:  indicators.Round(tech, 1),
		TechFix:    techFix,
		TechSignal: techSignal,
		FlowSignal: flowSignal,
		ChipRisk:   chipRisk,
		RSI:        rsi,
		MACD:       macd,
		Bollinger:  boll,
		Sufficient: true,
	}
}
