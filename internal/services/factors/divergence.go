package factors

import (
	"Sentinel/internal/domain/models"
)

// DivergenceRule holds the price/flow thresholds for the divergence check.
// Flow is in 10k CNY, moves in percent.
type DivergenceRule struct {
	SevereMove float64 `yaml:"severe_move"`
	SevereFlow float64 `yaml:"severe_flow"`
	MildMove   float64 `yaml:"mild_move"`
	MildFlow   float64 `yaml:"mild_flow"`
}

func DefaultDivergenceRule() DivergenceRule {
	return DivergenceRule{SevereMove: 3, SevereFlow: 2000, MildMove: 2, MildFlow: 1000}
}

// FundDivergence compares the latest price move with the latest main-force
// flow. A rally on heavy outflow is diverge-short, a selloff on heavy
// inflow is diverge-long.
func FundDivergence(flow []models.MoneyFlowRecord, changePct float64, rule DivergenceRule) models.FlowSignal {
	if len(flow) == 0 {
		return models.FlowNormal
	}
	net := flow[0].MainNetInflow

	switch {
	case changePct > rule.SevereMove && net < -rule.SevereFlow:
		return models.FlowDivergeShortSevere
	case changePct > rule.MildMove && net < -rule.MildFlow:
		return models.FlowDivergeShort
	case changePct < -rule.SevereMove && net > rule.SevereFlow:
		return models.FlowDivergeLongSevere
	case changePct < -rule.MildMove && net > rule.MildFlow:
		return models.FlowDivergeLong
	}
	return models.FlowNormal
}

type ChipRiskRule struct {
	WinnerAbove  float64 `yaml:"winner_above"`
	PremiumAbove float64 `yaml:"premium_above"` // percent over average cost
}

func DefaultChipRiskRule() ChipRiskRule {
	return ChipRiskRule{WinnerAbove: 90, PremiumAbove: 20}
}

// ChipRisk flags crowded profit far above average cost. Missing cost falls
// back to the current price.
func ChipRisk(chip *models.ChipDistribution, price float64, rule ChipRiskRule) models.ChipRisk {
	if chip == nil || !chip.Valid {
		return models.ChipRiskNormal
	}
	cost := chip.AvgCost
	if cost <= 0 {
		cost = price
	}
	premium := 0.0
	if cost > 0 {
		premium = (price - cost) / cost * 100
	}
	if chip.WinnerRate > rule.WinnerAbove && premium > rule.PremiumAbove {
		return models.ChipRiskHigh
	}
	return models.ChipRiskNormal
}
