package risk

import (
	"Sentinel/internal/domain/models"
	"Sentinel/internal/services/indicators"
)

const maxAllowedDrawdownPct = 15.0

type drawdownTier struct {
	above      float64
	action     models.DrawdownAction
	maxPos     float64
	suggestion string
}

var drawdownTiers = []drawdownTier{
	{0.20, models.DrawdownStop, 0, "stop trading, review the account"},
	{0.15, models.DrawdownForceReduce, 0.5, "force position down 50%"},
	{0.10, models.DrawdownWarn, 0.7, "reduce position 30%"},
	{0.05, models.DrawdownNotice, 1.0, "drawdown building, stay alert"},
}

// DrawdownControl maps an account drawdown fraction to an action tier.
func DrawdownControl(dd float64) models.DrawdownControl {
	out := models.DrawdownControl{
		DrawdownPct:    indicators.Round(dd*100, 2),
		MaxAllowedPct:  maxAllowedDrawdownPct,
		Action:         models.DrawdownNormal,
		MaxPositionPct: 1.0,
		Suggestion:     "normal",
	}
	for _, t := range drawdownTiers {
		if dd > t.above {
			out.Action = t.action
			out.MaxPositionPct = t.maxPos
			out.Suggestion = t.suggestion
			break
		}
	}
	return out
}
