package fusion

import "Sentinel/internal/domain/models"

// IntentContext is what the intent rules look at.
type IntentContext struct {
	Score     float64
	ChangePct float64
	Tech      models.TechSignal
	Flow      models.FlowSignal
	Chip      models.ChipRisk
}

type IntentRule struct {
	Name   string
	Match  func(IntentContext) bool
	Intent models.Intent
}

// IntentRules is evaluated top to bottom; the first match wins. Technical
// extremes outrank fund divergence, which outranks chip risk, which
// outranks score thresholds.
var IntentRules = []IntentRule{
	{"tech_bottom", func(c IntentContext) bool { return c.Tech == models.TechBottom }, models.IntentIronBottom},
	{"tech_top", func(c IntentContext) bool { return c.Tech == models.TechTop }, models.IntentTopPullback},
	{"tech_overbought", func(c IntentContext) bool { return c.Tech == models.TechOverbought }, models.IntentTopRisk},
	{"tech_oversold", func(c IntentContext) bool { return c.Tech == models.TechOversold }, models.IntentGoldenPit},
	{"diverge_short", func(c IntentContext) bool { return c.Flow.IsShort() }, models.IntentLureDistribution},
	{"diverge_long", func(c IntentContext) bool { return c.Flow.IsLong() }, models.IntentShakeoutAccumulation},
	{"chip_high_risk", func(c IntentContext) bool { return c.Chip == models.ChipRiskHigh }, models.IntentHighDistribution},
	{"golden_trend", func(c IntentContext) bool { return c.Tech == models.TechGolden && c.Score > 65 }, models.IntentTrendAcceleration},
	{"score_85", func(c IntentContext) bool { return c.Score > 85 }, models.IntentMainWave},
	{"score_70", func(c IntentContext) bool { return c.Score > 70 }, models.IntentStrongRally},
	{"score_35", func(c IntentContext) bool { return c.Score < 35 }, models.IntentBreakdown},
	{"washout", func(c IntentContext) bool {
		return c.Score > 50 && c.Score < 75 && c.ChangePct > -5 && c.ChangePct < 0
	}, models.IntentWashout},
}

func ClassifyIntent(c IntentContext) models.Intent {
	for _, r := range IntentRules {
		if r.Match(c) {
			return r.Intent
		}
	}
	return models.IntentObserve
}
