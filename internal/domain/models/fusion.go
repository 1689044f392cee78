package models

type RSILabel string

const (
	RSISevereOverbought RSILabel = "severe_overbought"
	RSIOverbought       RSILabel = "overbought"
	RSINeutral          RSILabel = "neutral"
	RSIOversold         RSILabel = "oversold"
	RSISevereOversold   RSILabel = "severe_oversold"
	RSIInsufficient     RSILabel = "insufficient"
)

type RSIReading struct {
	Value float64  `json:"value"`
	Label RSILabel `json:"label"`
	Score float64  `json:"score"`
}

type MACDCross string

const (
	MACDGolden       MACDCross = "golden"
	MACDDead         MACDCross = "dead"
	MACDBull         MACDCross = "bull"
	MACDBear         MACDCross = "bear"
	MACDInsufficient MACDCross = "insufficient"
)

type MACDReading struct {
	MACD      float64   `json:"macd"`
	Signal    float64   `json:"signal"`
	Histogram float64   `json:"histogram"`
	Cross     MACDCross `json:"cross"`
	Score     float64   `json:"score"`
}

type BollingerLabel string

const (
	BollTouchTop     BollingerLabel = "touch_top"
	BollTouchBottom  BollingerLabel = "touch_bottom"
	BollSqueeze      BollingerLabel = "squeeze"
	BollNearUpper    BollingerLabel = "near_upper"
	BollNearLower    BollingerLabel = "near_lower"
	BollMiddle       BollingerLabel = "middle"
	BollInsufficient BollingerLabel = "insufficient"
)

type BollingerReading struct {
	Upper     float64        `json:"upper"`
	Middle    float64        `json:"middle"`
	Lower     float64        `json:"lower"`
	Bandwidth float64        `json:"bandwidth"`
	Position  float64        `json:"position"`
	Label     BollingerLabel `json:"label"`
	Score     float64        `json:"score"`
}

// TechSignal is the outcome of the band/RSI fix-up rule.
type TechSignal string

const (
	TechNone       TechSignal = "none"
	TechNormal     TechSignal = "normal"
	TechBottom     TechSignal = "bottom"
	TechTop        TechSignal = "top"
	TechOverbought TechSignal = "overbought"
	TechOversold   TechSignal = "oversold"
	TechGolden     TechSignal = "golden"
)

type FlowSignal string

const (
	FlowNormal             FlowSignal = "normal"
	FlowDivergeShort       FlowSignal = "diverge_short"
	FlowDivergeShortSevere FlowSignal = "diverge_short_severe"
	FlowDivergeLong        FlowSignal = "diverge_long"
	FlowDivergeLongSevere  FlowSignal = "diverge_long_severe"
)

func (f FlowSignal) IsShort() bool { return f == FlowDivergeShort || f == FlowDivergeShortSevere }

func (f FlowSignal) IsLong() bool { return f == FlowDivergeLong || f == FlowDivergeLongSevere }

type ChipRisk string

const (
	ChipRiskNormal ChipRisk = "normal"
	ChipRiskHigh   ChipRisk = "high_risk"
)

type Intent string

const (
	IntentIronBottom           Intent = "iron_bottom"
	IntentTopPullback          Intent = "top_pullback"
	IntentTopRisk              Intent = "top_risk"
	IntentGoldenPit            Intent = "golden_pit"
	IntentLureDistribution     Intent = "lure_distribution"
	IntentShakeoutAccumulation Intent = "shakeout_accumulation"
	IntentHighDistribution     Intent = "high_distribution"
	IntentTrendAcceleration    Intent = "trend_acceleration"
	IntentMainWave             Intent = "main_wave"
	IntentStrongRally          Intent = "strong_rally"
	IntentBreakdown            Intent = "breakdown"
	IntentWashout              Intent = "washout"
	IntentObserve              Intent = "observe"
)

// Breakdown holds the per-category inputs of the weighted sum.
type Breakdown struct {
	Trend    float64       `json:"trend"`
	Volume   float64       `json:"volume"`
	Position float64       `json:"position"`
	Chip     float64       `json:"chip"`
	Money    float64       `json:"money"`
	Market   float64       `json:"market"`
	Factors  []FactorScore `json:"factors"`
}

// Get returns the category value by name.
func (b Breakdown) Get(c FactorCategory) float64 {
	switch c {
	case CategoryTrend:
		return b.Trend
	case CategoryVolume:
		return b.Volume
	case CategoryPosition:
		return b.Position
	case CategoryChip:
		return b.Chip
	case CategoryMoney:
		return b.Money
	case CategoryMarket:
		return b.Market
	}
	return 0
}

type FusionResult struct {
	Score      float64          `json:"score"`
	Intent     Intent           `json:"intent"`
	Regime     Regime           `json:"regime"`
	Breakdown  Breakdown        `json:"breakdown"`
	TechScore  float64          `json:"tech_score"`
	TechFix    float64          `json:"tech_fix"`
	TechSignal TechSignal       `json:"tech_signal"`
	FlowSignal FlowSignal       `json:"flow_signal"`
	ChipRisk   ChipRisk         `json:"chip_risk"`
	RSI        RSIReading       `json:"rsi"`
	MACD       MACDReading      `json:"macd"`
	Bollinger  BollingerReading `json:"bollinger"`
	// Sufficient is false when the bar window was too short to score at all.
	Sufficient bool `json:"sufficient"`
}
