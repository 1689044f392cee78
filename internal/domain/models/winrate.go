package models

type WinRateSignal string

const (
	WinRateStrongBullish WinRateSignal = "strong_bullish"
	WinRateBullish       WinRateSignal = "bullish"
	WinRateNeutral       WinRateSignal = "neutral"
	WinRateLeanBearish   WinRateSignal = "lean_bearish"
	WinRateBearish       WinRateSignal = "bearish"
)

type WinRateResult struct {
	WinProbability  float64       `json:"win_probability"`
	ExpectedReturn  float64       `json:"expected_return"`
	MaxDrawdownRisk float64       `json:"max_drawdown_risk"`
	Signal          WinRateSignal `json:"signal"`
	Confidence      float64       `json:"confidence"`
	FactorsUsed     []string      `json:"factors_used"`
}
