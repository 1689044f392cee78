package models

// EvaluationInput is everything one evaluation needs besides the shared
// risk and regime state.
type EvaluationInput struct {
	Instrument string            `json:"instrument" validate:"required"`
	Bars       []Bar             `json:"bars" validate:"required,min=1"`
	Flow       []MoneyFlowRecord `json:"flow"`
	MarketBars []Bar             `json:"market_bars"`
	Chip       *ChipDistribution `json:"chip,omitempty"`
	Realtime   *RealtimeSnapshot `json:"realtime,omitempty"`
	Breadth    *Breadth          `json:"breadth,omitempty"`
}

// Evaluation is the full result of one evaluate call. Only Verdict drives
// action; Narrative is derived text.
type Evaluation struct {
	Verdict        Verdict         `json:"verdict"`
	Fusion         FusionResult    `json:"fusion"`
	WinRate        WinRateResult   `json:"win_rate"`
	WinRateDetail  WinRateResult   `json:"win_rate_detail"`
	Chip           ChipDecision    `json:"chip"`
	Sentiment      *SentimentIndex `json:"sentiment,omitempty"`
	Risk           RiskSnapshot    `json:"risk"`
	Narrative      string          `json:"narrative"`
	Contradictions []string        `json:"contradictions,omitempty"`
}
