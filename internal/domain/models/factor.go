package models

type FactorCategory string

const (
	CategoryTrend    FactorCategory = "trend"
	CategoryVolume   FactorCategory = "volume"
	CategoryPosition FactorCategory = "position"
	CategoryChip     FactorCategory = "chip"
	CategoryMoney    FactorCategory = "money"
	CategoryMarket   FactorCategory = "market"
)

// Categories lists the fusion categories in a stable order.
var Categories = []FactorCategory{
	CategoryTrend, CategoryVolume, CategoryPosition, CategoryChip, CategoryMoney, CategoryMarket,
}

const (
	NeutralScore          = 50.0
	LabelInsufficientData = "insufficient data"
)

// FactorResult is either Ok(score, label) or InsufficientData.
type FactorResult struct {
	score      float64
	label      string
	sufficient bool
}

func Ok(score float64, label string) FactorResult {
	return FactorResult{score: ClampScore(score), label: label, sufficient: true}
}

func InsufficientData() FactorResult {
	return FactorResult{score: NeutralScore, label: LabelInsufficientData}
}

// Degraded is a neutral result for inputs that exist but cannot be scored
// (zero divisors, empty ranges).
func Degraded(label string) FactorResult {
	return FactorResult{score: NeutralScore, label: label, sufficient: true}
}

func (r FactorResult) Score() float64 { return r.score }

func (r FactorResult) Label() string { return r.label }

func (r FactorResult) Sufficient() bool { return r.sufficient }

// FactorScore is a named factor output as it appears in a fusion breakdown.
type FactorScore struct {
	Name     string         `json:"name"`
	Category FactorCategory `json:"category"`
	Score    float64        `json:"score"`
	Label    string         `json:"label"`
}

func NewFactorScore(name string, category FactorCategory, r FactorResult) FactorScore {
	return FactorScore{Name: name, Category: category, Score: r.Score(), Label: r.Label()}
}

// ClampScore bounds a score to [0,100].
func ClampScore(v float64) float64 {
	switch {
	case v != v: // NaN
		return NeutralScore
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
