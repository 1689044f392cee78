package decision

import (
	"fmt"
	"math"

	"Sentinel/internal/domain/models"
)

var (
	extremeSentiments = map[models.SentimentLevel]bool{
		models.SentimentExtremePanic:   true,
		models.SentimentCircuitBreaker: true,
		models.SentimentSystemic:       true,
	}
	vetoFundTrends = map[models.FundTrend]bool{
		models.FundTrendBigOutflow:        true,
		models.FundTrendHugeOutflow:       true,
		models.FundTrendContinuousOutflow: true,
	}
)

// VetoInputs are the account and market readings checked before arbitration.
// A zero BuySellRatio means unknown and never vetoes.
type VetoInputs struct {
	AccountDrawdown   float64
	ConsecutiveLosses int
	Sentiment         models.SentimentLevel
	RealtimeNet       float64
	BuySellRatio      float64
	FundTrend         models.FundTrend
}

// CheckVetoConditions returns one reason per tripped condition.
func CheckVetoConditions(in VetoInputs, th Thresholds) []string {
	var reasons []string
	if in.AccountDrawdown >= th.MaxDrawdown {
		reasons = append(reasons, fmt.Sprintf("account drawdown %.1f%% over threshold", in.AccountDrawdown*100))
	}
	if in.ConsecutiveLosses >= th.MaxConsecutiveLosses {
		reasons = append(reasons, fmt.Sprintf("%d consecutive losses, trading paused", in.ConsecutiveLosses))
	}
	if extremeSentiments[in.Sentiment] {
		reasons = append(reasons, fmt.Sprintf("market state: %s", in.Sentiment))
	}
	if in.RealtimeNet < -th.RealtimeSellNet {
		reasons = append(reasons, fmt.Sprintf("main-force net outflow %.0f", math.Abs(in.RealtimeNet)))
	}
	if in.BuySellRatio > 0 && in.BuySellRatio < th.MinBuySellRatio {
		reasons = append(reasons, fmt.Sprintf("buy/sell power ratio %.2f too low", in.BuySellRatio))
	}
	if vetoFundTrends[in.FundTrend] {
		reasons = append(reasons, fmt.Sprintf("fund trend: %s", in.FundTrend))
	}
	return reasons
}

// ApplyVetoConditions vetoes the session when any condition trips. It adds
// reasons only, not judgments.
func (c *Core) ApplyVetoConditions(in VetoInputs) []string {
	reasons := CheckVetoConditions(in, c.th)
	if len(reasons) > 0 {
		c.vetoed = true
		c.vetoReasons = append(c.vetoReasons, reasons...)
	}
	return reasons
}
