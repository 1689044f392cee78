package chip

import (
	"fmt"

	"Sentinel/internal/domain/models"
	"Sentinel/internal/services/indicators"
)

// Signal grades a distribution for the decision core.
func Signal(c models.ChipDistribution, price float64) models.ChipDecision {
	if !c.Valid {
		return models.ChipDecision{Signal: models.ChipNeutral, RiskScore: 50, Reason: "no chip data"}
	}
	w := c.WinnerRate
	premium := 0.0
	if price > 0 && c.AvgCost > 0 {
		premium = indicators.Round((price-c.AvgCost)/c.AvgCost*100, 2)
	}
	d := models.ChipDecision{Premium: premium}

	switch {
	case w >= 95 && premium > 20:
		d.Signal, d.RiskScore = models.ChipVeto, 90
		d.Reason = fmt.Sprintf("profit ratio %.0f%% with %.0f%% premium, heavy selling pressure", w, premium)
	case w >= 85:
		d.Signal, d.RiskScore = models.ChipWarning, 70
		d.Reason = fmt.Sprintf("profit ratio %.0f%%, elevated position", w)
	case w <= 20:
		d.Signal, d.RiskScore = models.ChipConfirm, 30
		d.Reason = fmt.Sprintf("profit ratio %.0f%%, oversold zone", w)
	case c.Concentration >= 80 && w >= 30 && w <= 70:
		d.Signal, d.RiskScore = models.ChipConfirm, 40
		d.Reason = fmt.Sprintf("concentration %.0f%%, chips held tight", c.Concentration)
	default:
		d.Signal, d.RiskScore = models.ChipNeutral, 50
		d.Reason = fmt.Sprintf("profit ratio %.0f%%, neutral", w)
	}
	return d
}
