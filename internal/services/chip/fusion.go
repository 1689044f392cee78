package chip

import (
	"math"
	"strings"

	"Sentinel/internal/domain/models"
	"Sentinel/internal/services/indicators"
)

const (
	officialWeight = 0.5
	vwapWeight     = 0.3
	decayWeightPct = 0.2
)

// Fuse blends the available estimates. Without an official reading its
// weight is redistributed 60/40 to vwap and decay.
func Fuse(official *Estimate, vwap *Estimate, decay *Estimate) models.ChipDistribution {
	type weighted struct {
		e *Estimate
		w float64
	}
	var parts []weighted
	if official != nil {
		parts = append(parts, weighted{official, officialWeight})
	}
	if vwap != nil {
		w := vwapWeight
		if official == nil {
			w += officialWeight * 0.6
		}
		parts = append(parts, weighted{vwap, w})
	}
	if decay != nil {
		w := decayWeightPct
		if official == nil {
			w += officialWeight * 0.4
		}
		parts = append(parts, weighted{decay, w})
	}
	if len(parts) == 0 {
		return models.ChipDistribution{Valid: false, Concentration: 50}
	}

	var total float64
	for _, p := range parts {
		total += p.w
	}
	var avg, winner float64
	sources := make([]string, 0, len(parts))
	for _, p := range parts {
		avg += p.e.AvgCost * p.w / total
		winner += p.e.WinnerRate * p.w / total
		sources = append(sources, p.e.Source)
	}

	out := models.ChipDistribution{
		AvgCost:       indicators.Round(avg, 2),
		WinnerRate:    indicators.Round(winner, 2),
		Concentration: 50,
		Source:        strings.Join(sources, "+"),
		Valid:         true,
	}
	percentiles := models.CostPercentiles{P10: out.AvgCost, P30: out.AvgCost, P50: out.AvgCost, P70: out.AvgCost, P90: out.AvgCost}
	for _, p := range parts {
		if p.e.Concentration != nil {
			out.Concentration = *p.e.Concentration
		}
		if p.e.Percentiles != nil {
			percentiles = *p.e.Percentiles
		}
	}
	out.CostPercentiles = percentiles

	conf := 0.3 + 0.25*float64(len(parts))
	if official != nil {
		conf += 0.2
	}
	out.Confidence = indicators.Round(math.Min(1, conf), 2)
	return out
}
