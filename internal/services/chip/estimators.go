// Package chip estimates the holder cost distribution from daily bars and
// turns it into a decision-level signal.
package chip

import (
	"math"
	"sort"

	"Sentinel/internal/domain/models"
	"Sentinel/internal/services/indicators"
)

const (
	SourceOfficial = "official"
	SourceVWAP     = "vwap"
	SourceDecay    = "turnover_decay"

	minBars         = 10
	vwapWindow      = 60
	decayLookback   = 120
	decayHalfLife   = 20
	defaultTurnover = 2.0

	vwapConfidence  = 0.6
	decayConfidence = 0.7
)

// Estimate is one source's reading before fusion.
type Estimate struct {
	Source        string
	AvgCost       float64
	WinnerRate    float64
	Percentiles   *models.CostPercentiles
	Concentration *float64
	Confidence    float64
}

// VWAP estimates average cost as amount over volume for the last 60 bars.
// Amount is in thousand CNY and volume in lots, hence the factor 10.
func VWAP(bars []models.Bar, price float64) (Estimate, bool) {
	if len(bars) < minBars || price <= 0 {
		return Estimate{}, false
	}
	if len(bars) > vwapWindow {
		bars = bars[:vwapWindow]
	}
	var amount, vol, winner float64
	for _, b := range bars {
		if b.Close <= 0 || b.Volume <= 0 {
			continue
		}
		amount += b.Amount
		vol += b.Volume
		if b.Close <= price {
			winner += b.Volume
		}
	}
	if vol <= 0 {
		return Estimate{}, false
	}
	return Estimate{
		Source:     SourceVWAP,
		AvgCost:    indicators.Round(amount*10/vol, 2),
		WinnerRate: indicators.Round(winner/vol*100, 2),
		Confidence: vwapConfidence,
	}, true
}

func decayWeight(daysAgo int, turnover float64) float64 {
	rate := math.Ln2 / decayHalfLife
	return math.Exp(-rate*float64(daysAgo)) * math.Exp(-turnover/100*0.5)
}

// Decay builds a volume histogram over closes where older and
// higher-turnover days weigh less.
func Decay(bars []models.Bar, price float64) (Estimate, bool) {
	if len(bars) < minBars || price <= 0 {
		return Estimate{}, false
	}
	if len(bars) > decayLookback {
		bars = bars[:decayLookback]
	}

	hist := make(map[float64]float64)
	var total float64
	for i, b := range bars {
		if b.Close <= 0 || b.Volume <= 0 {
			continue
		}
		turnover := b.TurnoverRate
		if turnover <= 0 {
			turnover = defaultTurnover
		}
		w := b.Volume * decayWeight(i, turnover)
		hist[indicators.Round(b.Close, 2)] += w
		total += w
	}
	if total <= 0 {
		return Estimate{}, false
	}

	prices := make([]float64, 0, len(hist))
	for p := range hist {
		prices = append(prices, p)
	}
	sort.Float64s(prices)

	targets := []float64{10, 30, 50, 70, 90}
	found := make([]float64, len(targets))
	next := 0
	var cumulative, cost, winner float64
	for _, p := range prices {
		v := hist[p]
		cost += p * v
		if p <= price {
			winner += v
		}
		cumulative += v
		pct := cumulative / total * 100
		for next < len(targets) && pct >= targets[next]-1e-9 {
			found[next] = p
			next++
		}
	}
	avg := cost / total
	for i := next; i < len(targets); i++ {
		found[i] = avg
	}

	conc := concentration(prices)
	return Estimate{
		Source:     SourceDecay,
		AvgCost:    indicators.Round(avg, 2),
		WinnerRate: indicators.Round(winner/total*100, 2),
		Percentiles: &models.CostPercentiles{
			P10: found[0], P30: found[1], P50: found[2], P70: found[3], P90: found[4],
		},
		Concentration: &conc,
		Confidence:    decayConfidence,
	}, true
}

// concentration is 100 minus the coefficient of variation of the distinct
// price levels, in percent.
func concentration(prices []float64) float64 {
	if len(prices) <= 1 {
		return 100
	}
	var sum float64
	for _, p := range prices {
		sum += p
	}
	mean := sum / float64(len(prices))
	if mean <= 0 {
		return 100
	}
	var sq float64
	for _, p := range prices {
		sq += (p - mean) * (p - mean)
	}
	std := math.Sqrt(sq / float64(len(prices)))
	return indicators.Round(math.Max(0, math.Min(100, (1-std/mean)*100)), 2)
}
