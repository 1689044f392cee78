// Package factors holds the pure scoring functions fused into the composite
// score. Every function returns a tagged result and never panics; bars are
// most-recent-first.
package factors

import (
	"fmt"
	"math"

	"Sentinel/internal/domain/models"
	"Sentinel/internal/services/indicators"
)

const (
	minTrendBars    = 60
	minMomentumBars = 20
	minVolumeBars   = 10
	minPatternBars  = 5
	minFlowRecords  = 3
	minSyncBars     = 5
)

func MAAlignment(bars []models.Bar) models.FactorResult {
	if len(bars) < minTrendBars {
		return models.InsufficientData()
	}
	closes := models.Closes(bars)
	ma5, _ := indicators.SMA(closes, 5)
	ma10, _ := indicators.SMA(closes, 10)
	ma20, _ := indicators.SMA(closes, 20)
	ma60, _ := indicators.SMA(closes, 60)

	switch {
	case ma5 > ma10 && ma10 > ma20 && ma20 > ma60:
		return models.Ok(95, "full bull alignment")
	case ma5 > ma10 && ma10 > ma20:
		return models.Ok(80, "medium-term bull")
	case ma5 > ma10:
		return models.Ok(65, "short-term up")
	case ma5 < ma10 && ma10 < ma20 && ma20 < ma60:
		return models.Ok(10, "full bear alignment")
	case ma5 < ma10 && ma10 < ma20:
		return models.Ok(25, "medium-term bear")
	case ma5 < ma10:
		return models.Ok(40, "short-term weak")
	}
	return models.Ok(50, "consolidation")
}

func Momentum(bars []models.Bar) models.FactorResult {
	if len(bars) < minMomentumBars {
		return models.InsufficientData()
	}
	closes := models.Closes(bars)
	roc5, _ := indicators.ROC(closes, 4)
	roc10, _ := indicators.ROC(closes, 9)
	m := roc5*0.6 + roc10*0.4

	var label string
	switch {
	case m > 5:
		label = "strong rise"
	case m > 0:
		label = "mild rise"
	case m > -5:
		label = "mild fall"
	default:
		label = "sharp fall"
	}
	return models.Ok(50+m*3, label)
}

func Position(bars []models.Bar) models.FactorResult {
	if len(bars) < minTrendBars {
		return models.InsufficientData()
	}
	cur := bars[0].Close
	high, low := cur, cur
	for _, b := range bars[:minTrendBars] {
		high = math.Max(high, b.Close)
		low = math.Min(low, b.Close)
	}
	if high <= low {
		return models.Degraded("degenerate range")
	}

	pct := (cur - low) / (high - low) * 100
	var label string
	switch {
	case pct < 20:
		label = fmt.Sprintf("deep low (%.0f%% off high)", (high-cur)/high*100)
	case pct < 40:
		label = "relatively low"
	case pct < 60:
		label = "mid range"
	case pct < 80:
		label = "relatively high"
	default:
		label = "near 60-day high"
	}
	return models.Ok(100-pct, label)
}

func VolumeRatio(bars []models.Bar) models.FactorResult {
	if len(bars) < minVolumeBars {
		return models.InsufficientData()
	}
	var sum float64
	for _, b := range bars[1:6] {
		sum += b.Volume
	}
	avg5 := sum / 5
	if avg5 <= 0 {
		return models.Degraded("no reference volume")
	}

	r := bars[0].Volume / avg5
	switch {
	case r >= 3:
		return models.Ok(95, fmt.Sprintf("huge volume (%.1fx)", r))
	case r >= 2:
		return models.Ok(85, fmt.Sprintf("heavy volume (%.1fx)", r))
	case r >= 1.5:
		return models.Ok(75, fmt.Sprintf("rising volume (%.1fx)", r))
	case r >= 1:
		return models.Ok(60, "mild expansion")
	case r >= 0.7:
		return models.Ok(45, "slight contraction")
	}
	return models.Ok(25, "volume dried up")
}

// VolumePattern scores price/volume agreement over the three most recent day pairs.
func VolumePattern(bars []models.Bar) models.FactorResult {
	if len(bars) < minPatternBars {
		return models.InsufficientData()
	}
	score := 50.0
	label := "flat price-volume"
	for i := 0; i < 3; i++ {
		cur, prev := bars[i], bars[i+1]
		if prev.Close <= 0 {
			continue
		}
		pChg := (cur.Close - prev.Close) / prev.Close * 100
		vChg := 0.0
		if prev.Volume > 0 {
			vChg = (cur.Volume - prev.Volume) / prev.Volume * 100
		}

		switch {
		case pChg > 0 && vChg > 10:
			score += 10
			if i == 0 {
				label = "price up on volume"
			}
		case pChg > 0 && vChg < -10:
			score -= 5
			if i == 0 {
				label = "price up on thin volume"
			}
		case pChg < 0 && vChg < -10:
			score += 5
			if i == 0 {
				label = "pullback on thin volume"
			}
		}
	}
	return models.Ok(score, label)
}

func ChipProfit(chip *models.ChipDistribution) models.FactorResult {
	if chip == nil || !chip.Valid {
		return models.InsufficientData()
	}
	w := chip.WinnerRate
	switch {
	case w >= 90:
		return models.Ok(90, fmt.Sprintf("controlled float (%.0f%%)", w))
	case w >= 70:
		return models.Ok(75, fmt.Sprintf("high profit ratio (%.0f%%)", w))
	case w >= 40:
		return models.Ok(55, fmt.Sprintf("balanced (%.0f%%)", w))
	case w >= 15:
		return models.Ok(35, fmt.Sprintf("heavy trapped supply (%.0f%%)", w))
	}
	return models.Ok(50, fmt.Sprintf("oversold zone (%.0f%%)", w))
}

// MainFlow scores the 3-day main-force net inflow (10k CNY).
func MainFlow(flow []models.MoneyFlowRecord) models.FactorResult {
	if len(flow) < minFlowRecords {
		return models.InsufficientData()
	}
	var flow3 float64
	consecutive := 0
	streak := true
	for _, f := range flow[:3] {
		flow3 += f.MainNetInflow
		if streak && f.MainNetInflow > 0 {
			consecutive++
		} else {
			streak = false
		}
	}

	score := 50.0
	label := "capital waiting"
	switch {
	case flow3 > 5000:
		score += 35
		label = fmt.Sprintf("3-day inflow %.0f", flow3)
	case flow3 > 2000:
		score += 25
	case flow3 > 0:
		score += 10
	case flow3 > -2000:
		score -= 10
	default:
		score -= 25
		label = fmt.Sprintf("3-day outflow %.0f", -flow3)
	}
	if consecutive >= 3 {
		score += 15
		label += ", consecutive inflow"
	}
	return models.Ok(score, label)
}

// RealtimeMoney scores an intraday snapshot; it replaces MainFlow when valid.
func RealtimeMoney(snap *models.RealtimeSnapshot) models.FactorResult {
	if snap == nil || !snap.Valid {
		return models.InsufficientData()
	}
	net := snap.MainNet
	switch {
	case net > 5000:
		return models.Ok(95, fmt.Sprintf("realtime inflow %.0f", net))
	case net > 2000:
		return models.Ok(80, fmt.Sprintf("realtime inflow %.0f", net))
	case net > 500:
		return models.Ok(65, fmt.Sprintf("realtime mild inflow %.0f", net))
	case net > -500:
		return models.Ok(50, "realtime balanced")
	case net > -2000:
		return models.Ok(35, fmt.Sprintf("realtime mild outflow %.0f", -net))
	}
	return models.Ok(15, fmt.Sprintf("realtime heavy outflow %.0f", -net))
}

// MarketSync compares the 5-day change sum of the stock against the index.
func MarketSync(bars, market []models.Bar) models.FactorResult {
	if len(bars) < minSyncBars || len(market) < minSyncBars {
		return models.InsufficientData()
	}
	var stock, index float64
	for i := 0; i < minSyncBars; i++ {
		stock += bars[i].ChangePct
		index += market[i].ChangePct
	}
	alpha := stock - index

	var label string
	switch {
	case alpha > 3:
		label = fmt.Sprintf("outperforming +%.1f%%", alpha)
	case alpha > 0:
		label = "slightly stronger"
	case alpha > -3:
		label = "slightly weaker"
	default:
		label = fmt.Sprintf("underperforming %.1f%%", alpha)
	}
	return models.Ok(50+alpha*5, label)
}
