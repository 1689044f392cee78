package risk

import (
	"fmt"
	"math"

	"Sentinel/internal/domain/models"
	"Sentinel/internal/services/indicators"
)

// SentimentIndex scores market breadth on 0..100 starting from 50.
func SentimentIndex(b models.Breadth) models.SentimentIndex {
	total := b.UpCount + b.DownCount
	if total == 0 {
		return models.SentimentIndex{
			Score:      50,
			Level:      models.SentimentNeutral,
			Signals:    []string{"no data"},
			Suggestion: "no breadth data",
		}
	}

	score := 50.0
	var signals []string
	add := func(delta float64, format string, args ...any) {
		score += delta
		signals = append(signals, fmt.Sprintf(format, args...))
	}

	upRatio := float64(b.UpCount) / float64(total) * 100
	switch {
	case upRatio > 70:
		add(15, "broad advance %.0f%%", upRatio)
	case upRatio > 60:
		add(8, "advancers lead %.0f%%", upRatio)
	case upRatio < 30:
		add(-15, "broad decline %.0f%% up", upRatio)
	case upRatio < 40:
		add(-8, "decliners lead %.0f%% up", upRatio)
	}

	switch {
	case b.LimitUp > 100:
		add(10, "%d limit-ups", b.LimitUp)
	case b.LimitUp > 50:
		add(5, "%d limit-ups", b.LimitUp)
	}
	switch {
	case b.LimitDown > 100:
		add(-10, "%d limit-downs", b.LimitDown)
	case b.LimitDown > 50:
		add(-5, "%d limit-downs", b.LimitDown)
	}

	volRatio := 1.0
	if b.AvgVolume > 0 {
		volRatio = b.Volume / b.AvgVolume
	}
	switch {
	case volRatio > 1.5:
		add(10, "heavy turnover %.2fx", volRatio)
	case volRatio > 1.2:
		add(5, "rising turnover %.2fx", volRatio)
	case volRatio < 0.7:
		add(-10, "thin turnover %.2fx", volRatio)
	case volRatio < 0.9:
		add(-5, "soft turnover %.2fx", volRatio)
	}

	switch n := b.NorthboundNet; {
	case n > 100:
		add(15, "northbound inflow %.0fm", n)
	case n > 50:
		add(8, "northbound inflow %.0fm", n)
	case n < -100:
		add(-15, "northbound outflow %.0fm", -n)
	case n < -50:
		add(-8, "northbound outflow %.0fm", -n)
	}

	score = math.Max(0, math.Min(100, score))
	level, suggestion := sentimentLevel(score)
	return models.SentimentIndex{
		Score:       score,
		Level:       level,
		Signals:     signals,
		UpRatio:     indicators.Round(upRatio, 1),
		VolumeRatio: indicators.Round(volRatio, 2),
		Suggestion:  suggestion,
	}
}

func sentimentLevel(score float64) (models.SentimentLevel, string) {
	switch {
	case score >= 80:
		return models.SentimentExtremeOptimism, "euphoria, avoid chasing"
	case score >= 65:
		return models.SentimentOptimism, "risk-on, keep stops tight"
	case score <= 20:
		return models.SentimentExtremePanic, "panic, stand aside"
	case score <= 35:
		return models.SentimentPanic, "fearful, small size only"
	}
	return models.SentimentNeutral, "neutral"
}
