// Package realtime merges per-source readings into one snapshot.
package realtime

import (
	"fmt"
	"sort"
	"time"

	"Sentinel/internal/domain/models"
)

const (
	flowConfidence  = 40
	powerConfidence = 30
	tapeConfidence  = 30
)

const (
	RiskNormal       = "funds normal"
	RiskDistribution = "main force distributing"
	RiskDivergence   = "data divergence"
	RiskOutflow      = "continuous outflow"
	RiskWashout      = "possible washout"
	RiskGrabbing     = "main force grabbing"
)

// ClassifyTrend buckets a main-force net in 10k CNY.
func ClassifyTrend(net float64) models.FundTrend {
	switch {
	case net > 500:
		return models.FundTrendBigInflow
	case net > 100:
		return models.FundTrendInflow
	case net < -500:
		return models.FundTrendBigOutflow
	case net < -100:
		return models.FundTrendOutflow
	}
	return models.FundTrendBalanced
}

// Merge combines readings. Flow comes from the flow source, power from the
// book source and the buy/sell ratio from the tape source; each adds to
// confidence. With no usable reading the snapshot is Valid=false.
func Merge(code string, readings []models.SourceReading, now time.Time) models.RealtimeSnapshot {
	snap := models.RealtimeSnapshot{
		Code:         code,
		PowerRatio:   1,
		BuySellRatio: 1,
		FundTrend:    models.FundTrendBalanced,
		RiskSignal:   RiskNormal,
		UpdatedAt:    now,
	}

	var flow, power, tape *models.SourceReading
	for i := range readings {
		r := &readings[i]
		switch {
		case r.HasFlow && flow == nil:
			flow = r
		case r.HasPower && power == nil:
			power = r
		case r.HasTape && tape == nil:
			tape = r
		}
	}

	if flow != nil {
		snap.MainNet = flow.MainNet
		snap.MainInflow = flow.MainInflow
		snap.MainOutflow = flow.MainOutflow
		snap.SuperBigNet = flow.SuperBigNet
		snap.BigNet = flow.BigNet
		snap.MidNet = flow.MidNet
		snap.Sources = append(snap.Sources, flow.Source)
		snap.Confidence += flowConfidence
	}
	if power != nil {
		snap.PowerRatio = power.PowerRatio
		snap.Price = power.Price
		snap.ChangePct = power.ChangePct
		snap.Sources = append(snap.Sources, power.Source)
		snap.Confidence += powerConfidence
	}
	if tape != nil {
		snap.BuySellRatio = tape.BuySellRatio
		if snap.Price == 0 {
			snap.Price = tape.Price
			snap.ChangePct = tape.ChangePct
		}
		snap.Sources = append(snap.Sources, tape.Source)
		snap.Confidence += tapeConfidence
	}
	if len(snap.Sources) == 0 {
		snap.RiskSignal = "no source available"
		return snap
	}
	sort.Strings(snap.Sources)
	snap.Valid = true
	snap.FundTrend = ClassifyTrend(snap.MainNet)
	snap.RiskSignal = riskSignal(snap.MainNet, snap.PowerRatio, power)
	return snap
}

// riskSignal applies the rules in order; later matches override earlier ones.
func riskSignal(net, powerRatio float64, book *models.SourceReading) string {
	signal := RiskNormal
	if net < -500 && powerRatio < 0.8 {
		signal = RiskDistribution
	}
	if book != nil && book.ChangePct < -3 {
		if net > 0 {
			signal = RiskDivergence
		} else {
			signal = RiskOutflow
		}
	}
	if book != nil && book.ChangePct < -2 && powerRatio > 1.5 {
		signal = RiskWashout
	}
	if net > 1000 && powerRatio > 1.2 {
		signal = RiskGrabbing
	}
	return signal
}

// Alert describes how far the current net moved from a baseline such as
// yesterday's close.
type Alert struct {
	Baseline float64 `json:"baseline_net"`
	Change   float64 `json:"net_change"`
	Message  string  `json:"message,omitempty"`
}

func CompareBaseline(snap models.RealtimeSnapshot, baseline float64) Alert {
	change := snap.MainNet - baseline
	a := Alert{Baseline: baseline, Change: change}
	switch {
	case change < -500:
		a.Message = fmt.Sprintf("sharp outflow, %.0f below baseline", -change)
	case change < -100:
		a.Message = "outflow accelerating"
	case change > 500:
		a.Message = fmt.Sprintf("sharp inflow, %.0f above baseline", change)
	case change > 100:
		a.Message = "inflow continuing"
	}
	return a
}
