// Package decision arbitrates prioritized judgments into one verdict.
// A bearish judgment from P0..P2 vetoes the session permanently.
package decision

import (
	"fmt"
	"math"
	"sort"
	"time"

	"Sentinel/internal/domain/models"
)

const (
	reasonNoSignal = "no valid signal"
	reasonVetoed   = "veto factor present, avoid aggression"
	reasonMixed    = "insufficient or mixed signal"
)

// Thresholds tune the verdict tally and the veto conditions.
type Thresholds struct {
	BuyMargin            float64
	SellMargin           float64
	MinBuyConfirmations  int
	MinSellConfirmations int

	MaxDrawdown          float64
	MaxConsecutiveLosses int
	RealtimeSellNet      float64 // 10k CNY, compared as -RealtimeSellNet
	RealtimeBuyNet       float64
	MinBuySellRatio      float64
	MinWinProbability    float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		BuyMargin:            0.5,
		SellMargin:           0.3,
		MinBuyConfirmations:  2,
		MinSellConfirmations: 2,
		MaxDrawdown:          0.15,
		MaxConsecutiveLosses: 3,
		RealtimeSellNet:      2000,
		RealtimeBuyNet:       2000,
		MinBuySellRatio:      0.5,
		MinWinProbability:    0.45,
	}
}

func (t Thresholds) Validate() error {
	if t.BuyMargin < 0 || t.SellMargin < 0 {
		return fmt.Errorf("margins must be non-negative")
	}
	if t.MinBuyConfirmations < 1 || t.MinSellConfirmations < 1 {
		return fmt.Errorf("confirmation counts must be positive")
	}
	if t.MaxDrawdown <= 0 || t.MaxDrawdown > 1 {
		return fmt.Errorf("max drawdown must be within (0,1], got %v", t.MaxDrawdown)
	}
	if t.MinWinProbability < 0 || t.MinWinProbability > 1 {
		return fmt.Errorf("min win probability must be within [0,1], got %v", t.MinWinProbability)
	}
	return nil
}

// Core collects judgments for a single evaluation. It is not safe for
// concurrent use and is discarded after Verdict.
type Core struct {
	th          Thresholds
	now         func() time.Time
	judgments   []models.Judgment
	vetoed      bool
	vetoReasons []string
}

func NewCore(th Thresholds, now func() time.Time) *Core {
	if now == nil {
		now = time.Now
	}
	return &Core{th: th, now: now}
}

func (c *Core) Thresholds() Thresholds { return c.th }

// Add records a judgment. Confidence outside [0,1] is clamped.
func (c *Core) Add(j models.Judgment) error {
	if !j.Priority.Valid() {
		return fmt.Errorf("invalid priority %d", int(j.Priority))
	}
	if !j.Signal.Valid() {
		return fmt.Errorf("invalid signal %q", j.Signal)
	}
	switch {
	case math.IsNaN(j.Confidence) || j.Confidence < 0:
		j.Confidence = 0
	case j.Confidence > 1:
		j.Confidence = 1
	}
	if j.Timestamp.IsZero() {
		j.Timestamp = c.now()
	}
	c.judgments = append(c.judgments, j)

	if j.Priority.CanVeto() && j.Signal.IsVetoing() {
		c.vetoed = true
		c.vetoReasons = append(c.vetoReasons, fmt.Sprintf("[%s] %s", j.Priority, j.Reason))
	}
	return nil
}

// Judge is shorthand for Add with a fresh judgment.
func (c *Core) Judge(p models.Priority, s models.Signal, reason string, confidence float64, source string) error {
	return c.Add(models.Judgment{Priority: p, Signal: s, Reason: reason, Confidence: confidence, Source: source})
}

func (c *Core) IsVetoed() bool { return c.vetoed }

func (c *Core) VetoReasons() []string { return append([]string(nil), c.vetoReasons...) }

// Verdict arbitrates everything added so far.
func (c *Core) Verdict(instrument string) models.Verdict {
	v := models.Verdict{
		Instrument: instrument,
		Timestamp:  c.now(),
		IsVetoed:   c.vetoed,
	}
	if len(c.judgments) == 0 {
		return c.finish(v, models.ActionWatch, 0.5, reasonNoSignal)
	}

	sorted := append([]models.Judgment(nil), c.judgments...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
	v.AllInputs = sorted

	if c.vetoed {
		v.VetoReasons = c.VetoReasons()
		for _, j := range sorted {
			if !j.Signal.IsVetoing() {
				continue
			}
			if j.Signal == models.SignalStrongSell {
				return c.finish(v, models.ActionRun, 0.9, j.Reason)
			}
			break
		}
		return c.finish(v, models.ActionWatch, 0.7, reasonVetoed)
	}

	var buy, sell float64
	var buys, sells int
	for _, j := range sorted {
		w := 1.0 / float64(int(j.Priority)+1)
		switch j.Signal {
		case models.SignalBuy, models.SignalStrongBuy:
			buy += w * j.Confidence
			buys++
		case models.SignalSell, models.SignalStrongSell:
			sell += w * j.Confidence
			sells++
		case models.SignalReduce:
			sell += w * j.Confidence
		}
	}

	switch {
	case buy > sell+c.th.BuyMargin && buys >= c.th.MinBuyConfirmations:
		return c.finish(v, models.ActionGo, math.Min(buy, 1),
			fmt.Sprintf("%s (%d signals confirmed)", sorted[0].Reason, buys))
	case sell > buy+c.th.SellMargin || sells >= c.th.MinSellConfirmations:
		return c.finish(v, models.ActionWatch, math.Min(sell, 1), sorted[0].Reason)
	}
	return c.finish(v, models.ActionWatch, 0.5, reasonMixed)
}

func (c *Core) finish(v models.Verdict, class models.ActionClass, conf float64, reason string) models.Verdict {
	v.ActionClass = class
	v.Action = class.Display()
	v.Confidence = conf
	v.PrimaryReason = reason
	return v
}
