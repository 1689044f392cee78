package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority orders judgment sources. Lower value wins.
type Priority int

const (
	P0AccountRisk Priority = iota
	P1MarketExtreme
	P2RealtimeFund
	P3TrendChip
	P4Narrative
)

var priorityNames = [...]string{"P0_ACCOUNT_RISK", "P1_MARKET_EXTREME", "P2_REALTIME_FUND", "P3_TREND_CHIP", "P4_NARRATIVE"}

func (p Priority) Valid() bool { return p >= P0AccountRisk && p <= P4Narrative }

func (p Priority) String() string {
	if !p.Valid() {
		return fmt.Sprintf("P%d_UNKNOWN", int(p))
	}
	return priorityNames[p]
}

// CanVeto reports whether a bearish judgment at this priority vetoes the verdict.
func (p Priority) CanVeto() bool { return p <= P2RealtimeFund }

func (p Priority) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

func (p *Priority) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("priority: %w", err)
		}
		*p = Priority(n)
		if !p.Valid() {
			return fmt.Errorf("priority out of range: %d", n)
		}
		return nil
	}
	for i, name := range priorityNames {
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:2]) {
			*p = Priority(i)
			return nil
		}
	}
	return fmt.Errorf("unknown priority %q", s)
}

type Signal string

const (
	SignalStrongBuy  Signal = "STRONG_BUY"
	SignalBuy        Signal = "BUY"
	SignalHold       Signal = "HOLD"
	SignalReduce     Signal = "REDUCE"
	SignalSell       Signal = "SELL"
	SignalStrongSell Signal = "STRONG_SELL"
	SignalVeto       Signal = "VETO"
)

func (s Signal) Valid() bool {
	switch s {
	case SignalStrongBuy, SignalBuy, SignalHold, SignalReduce, SignalSell, SignalStrongSell, SignalVeto:
		return true
	}
	return false
}

func (s Signal) IsBuy() bool { return s == SignalBuy || s == SignalStrongBuy }

// IsVetoing is true for the signals that veto when raised at P0..P2.
func (s Signal) IsVetoing() bool {
	return s == SignalSell || s == SignalStrongSell || s == SignalVeto
}

// Judgment is one prioritized opinion collected during an evaluation.
type Judgment struct {
	Priority   Priority  `json:"priority"`
	Signal     Signal    `json:"signal"`
	Reason     string    `json:"reason"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

type ActionClass string

const (
	ActionGo    ActionClass = "go"
	ActionWatch ActionClass = "watch"
	ActionRun   ActionClass = "run"
)

// Display is the human label for an action class; never used for control flow.
func (a ActionClass) Display() string {
	switch a {
	case ActionGo:
		return "worth attention"
	case ActionRun:
		return "do not buy"
	default:
		return "wait and see"
	}
}

// Verdict is the final, immutable output of the decision core.
type Verdict struct {
	ID            string      `json:"id"`
	Instrument    string      `json:"instrument"`
	Action        string      `json:"action"`
	ActionClass   ActionClass `json:"action_class"`
	Confidence    float64     `json:"confidence"`
	PrimaryReason string      `json:"primary_reason"`
	VetoReasons   []string    `json:"veto_reasons"`
	AllInputs     []Judgment  `json:"all_inputs"`
	IsVetoed      bool        `json:"is_vetoed"`
	Timestamp     time.Time   `json:"timestamp"`
}

// HasJudgment reports whether any input matches priority, signal and source.
func (v Verdict) HasJudgment(p Priority, s Signal, source string) bool {
	for _, j := range v.AllInputs {
		if j.Priority == p && j.Signal == s && j.Source == source {
			return true
		}
	}
	return false
}
