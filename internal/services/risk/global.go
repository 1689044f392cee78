// Package risk holds the account-level kill switch and the stateless risk
// calculators around it.
package risk

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"Sentinel/internal/domain/models"
)

type Limits struct {
	MaxConsecutiveLosses int
	MaxDrawdown          float64 // fraction, e.g. 0.10
}

func DefaultLimits() Limits {
	return Limits{MaxConsecutiveLosses: 2, MaxDrawdown: 0.10}
}

func (l Limits) Validate() error {
	if l.MaxConsecutiveLosses < 1 {
		return fmt.Errorf("max consecutive losses must be positive, got %d", l.MaxConsecutiveLosses)
	}
	if l.MaxDrawdown <= 0 || l.MaxDrawdown > 1 {
		return fmt.Errorf("max drawdown must be within (0,1], got %v", l.MaxDrawdown)
	}
	return nil
}

// GlobalState is the process-wide kill switch. Writers serialize on mu;
// readers load the latest immutable snapshot without locking. Once
// tripped it stays on until Deactivate.
type GlobalState struct {
	limits Limits
	now    func() time.Time

	mu   sync.Mutex
	cur  models.RiskSnapshot
	snap atomic.Pointer[models.RiskSnapshot]

	onChange func(models.RiskSnapshot)
}

func NewGlobalState(limits Limits, now func() time.Time) *GlobalState {
	if now == nil {
		now = time.Now
	}
	g := &GlobalState{limits: limits, now: now}
	g.cur.UpdatedAt = now()
	g.publish()
	return g
}

// OnChange registers a hook called after every mutation while the write
// lock is held. The hook must not call back into g. Must be set before the
// state is shared.
func (g *GlobalState) OnChange(fn func(models.RiskSnapshot)) { g.onChange = fn }

func (g *GlobalState) Limits() Limits { return g.limits }

func (g *GlobalState) Snapshot() models.RiskSnapshot { return *g.snap.Load() }

func (g *GlobalState) IsTradingAllowed() (bool, string) {
	s := g.snap.Load()
	if s.KillSwitchActive {
		return false, s.KillReason
	}
	return true, ""
}

func (g *GlobalState) RecordTradeResult(isWin bool, pnlPct float64) {
	g.mutate(func(s *models.RiskSnapshot) {
		s.LastPnLPct = pnlPct
		if isWin {
			s.ConsecutiveLosses = 0
			return
		}
		s.ConsecutiveLosses++
		if s.ConsecutiveLosses >= g.limits.MaxConsecutiveLosses {
			g.trip(s, fmt.Sprintf("%d consecutive losses", s.ConsecutiveLosses))
		}
	})
}

// UpdateDrawdown ignores a non-positive peak.
func (g *GlobalState) UpdateDrawdown(current, peak float64) {
	if peak <= 0 {
		return
	}
	g.mutate(func(s *models.RiskSnapshot) {
		s.AccountDrawdown = (peak - current) / peak
		if s.AccountDrawdown >= g.limits.MaxDrawdown {
			g.trip(s, fmt.Sprintf("account drawdown %.1f%%", s.AccountDrawdown*100))
		}
	})
}

func (g *GlobalState) Activate(reason string) {
	g.mutate(func(s *models.RiskSnapshot) { g.trip(s, reason) })
}

// Deactivate clears the switch and the loss streak.
func (g *GlobalState) Deactivate() {
	g.mutate(func(s *models.RiskSnapshot) {
		s.KillSwitchActive = false
		s.KillReason = ""
		s.KillTimestamp = time.Time{}
		s.ConsecutiveLosses = 0
	})
}

// trip keeps the first reason and time while the switch is on.
func (g *GlobalState) trip(s *models.RiskSnapshot, reason string) {
	if s.KillSwitchActive {
		return
	}
	s.KillSwitchActive = true
	s.KillReason = reason
	s.KillTimestamp = g.now()
}

func (g *GlobalState) mutate(fn func(*models.RiskSnapshot)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.cur)
	g.cur.UpdatedAt = g.now()
	snap := g.publish()

	// observers see mutations in the order they were published
	if g.onChange != nil {
		g.onChange(snap)
	}
}

func (g *GlobalState) publish() models.RiskSnapshot {
	s := g.cur
	g.snap.Store(&s)
	return s
}
