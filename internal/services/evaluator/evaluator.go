// Package evaluator runs one full arbitration: judgments from every layer,
// the verdict, the win-rate gate and the narrative.
package evaluator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"Sentinel/internal/domain/models"
	"Sentinel/internal/domain/service"
	"Sentinel/internal/services/chip"
	"Sentinel/internal/services/decision"
	"Sentinel/internal/services/fusion"
	"Sentinel/internal/services/indicators"
	"Sentinel/internal/services/risk"
	"Sentinel/internal/services/winrate"
)

const (
	SourceGlobalRisk      = "global_risk"
	SourceMarketSentiment = "market_sentiment"
	SourceRealtimeFund    = "realtime_fund"
	SourceScore           = "score"
	SourceChip            = "chip"

	ReasonWinRateGate = "win probability below gate"

	scoreBuyAbove  = 70
	scoreSellBelow = 35

	volatilityWindow = 20
)

var verdictNamespace = uuid.MustParse("5b0e7a54-3c1d-4f55-9a61-2f8d4c7e9b13")

// Evaluator is safe for concurrent use; each call builds its own core.
type Evaluator struct {
	engine *fusion.Engine
	th     decision.Thresholds
	risk   service.RiskState
	regime service.RegimeHolder
	now    func() time.Time
	newID  func() string // nil derives the ID from the evaluation
}

type Option func(*Evaluator)

func WithClock(now func() time.Time) Option { return func(e *Evaluator) { e.now = now } }

func WithIDs(newID func() string) Option { return func(e *Evaluator) { e.newID = newID } }

func New(engine *fusion.Engine, th decision.Thresholds, rs service.RiskState, rh service.RegimeHolder, opts ...Option) *Evaluator {
	e := &Evaluator{
		engine: engine,
		th:     th,
		risk:   rs,
		regime: rh,
		now:    time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate never fails; missing inputs degrade to neutral readings. The
// verdict ID is a name-based UUID over the input, the risk and regime state
// and the verdict time, so equal evaluations carry equal IDs.
func (e *Evaluator) Evaluate(in *models.EvaluationInput) models.Evaluation {
	riskSnap := e.risk.Snapshot()
	regime := e.regime.Get()
	core := decision.NewCore(e.th, e.now)
	out := models.Evaluation{Risk: riskSnap}

	// P0: account
	if riskSnap.KillSwitchActive {
		_ = core.Judge(models.P0AccountRisk, models.SignalVeto, "kill switch: "+riskSnap.KillReason, 1, SourceGlobalRisk)
	}

	// P1: market
	var sentiment models.SentimentLevel
	if in.Breadth != nil {
		idx := risk.SentimentIndex(*in.Breadth)
		out.Sentiment = &idx
		sentiment = idx.Level
		if idx.Level == models.SentimentExtremePanic {
			_ = core.Judge(models.P1MarketExtreme, models.SignalSell,
				fmt.Sprintf("market sentiment %s (%.0f)", idx.Level, idx.Score), 0.8, SourceMarketSentiment)
		}
	}

	// P2: realtime fund
	net, hasNet := realtimeNet(in)
	if hasNet {
		switch {
		case net < -e.th.RealtimeSellNet:
			_ = core.Judge(models.P2RealtimeFund, models.SignalSell,
				fmt.Sprintf("main-force net outflow %.0f", -net), 0.8, SourceRealtimeFund)
		case net > e.th.RealtimeBuyNet:
			_ = core.Judge(models.P2RealtimeFund, models.SignalBuy,
				fmt.Sprintf("main-force net inflow %.0f", net), 0.7, SourceRealtimeFund)
		}
	}

	// P3: score and chip
	out.Fusion = e.engine.Score(in, regime)
	switch {
	case out.Fusion.Score >= scoreBuyAbove:
		_ = core.Judge(models.P3TrendChip, models.SignalBuy,
			fmt.Sprintf("score %.1f, %s", out.Fusion.Score, out.Fusion.Intent), 0.6, SourceScore)
	case out.Fusion.Score <= scoreSellBelow:
		_ = core.Judge(models.P3TrendChip, models.SignalSell,
			fmt.Sprintf("score %.1f, %s", out.Fusion.Score, out.Fusion.Intent), 0.6, SourceScore)
	}

	var dist models.ChipDistribution
	if in.Chip != nil {
		dist = *in.Chip
	}
	out.Chip = chip.Signal(dist, latestClose(in.Bars))
	switch out.Chip.Signal {
	case models.ChipVeto:
		_ = core.Judge(models.P1MarketExtreme, models.SignalVeto, out.Chip.Reason, 0.9, SourceChip)
	case models.ChipWarning:
		_ = core.Judge(models.P3TrendChip, models.SignalReduce, out.Chip.Reason, 0.6, SourceChip)
	case models.ChipConfirm:
		_ = core.Judge(models.P3TrendChip, models.SignalBuy, out.Chip.Reason, 0.55, SourceChip)
	}

	core.ApplyVetoConditions(vetoInputs(in, riskSnap, sentiment, net))

	v := core.Verdict(in.Instrument)
	if e.newID != nil {
		v.ID = e.newID()
	} else {
		v.ID = verdictID(in, riskSnap, regime, v.Timestamp)
	}

	out.WinRate = winrate.Quick(net, out.Fusion.Score, regime)
	out.WinRateDetail = winrate.Detailed(readings(in, out.Fusion, net), regime)
	if v.ActionClass == models.ActionGo && out.WinRate.WinProbability < e.th.MinWinProbability {
		v.ActionClass = models.ActionWatch
		v.Action = v.ActionClass.Display()
		v.PrimaryReason = ReasonWinRateGate
	}
	out.Verdict = v

	out.Narrative, out.Contradictions = decision.Narrate(v, narrativeParts(in, out)...)
	return out
}

// realtimeNet prefers a valid snapshot over the latest daily flow.
func realtimeNet(in *models.EvaluationInput) (float64, bool) {
	if in.Realtime != nil && in.Realtime.Valid {
		return in.Realtime.MainNet, true
	}
	if len(in.Flow) > 0 {
		return in.Flow[0].MainNetInflow, true
	}
	return 0, false
}

func verdictID(in *models.EvaluationInput, rs models.RiskSnapshot, r models.Regime, at time.Time) string {
	payload, err := json.Marshal(struct {
		Input  *models.EvaluationInput `json:"input"`
		Risk   models.RiskSnapshot     `json:"risk"`
		Regime string                  `json:"regime"`
		At     time.Time               `json:"at"`
	}{in, rs, r.String(), at})
	if err != nil {
		// non-finite readings do not marshal
		payload = []byte(fmt.Sprintf("%s|%s|%s", in.Instrument, r, at.Format(time.RFC3339Nano)))
	}
	return uuid.NewSHA1(verdictNamespace, payload).String()
}

func readings(in *models.EvaluationInput, fr models.FusionResult, net float64) winrate.Readings {
	rd := winrate.Readings{MainNet: net}
	closes := models.Closes(in.Bars)
	if ma20, ok := indicators.SMA(closes, 20); ok {
		rd.MA5, _ = indicators.SMA(closes, 5)
		rd.MA10, _ = indicators.SMA(closes, 10)
		rd.MA20 = ma20
		rd.ChangePct = in.Bars[0].ChangePct
	}
	if fr.Sufficient {
		rd.HasTech = true
		rd.RSI = fr.RSI.Value
		rd.Cross = fr.MACD.Cross
		rd.BollPos = fr.Bollinger.Position
	}
	rd.Volatility, _ = indicators.RealizedVolatility(closes, volatilityWindow)
	return rd
}

func vetoInputs(in *models.EvaluationInput, rs models.RiskSnapshot, sentiment models.SentimentLevel, net float64) decision.VetoInputs {
	vi := decision.VetoInputs{
		AccountDrawdown:   rs.AccountDrawdown,
		ConsecutiveLosses: rs.ConsecutiveLosses,
		Sentiment:         sentiment,
		RealtimeNet:       net,
	}
	if in.Realtime != nil && in.Realtime.Valid {
		vi.BuySellRatio = in.Realtime.PowerRatio
		vi.FundTrend = in.Realtime.FundTrend
	}
	return vi
}

func latestClose(bars []models.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	return bars[0].Close
}

func narrativeParts(in *models.EvaluationInput, ev models.Evaluation) []string {
	parts := []string{words(string(ev.Fusion.Intent)), ev.Chip.Reason, ev.Verdict.PrimaryReason}
	if in.Realtime != nil && in.Realtime.Valid {
		parts = append(parts, words(string(in.Realtime.FundTrend)), in.Realtime.RiskSignal)
	}
	return parts
}

func words(tag string) string {
	return strings.ReplaceAll(tag, "_", " ")
}
