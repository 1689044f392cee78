package winrate

import "Sentinel/internal/domain/models"

// ClassifyFund buckets a main-force net inflow in 10k CNY.
func ClassifyFund(net float64) string {
	switch {
	case net > 5000:
		return FundStrongBuy
	case net > 1000:
		return FundBuy
	case net > -1000:
		return FundNeutral
	case net > -5000:
		return FundSell
	}
	return FundStrongSell
}

func ClassifyTrend(ma5, ma10, ma20, changePct float64) string {
	switch {
	case ma5 > ma10 && ma10 > ma20 && changePct > 3:
		return TrendStrongUp
	case ma5 > ma10 && changePct > 0:
		return TrendUp
	case ma5 < ma10 && ma10 < ma20 && changePct < -3:
		return TrendStrongDown
	case ma5 < ma10 && changePct < 0:
		return TrendDown
	}
	return TrendNeutral
}

// ClassifyTech turns indicator readings into tags. bollPos is the 0..100
// position inside the band.
func ClassifyTech(rsi float64, cross models.MACDCross, bollPos float64) []string {
	var tags []string
	switch {
	case rsi < 30:
		tags = append(tags, RSIOversold)
	case rsi > 70:
		tags = append(tags, RSIOverbought)
	}
	switch cross {
	case models.MACDGolden:
		tags = append(tags, MACDGolden)
	case models.MACDDead:
		tags = append(tags, MACDDead)
	}
	switch {
	case bollPos < 20:
		tags = append(tags, BollBottom)
	case bollPos > 80:
		tags = append(tags, BollTop)
	}
	if len(tags) == 0 {
		tags = append(tags, TrendNeutral)
	}
	return tags
}

func scoreFactor(score float64) string {
	switch {
	case score >= 70:
		return TrendStrongUp
	case score >= 55:
		return TrendUp
	case score <= 35:
		return TrendDown
	}
	return ""
}

// Quick is the gate used by evaluation: fund bucket, regime and a bucket of
// the fused score.
func Quick(mainNet, score float64, r models.Regime) models.WinRateResult {
	factors := []string{ClassifyFund(mainNet), MarketFactor(r)}
	if f := scoreFactor(score); f != "" {
		factors = append(factors, f)
	}
	return Calculate(factors, r, DefaultVolatility, DefaultPosition)
}

// Readings are the per-instrument inputs of the detailed estimate.
type Readings struct {
	MainNet   float64
	MA5       float64
	MA10      float64
	MA20      float64
	ChangePct float64

	// HasTech is false when the indicator readings below were not computed.
	HasTech bool
	RSI     float64
	Cross   models.MACDCross
	BollPos float64

	// Volatility is the per-bar realized volatility; zero falls back to
	// DefaultVolatility.
	Volatility float64
}

// Detailed runs the model over fund, trend and technical tags with the
// instrument's own volatility. Trend is tagged only when MA20 is known.
func Detailed(rd Readings, r models.Regime) models.WinRateResult {
	factors := []string{ClassifyFund(rd.MainNet), MarketFactor(r)}
	if rd.MA20 > 0 {
		factors = append(factors, ClassifyTrend(rd.MA5, rd.MA10, rd.MA20, rd.ChangePct))
	}
	if rd.HasTech {
		for _, tag := range ClassifyTech(rd.RSI, rd.Cross, rd.BollPos) {
			if tag != TrendNeutral {
				factors = append(factors, tag)
			}
		}
	}
	vol := rd.Volatility
	if vol <= 0 {
		vol = DefaultVolatility
	}
	return Calculate(factors, r, vol, DefaultPosition)
}
