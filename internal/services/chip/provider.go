package chip

import (
	"context"

	"Sentinel/internal/domain/models"
	"Sentinel/internal/domain/service"
	"Sentinel/pkg/logger"
)

// Provider fuses the official source, when configured, with the two bar
// estimators. It never fails; the result is Valid=false when no source
// produced an estimate.
type Provider struct {
	official service.OfficialChipSource
	log      *logger.Logger
}

var _ service.ChipProvider = (*Provider)(nil)

func NewProvider(official service.OfficialChipSource, log *logger.Logger) *Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &Provider{official: official, log: log.With("chip")}
}

func (p *Provider) GetChip(ctx context.Context, code string, bars []models.Bar, price float64) models.ChipDistribution {
	var official *Estimate
	if p.official != nil && price > 0 {
		dist, err := p.official.OfficialChip(ctx, code, price)
		switch {
		case err != nil:
			p.log.Debug("official chip unavailable", logger.String("code", code), logger.Error(err))
		case dist.Valid:
			pct := dist.CostPercentiles
			conc := dist.Concentration
			official = &Estimate{
				Source:        SourceOfficial,
				AvgCost:       dist.AvgCost,
				WinnerRate:    dist.WinnerRate,
				Percentiles:   &pct,
				Concentration: &conc,
				Confidence:    1,
			}
		}
	}

	var vwap, decay *Estimate
	if e, ok := VWAP(bars, price); ok {
		vwap = &e
	}
	if e, ok := Decay(bars, price); ok {
		decay = &e
	}

	dist := Fuse(official, vwap, decay)
	if !dist.Valid {
		p.log.Debug("no chip estimate", logger.String("code", code), logger.Int("bars", len(bars)))
	}
	return dist
}
