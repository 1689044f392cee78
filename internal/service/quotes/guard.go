package quotes

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"Sentinel/internal/domain/models"
	"Sentinel/pkg/logger"
)

type GuardConfig struct {
	RatePerSec       float64
	Burst            int
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Interval         time.Duration
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RatePerSec:       5,
		Burst:            5,
		FailureThreshold: 3,
		OpenTimeout:      60 * time.Second,
		Interval:         60 * time.Second,
	}
}

// Guarded throttles a source and trips a breaker on consecutive failures.
type Guarded struct {
	src     Source
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func Guard(src Source, cfg GuardConfig, log *logger.Logger) *Guarded {
	if log == nil {
		log = logger.Nop()
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 3
	}
	st := gobreaker.Settings{
		Name:        src.Name(),
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
	}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= threshold }
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn("quote source breaker",
			logger.String("source", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()))
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Guarded{
		src:     src,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

func (g *Guarded) Name() string { return g.src.Name() }

func (g *Guarded) State() gobreaker.State { return g.breaker.State() }

func (g *Guarded) Fetch(ctx context.Context, code string) (models.SourceReading, error) {
	// a malformed code must not count against the source
	if _, _, err := Symbol(code); err != nil {
		return models.SourceReading{}, err
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return models.SourceReading{}, err
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.src.Fetch(ctx, code)
	})
	if err != nil {
		return models.SourceReading{}, err
	}
	return out.(models.SourceReading), nil
}
