package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"Sentinel/internal/domain/models"
	domrepo "Sentinel/internal/domain/repository"
	"Sentinel/internal/domain/service"
	"Sentinel/internal/handler/api"
	internalrepo "Sentinel/internal/repository"
	"Sentinel/internal/service/quotes"
	"Sentinel/internal/services/chip"
	"Sentinel/internal/services/decision"
	"Sentinel/internal/services/evaluator"
	"Sentinel/internal/services/factors"
	"Sentinel/internal/services/fusion"
	"Sentinel/internal/services/regime"
	"Sentinel/internal/services/risk"
	"Sentinel/internal/usecase"
	"Sentinel/pkg/cache"
	pkgch "Sentinel/pkg/clickhouse"
	"Sentinel/pkg/config"
	xhttp "Sentinel/pkg/http"
	pkgkafka "Sentinel/pkg/kafka"
	"Sentinel/pkg/logger"
	"Sentinel/pkg/metrics"
	"Sentinel/pkg/server"
)

// ProvideLogger builds the process logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry returns a dedicated registry so tests and multiple apps
// never collide on the global one.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideRiskState creates the shared kill switch and mirrors it into metrics.
func ProvideRiskState(cfg *config.Config, m *metrics.Recorder) (*risk.GlobalState, error) {
	limits := risk.Limits{
		MaxConsecutiveLosses: cfg.Risk.MaxConsecutiveLosses,
		MaxDrawdown:          cfg.Risk.MaxDrawdown,
	}
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("risk limits: %w", err)
	}
	rs := risk.NewGlobalState(limits, nil)
	rs.OnChange(func(s models.RiskSnapshot) { m.RecordKillSwitch(s.KillSwitchActive) })
	return rs, nil
}

func ProvideRegimeState(cfg *config.Config) (*regime.State, error) {
	r, err := models.ParseRegime(cfg.Regime.Initial)
	if err != nil {
		return nil, fmt.Errorf("initial regime: %w", err)
	}
	return regime.NewState(r), nil
}

// ProvideFusionConfig converts the YAML section; nil tables fall back to the
// built-in ones.
func ProvideFusionConfig(cfg *config.Config) fusion.Config {
	fc := cfg.Fusion
	out := fusion.DefaultConfig()
	if fc.Weights != nil {
		out.Weights = fusionWeights(*fc.Weights)
	}
	if fc.Multipliers != nil {
		out.Multipliers = fusion.Multipliers{
			Bull:  fusionWeights(fc.Multipliers.Bull),
			Bear:  fusionWeights(fc.Multipliers.Bear),
			Shock: fusionWeights(fc.Multipliers.Shock),
		}
	}
	out.FactorShare = fc.FactorShare
	out.MinBars = fc.MinBars
	out.Divergence = factors.DivergenceRule{
		SevereMove: fc.Divergence.SevereMove,
		SevereFlow: fc.Divergence.SevereFlow,
		MildMove:   fc.Divergence.MildMove,
		MildFlow:   fc.Divergence.MildFlow,
	}
	out.ChipRisk = factors.ChipRiskRule{
		WinnerAbove:  fc.ChipRisk.WinnerAbove,
		PremiumAbove: fc.ChipRisk.PremiumAbove,
	}
	out.Penalties = fusion.Penalties{
		DivergeShort: fc.Penalties.DivergeShort,
		DivergeLong:  fc.Penalties.DivergeLong,
		ChipRisk:     fc.Penalties.ChipRisk,
	}
	return out
}

func fusionWeights(w config.Weights) fusion.Weights {
	return fusion.Weights{
		Trend:    w.Trend,
		Volume:   w.Volume,
		Position: w.Position,
		Chip:     w.Chip,
		Money:    w.Money,
		Market:   w.Market,
	}
}

func ProvideFusionEngine(fc fusion.Config) (*fusion.Engine, error) {
	return fusion.NewEngine(fc)
}

func ProvideThresholds(cfg *config.Config) decision.Thresholds {
	d := cfg.Decision
	return decision.Thresholds{
		BuyMargin:            d.BuyMargin,
		SellMargin:           d.SellMargin,
		MinBuyConfirmations:  d.MinBuyConfirmations,
		MinSellConfirmations: d.MinSellConfirmations,
		MaxDrawdown:          d.MaxDrawdown,
		MaxConsecutiveLosses: d.MaxConsecutiveLosses,
		RealtimeSellNet:      d.RealtimeSellNet,
		RealtimeBuyNet:       d.RealtimeBuyNet,
		MinBuySellRatio:      d.MinBuySellRatio,
		MinWinProbability:    d.MinWinProbability,
	}
}

func ProvideEvaluator(engine *fusion.Engine, th decision.Thresholds, rs *risk.GlobalState, rh *regime.State) *evaluator.Evaluator {
	return evaluator.New(engine, th, rs, rh)
}

// Storage groups the persistence ports chosen by storage.driver.
type Storage struct {
	Reader   domrepo.MarketDataReader
	Verdicts domrepo.VerdictStore
	Chips    service.OfficialChipSource // nil when the driver has no chip table
}

// ProvideStorage opens SQLite or ClickHouse. The cleanup closes it.
func ProvideStorage(cfg *config.Config, l *logger.Logger) (*Storage, func(), error) {
	switch cfg.Storage.Driver {
	case "clickhouse":
		ch, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := ch.Close(); err != nil {
				l.Warn("clickhouse close error", logger.Error(err))
			}
		}
		return &Storage{
			Reader:   internalrepo.NewCHMarketStore(ch, l),
			Verdicts: internalrepo.NewCHVerdictStore(ch, l),
		}, cleanup, nil
	default:
		st, err := internalrepo.NewSQLiteMarketStore(cfg.Storage.SQLite.Path, l)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		cleanup := func() {
			if err := st.Close(); err != nil {
				l.Warn("sqlite close error", logger.Error(err))
			}
		}
		return &Storage{Reader: st, Verdicts: st, Chips: st}, cleanup, nil
	}
}

// ProvideClickHouseClient connects and creates the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := cfg.ClickHouse
	client, err := pkgch.Open(ctx, pkgch.Options{
		Host:         c.Host,
		Port:         c.Port,
		Database:     c.Database,
		User:         c.User,
		Password:     c.Password,
		HTTP:         c.UseHTTP,
		AsyncInsert:  c.AsyncInsert,
		WaitAsync:    c.WaitForAsync,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		MaxExecution: c.MaxExecutionTime,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideCache returns an in-process cache, fronted by redis when enabled.
func ProvideCache(cfg *config.Config, l *logger.Logger) (cache.Service, func(), error) {
	var c cache.Service
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
			cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
			cache.WithRedisPool(cfg.Redis.PoolSize, 2, 30*time.Second),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		c = cache.NewLayeredCache(rc, cache.WithLayeredL1TTL(cfg.Realtime.CacheTTL))
	} else {
		c = cache.NewMemoryCache(cache.WithMemoryCleanup(time.Minute))
	}
	cleanup := func() {
		if err := c.Close(); err != nil {
			l.Warn("cache close error", logger.Error(err))
		}
	}
	return c, cleanup, nil
}

// ProvideQuoteSources builds the three fund-flow sources, each throttled and
// behind its own breaker.
func ProvideQuoteSources(cfg *config.Config, l *logger.Logger) []quotes.Source {
	rc := cfg.Realtime
	client := xhttp.NewClient(xhttp.WithTimeout(rc.HTTPTimeout))
	guard := quotes.GuardConfig{
		RatePerSec:       rc.RatePerSec,
		Burst:            rc.Burst,
		FailureThreshold: rc.Breaker.FailureThreshold,
		OpenTimeout:      rc.Breaker.OpenTimeout,
		Interval:         rc.Breaker.Interval,
	}
	return []quotes.Source{
		quotes.Guard(quotes.NewEastmoney(rc.EastmoneyURL, client), guard, l),
		quotes.Guard(quotes.NewSina(rc.SinaURL, client), guard, l),
		quotes.Guard(quotes.NewTencent(rc.TencentURL, client), guard, l),
	}
}

func ProvideRealtimeUseCase(cfg *config.Config, sources []quotes.Source, c cache.Service, m *metrics.Recorder, l *logger.Logger) *usecase.RealtimeFundUseCase {
	return usecase.NewRealtimeFundUseCase(sources, c, m, l, usecase.RealtimeConfig{
		Timeout:    cfg.Realtime.Timeout,
		MaxWorkers: cfg.Realtime.MaxWorkers,
		CacheTTL:   cfg.Realtime.CacheTTL,
	})
}

func ProvideChipProvider(st *Storage, l *logger.Logger) *chip.Provider {
	return chip.NewProvider(st.Chips, l)
}

// ProvideKafkaProducer returns nil when kafka is disabled. Error logs are
// digested onto the log topic while the producer is alive.
func ProvideKafkaProducer(cfg *config.Config, m *metrics.Recorder, l *logger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	kc := cfg.Kafka
	producer, err := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers:      kc.Brokers,
		RequiredAcks: kc.Producer.RequiredAcks,
		Compression:  kc.Producer.Compression,
		MaxAttempts:  kc.Producer.MaxAttempts,
		WriteTimeout: kc.Producer.WriteTimeout,
		BatchSize:    kc.Producer.BatchSize,
		Linger:       kc.Producer.Linger,
		Async:        kc.Producer.Async,
		Observer:     m,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	if kc.LogTopic != "" {
		l.AttachDigest(&logger.DigestConfig{
			Interval:  cfg.Logger.DigestInterval,
			Topic:     kc.LogTopic,
			Publisher: producer,
		})
	}
	cleanup := func() {
		l.DetachDigest()
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", logger.Error(err))
		}
	}
	return producer, cleanup, nil
}

func ProvideVerdictPublisher(cfg *config.Config, p *pkgkafka.Producer) domrepo.VerdictPublisher {
	if p == nil || !cfg.Evaluate.PublishVerdict {
		return internalrepo.NopVerdictPublisher{}
	}
	return internalrepo.NewKafkaVerdictPublisher(p, cfg.Kafka.VerdictTopic)
}

func ProvideEvaluateUseCase(
	cfg *config.Config,
	st *Storage,
	chips *chip.Provider,
	rt *usecase.RealtimeFundUseCase,
	ev *evaluator.Evaluator,
	pub domrepo.VerdictPublisher,
	m *metrics.Recorder,
	l *logger.Logger,
) *usecase.EvaluateUseCase {
	return usecase.NewEvaluateUseCase(usecase.EvaluateDeps{
		Reader:    st.Reader,
		Chips:     chips,
		Snapshots: rt,
		Evaluator: ev,
		Store:     st.Verdicts,
		Publisher: pub,
		Metrics:   m,
		Logger:    l,
	}, cfg.Evaluate.FlowLookback)
}

func ProvideRiskUseCase(rs *risk.GlobalState, st *Storage, l *logger.Logger) *usecase.RiskUseCase {
	return usecase.NewRiskUseCase(rs, st.Reader, l)
}

func ProvideRegimeUseCase(rh *regime.State, st *Storage, l *logger.Logger) *usecase.RegimeUseCase {
	return usecase.NewRegimeUseCase(rh, st.Reader, l)
}

// ProvideKafkaConsumer subscribes the risk state to trade results and equity
// updates. It returns nil when kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, riskUC *usecase.RiskUseCase, m *metrics.Recorder, l *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	kc := cfg.Kafka
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(kc.Brokers),
		pkgkafka.WithConsumerGroupID(kc.Consumer.GroupID),
		pkgkafka.WithConsumerRetry(kc.Consumer.RetryMax, kc.Consumer.BackoffMin, kc.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(kc.Consumer.DLQTopic),
		pkgkafka.WithConsumerObserver(m),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.Use(pkgkafka.Trace)
	consumer.RegisterHandler(usecase.NewTradeResultHandler(kc.TradeResultTopic, riskUC, m))
	consumer.RegisterHandler(usecase.NewEquityHandler(kc.EquityTopic, riskUC, m))
	return consumer, nil
}

func ProvideHandlers(
	cfg *config.Config,
	st *Storage,
	eval *usecase.EvaluateUseCase,
	rt *usecase.RealtimeFundUseCase,
	riskUC *usecase.RiskUseCase,
	regimeUC *usecase.RegimeUseCase,
	l *logger.Logger,
) xhttp.Handlers {
	return xhttp.Handlers{
		api.NewEvaluateHandler(l, eval, rt, st.Reader, cfg.Evaluate.UseRealtime),
		api.NewRiskHandler(l, riskUC),
		api.NewMarketHandler(l, regimeUC, st.Reader),
	}
}

func ProvideHTTPServer(cfg *config.Config, hs xhttp.Handlers, reg *prometheus.Registry, l *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(hs,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithCORS(!cfg.Server.DisableCORS),
		xhttp.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		xhttp.WithMetrics(metricsPath, reg),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	regimeUC *usecase.RegimeUseCase,
	l *logger.Logger,
) *server.App {
	return server.New(cfg, srv, consumer, regimeUC, l)
}
