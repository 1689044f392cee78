package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"Sentinel/pkg/util"
)

type Config struct {
	Environment string          `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Server      ServerConfig    `yaml:"server"`
	Logger      LoggerConfig    `yaml:"logger"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	RateLimit   RateLimitConfig `yaml:"ratelimit"`
	Storage     StorageConfig   `yaml:"storage"`
	ClickHouse  ClickHouse      `yaml:"clickhouse"`
	Redis       RedisConfig     `yaml:"redis"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	Realtime    RealtimeConfig  `yaml:"realtime"`
	Evaluate    EvaluateConfig  `yaml:"evaluate"`
	Regime      RegimeConfig    `yaml:"regime"`
	Risk        RiskConfig      `yaml:"risk"`
	Fusion      FusionConfig    `yaml:"fusion"`
	Decision    DecisionConfig  `yaml:"decision"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowRequest     time.Duration `yaml:"slow_request" default:"1s"`
	DisableCORS     bool          `yaml:"disable_cors"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
	// Digest ships aggregated error logs to kafka.log_topic.
	DigestInterval time.Duration `yaml:"digest_interval" default:"1m"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" default:"20" validate:"gte=0"`
	Burst int     `yaml:"burst" default:"40" validate:"gte=0"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite clickhouse"`
	SQLite struct {
		Path string `yaml:"path" default:"data/sentinel.db" validate:"required"`
	} `yaml:"sqlite"`
}

type ClickHouse struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"sentinel"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"sentinel"`
	PoolSize int    `yaml:"pool_size" default:"10"`
}

type KafkaConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Brokers          []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
	VerdictTopic     string   `yaml:"verdict_topic" default:"sentinel.verdicts"`
	TradeResultTopic string   `yaml:"trade_result_topic" default:"sentinel.trade-results"`
	EquityTopic      string   `yaml:"equity_topic" default:"sentinel.equity"`
	LogTopic         string   `yaml:"log_topic" default:"sentinel.log-digest"`
	Producer         struct {
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		Linger       time.Duration `yaml:"linger" default:"50ms"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" default:"sentinel"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
		DLQTopic   string        `yaml:"dlq_topic" default:"sentinel.dlq"`
	} `yaml:"consumer"`
}

type RealtimeConfig struct {
	Timeout      time.Duration `yaml:"timeout" default:"10s"`
	HTTPTimeout  time.Duration `yaml:"http_timeout" default:"5s"`
	MaxWorkers   int           `yaml:"max_workers" default:"3" validate:"min=1"`
	CacheTTL     time.Duration `yaml:"cache_ttl" default:"30s"`
	RatePerSec   float64       `yaml:"rate_per_sec" default:"5" validate:"gte=0"`
	Burst        int           `yaml:"burst" default:"5"`
	EastmoneyURL string        `yaml:"eastmoney_url" default:"https://push2.eastmoney.com/api/qt/ulist.np/get"`
	SinaURL      string        `yaml:"sina_url" default:"https://hq.sinajs.cn/list="`
	TencentURL   string        `yaml:"tencent_url" default:"https://qt.gtimg.cn/q="`
	Breaker      struct {
		FailureThreshold uint32        `yaml:"failure_threshold" default:"3"`
		OpenTimeout      time.Duration `yaml:"open_timeout" default:"60s"`
		Interval         time.Duration `yaml:"interval" default:"60s"`
	} `yaml:"breaker"`
}

type EvaluateConfig struct {
	Lookback       int    `yaml:"lookback" default:"120" validate:"min=30"`
	FlowLookback   int    `yaml:"flow_lookback" default:"10" validate:"min=1"`
	MarketIndex    string `yaml:"market_index" default:"000001.SH"`
	UseRealtime    bool   `yaml:"use_realtime" default:"true"`
	PublishVerdict bool   `yaml:"publish_verdict" default:"true"`
}

type RegimeConfig struct {
	Initial  string `yaml:"initial" default:"SHOCK" validate:"oneof=BULL BEAR SHOCK bull bear shock"`
	Index    string `yaml:"index" default:"000300.SH"`
	Lookback int    `yaml:"lookback" default:"60" validate:"min=21"`
	// RefreshInterval reclassifies from index bars in the background.
	RefreshInterval time.Duration `yaml:"refresh_interval" default:"30m"`
	AutoRefresh     bool          `yaml:"auto_refresh"`
}

type RiskConfig struct {
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses" default:"2" validate:"min=1"`
	MaxDrawdown          float64 `yaml:"max_drawdown" default:"0.10" validate:"gt=0,lte=1"`
}

// Weights mirrors the six fusion categories.
type Weights struct {
	Trend    float64 `yaml:"trend"`
	Volume   float64 `yaml:"volume"`
	Position float64 `yaml:"position"`
	Chip     float64 `yaml:"chip"`
	Money    float64 `yaml:"money"`
	Market   float64 `yaml:"market"`
}

func (w Weights) values() []float64 {
	return []float64{w.Trend, w.Volume, w.Position, w.Chip, w.Money, w.Market}
}

// FusionConfig leaves Weights and Multipliers nil to use the built-in tables.
type FusionConfig struct {
	Weights     *Weights `yaml:"weights"`
	Multipliers *struct {
		Bull  Weights `yaml:"bull"`
		Bear  Weights `yaml:"bear"`
		Shock Weights `yaml:"shock"`
	} `yaml:"multipliers"`
	FactorShare float64 `yaml:"factor_share" default:"0.8" validate:"gte=0,lte=1"`
	MinBars     int     `yaml:"min_bars" default:"30" validate:"min=1"`
	Divergence  struct {
		SevereMove float64 `yaml:"severe_move" default:"3"`
		SevereFlow float64 `yaml:"severe_flow" default:"2000"`
		MildMove   float64 `yaml:"mild_move" default:"2"`
		MildFlow   float64 `yaml:"mild_flow" default:"1000"`
	} `yaml:"divergence"`
	ChipRisk struct {
		WinnerAbove  float64 `yaml:"winner_above" default:"90"`
		PremiumAbove float64 `yaml:"premium_above" default:"20"`
	} `yaml:"chip_risk"`
	Penalties struct {
		DivergeShort float64 `yaml:"diverge_short" default:"15" validate:"gte=0"`
		DivergeLong  float64 `yaml:"diverge_long" default:"10" validate:"gte=0"`
		ChipRisk     float64 `yaml:"chip_risk" default:"10" validate:"gte=0"`
	} `yaml:"penalties"`
}

type DecisionConfig struct {
	BuyMargin            float64 `yaml:"buy_margin" default:"0.5" validate:"gte=0"`
	SellMargin           float64 `yaml:"sell_margin" default:"0.3" validate:"gte=0"`
	MinBuyConfirmations  int     `yaml:"min_buy_confirmations" default:"2" validate:"min=1"`
	MinSellConfirmations int     `yaml:"min_sell_confirmations" default:"2" validate:"min=1"`
	MaxDrawdown          float64 `yaml:"max_drawdown" default:"0.15" validate:"gt=0,lte=1"`
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses" default:"3" validate:"min=1"`
	RealtimeSellNet      float64 `yaml:"realtime_sell_net" default:"2000" validate:"gt=0"`
	RealtimeBuyNet       float64 `yaml:"realtime_buy_net" default:"2000" validate:"gt=0"`
	MinBuySellRatio      float64 `yaml:"min_buy_sell_ratio" default:"0.5" validate:"gte=0"`
	MinWinProbability    float64 `yaml:"min_win_probability" default:"0.45" validate:"gte=0,lte=1"`
}

var (
	ErrWeightSum      = errors.New("fusion weights must sum to 1")
	ErrNegativeWeight = errors.New("fusion weights must be non-negative")
	ErrMultiplier     = errors.New("fusion multipliers must be positive")
)

// Default returns a config with every default applied.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file. An empty path yields
// the defaults.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		c.Storage.SQLite.Path = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR port: %w", err)
		}
		c.Redis.Host, c.Redis.Port, c.Redis.Enabled = host, p, true
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = p
	}
	return nil
}

var validate = validator.New()

// Validate checks field ranges and the fusion weight invariants.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if w := c.Fusion.Weights; w != nil {
		sum := 0.0
		for _, v := range w.values() {
			if v < 0 {
				return fmt.Errorf("%w: %+v", ErrNegativeWeight, *w)
			}
			sum += v
		}
		if math.Abs(sum-1) > 1e-6 {
			return fmt.Errorf("%w, got %.4f", ErrWeightSum, sum)
		}
	}
	if m := c.Fusion.Multipliers; m != nil {
		for _, w := range []Weights{m.Bull, m.Bear, m.Shock} {
			for _, v := range w.values() {
				if !(v > 0) {
					return fmt.Errorf("%w: %+v", ErrMultiplier, w)
				}
			}
		}
	}
	return nil
}
