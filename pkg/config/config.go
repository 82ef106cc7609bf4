package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"FinCast/pkg/logger"
	"FinCast/pkg/tracing"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"required"`
	Server      ServerConfig     `yaml:"server"`
	Logging     logger.Config    `yaml:"logging"`
	Tracing     tracing.Config   `yaml:"tracing"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Models      ModelsConfig     `yaml:"models"`
	Datasets    DatasetsConfig   `yaml:"datasets"`
	Training    TrainingConfig   `yaml:"training"`
	Cache       CacheConfig      `yaml:"cache"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Kafka       KafkaConfig      `yaml:"kafka"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8000" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"1s"`
	// RateLimitRPS is the sustained per-client request rate; 0 disables limiting.
	RateLimitRPS   float64  `yaml:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int      `yaml:"rate_limit_burst" default:"20" validate:"gte=1"`
	AllowOrigins   []string `yaml:"allow_origins" default:"[\"*\"]"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics" validate:"startswith=/"`
}

type ModelsConfig struct {
	// Backend is "fs" for one file per model or "badger" for an embedded store.
	Backend     string `yaml:"backend" default:"fs" validate:"oneof=fs badger"`
	Dir         string `yaml:"dir" default:"models" validate:"required"`
	FallbackDir string `yaml:"fallback_dir"`
	Extension   string `yaml:"extension" default:".json" validate:"startswith=."`
}

type DatasetsConfig struct {
	Source      string `yaml:"source" default:"csv" validate:"oneof=csv clickhouse"`
	Dir         string `yaml:"dir" default:"datasets"`
	Extension   string `yaml:"extension" default:".csv" validate:"startswith=."`
	DateColumn  string `yaml:"date_column" default:"Date" validate:"required"`
	CloseColumn string `yaml:"close_column" default:"Close" validate:"required"`
}

type TrainingConfig struct {
	Algorithm string `yaml:"algorithm" default:"gbrt" validate:"oneof=gbrt linear"`
	// HoldoutRatio is the trailing share of rows scored before the final refit; 0 skips scoring.
	HoldoutRatio float64    `yaml:"holdout_ratio" default:"0.2" validate:"gte=0,lt=1"`
	MinRows      int        `yaml:"min_rows" default:"2" validate:"gte=1"`
	Workers      int        `yaml:"workers" default:"1" validate:"gte=1"`
	GBRT         GBRTConfig `yaml:"gbrt"`
	Ridge        float64    `yaml:"ridge" default:"0.000001" validate:"gt=0"`
}

type GBRTConfig struct {
	Iterations     int     `yaml:"iterations" default:"100" validate:"gte=1"`
	LearningRate   float64 `yaml:"learning_rate" default:"0.1" validate:"gt=0,lte=1"`
	MaxDepth       int     `yaml:"max_depth" default:"3" validate:"gte=1"`
	MinSamplesLeaf int     `yaml:"min_samples_leaf" default:"20" validate:"gte=1"`
}

type CacheConfig struct {
	Backend    string        `yaml:"backend" default:"memory" validate:"oneof=none memory redis"`
	TTL        time.Duration `yaml:"ttl" default:"10m"`
	MaxEntries int           `yaml:"max_entries" default:"1000" validate:"gte=1"`
	Redis      RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr         string        `yaml:"addr" default:"localhost:6379"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Prefix       string        `yaml:"prefix" default:"fincast"`
	PoolSize     int           `yaml:"pool_size" default:"10" validate:"gte=1"`
	MinIdleConns int           `yaml:"min_idle_conns" default:"2" validate:"gte=0"`
	PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"default"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	Table            string        `yaml:"table" default:"rt_ticks_raw"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
}

type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"fincast.training.outcomes"`
	RequiredAcks int           `yaml:"required_acks" default:"-1"`
	Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

var validate = validator.New()

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// An empty path uses defaults only.
func LoadWithEnv(path string) (*Config, error) {
	c, err := read(path)
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

func read(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := map[string]*string{
		"FINCAST_ENV":                 &c.Environment,
		"FINCAST_MODELS_DIR":          &c.Models.Dir,
		"FINCAST_FALLBACK_MODELS_DIR": &c.Models.FallbackDir,
		"FINCAST_DATA_DIR":            &c.Datasets.Dir,
		"FINCAST_DATASET_SOURCE":      &c.Datasets.Source,
		"FINCAST_ALGORITHM":           &c.Training.Algorithm,
		"FINCAST_LOG_LEVEL":           &c.Logging.Level,
		"FINCAST_CACHE_BACKEND":       &c.Cache.Backend,
		"REDIS_ADDR":                  &c.Cache.Redis.Addr,
		"REDIS_PASSWORD":              &c.Cache.Redis.Password,
		"CLICKHOUSE_HOST":             &c.ClickHouse.Host,
		"CLICKHOUSE_PASSWORD":         &c.ClickHouse.Password,
		"KAFKA_TOPIC":                 &c.Kafka.Topic,
	}
	for k, dst := range str {
		if v := getenv(k); v != "" {
			*dst = v
		}
	}
	if v := getenv("FINCAST_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FINCAST_PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	var errs []error
	if c.Datasets.Source == "csv" && c.Datasets.Dir == "" {
		errs = append(errs, errors.New("datasets.dir is required for the csv source"))
	}
	if c.Datasets.Source == "clickhouse" && c.ClickHouse.Host == "" {
		errs = append(errs, errors.New("clickhouse.host is required for the clickhouse source"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers cannot be empty when kafka is enabled"))
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		errs = append(errs, errors.New("cache.redis.addr is required for the redis backend"))
	}
	return errors.Join(errs...)
}
