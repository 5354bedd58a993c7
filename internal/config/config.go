package config

import (
	"fmt"
	"os"
	"time"

	"seotrack/pkg/config"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Report cache drivers.
const (
	CacheRedis = "redis"
	CacheLocal = "local"
	CacheNone  = "none"
)

type StorageConfig struct {
	Driver string `yaml:"driver"` // postgres / memory
}

type CacheConfig struct {
	Driver     string `yaml:"driver"` // redis / local / none
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// OutboxConfig 事件分发配置，仅在 mq.url 非空时生效
type OutboxConfig struct {
	IntervalMS int `yaml:"interval_ms"`
	BatchSize  int `yaml:"batch_size"`
	MaxRetries int `yaml:"max_retries"`
}

type AuthConfig struct {
	AdminEmails []string `yaml:"admin_emails"`
}

type IdempotencyConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

type Config struct {
	Server      config.ServerConfig `yaml:"server"`
	DB          config.DBConfig     `yaml:"db"`
	Redis       config.RedisConfig  `yaml:"redis"`
	JWT         config.JWTConfig    `yaml:"jwt"`
	MQ          config.MQConfig     `yaml:"mq"`
	Log         config.LogConfig    `yaml:"log"`
	Storage     StorageConfig       `yaml:"storage"`
	Cache       CacheConfig         `yaml:"cache"`
	Outbox      OutboxConfig        `yaml:"outbox"`
	Auth        AuthConfig          `yaml:"auth"`
	Idempotency IdempotencyConfig   `yaml:"idempotency"`
}

// Load reads config/base.yaml, the CONFIG_ENV overlay and secrets, then
// applies environment overrides.
func Load() (*Config, error) {
	return LoadFrom(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"))
}

func LoadFrom(env, dir string) (*Config, error) {
	raw, err := config.LoadConfig(env, dir)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := config.Decode(raw, &cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideLogFromEnv(&cfg.Log)
	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if driver := os.Getenv("CACHE_DRIVER"); driver != "" {
		cfg.Cache.Driver = driver
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StoragePostgres
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheLocal
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 300
	}
	if c.JWT.TTLHours <= 0 {
		c.JWT.TTLHours = 24
	}
	if c.Outbox.IntervalMS <= 0 {
		c.Outbox.IntervalMS = 1000
	}
	if c.Outbox.BatchSize <= 0 {
		c.Outbox.BatchSize = 100
	}
	if c.Outbox.MaxRetries <= 0 {
		c.Outbox.MaxRetries = 5
	}
	if c.Idempotency.TTLSeconds <= 0 {
		c.Idempotency.TTLSeconds = 86400
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	switch c.Storage.Driver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Cache.Driver {
	case CacheRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("cache.driver redis requires redis.addr")
		}
	case CacheLocal, CacheNone:
	default:
		return fmt.Errorf("unknown cache.driver %q", c.Cache.Driver)
	}
	if c.MQ.URL != "" && c.Storage.Driver != StoragePostgres {
		return fmt.Errorf("mq.url requires storage.driver postgres (events are relayed from the outbox table)")
	}
	return nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.TTLHours) * time.Hour
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.Idempotency.TTLSeconds) * time.Second
}

func (c *Config) OutboxInterval() time.Duration {
	return time.Duration(c.Outbox.IntervalMS) * time.Millisecond
}
