package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	sharedConfig "github.com/docsphere/docsphere/internal/shared/config"
)

// EnvPrefix is the prefix for environment overrides, e.g. DOCSPHERE_REDIS_HOST.
const EnvPrefix = "DOCSPHERE"

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	JWT       sharedConfig.JWTConfig       `mapstructure:"jwt"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Limits    sharedConfig.LimitsConfig    `mapstructure:"limits"`
	OpenAI    sharedConfig.OpenAIConfig    `mapstructure:"openai"`
	Metrics   sharedConfig.MetricsConfig   `mapstructure:"metrics"`
	Scheduler sharedConfig.SchedulerConfig `mapstructure:"scheduler"`
	Timezone  string                       `mapstructure:"timezone"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from an optional .env file, an optional
// configs/config.yaml and DOCSPHERE_* environment variables, in increasing
// order of precedence.
func Load(env string, configPaths ...string) (*Config, error) {
	// .env is a local development convenience; absence is not an error
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{"./configs", "../configs", "."}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the last loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Limits.RateLimitRPM <= 0 {
		return fmt.Errorf("limits.rate_limit_rpm must be positive, got %d", c.Limits.RateLimitRPM)
	}
	if c.Limits.IdempotencyTTL <= 0 {
		return fmt.Errorf("limits.idempotency_ttl must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "docsphere")
	v.SetDefault("database.path", "docsphere.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "docsphere")
	v.SetDefault("jwt.access_ttl", "24h")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("limits.rate_limit_rpm", 60)
	v.SetDefault("limits.rate_limit_fail_open", true)
	v.SetDefault("limits.idempotency_ttl", "30m")
	v.SetDefault("limits.plan_cache_ttl", "10m")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.default_model", "gpt-4o-mini")
	v.SetDefault("openai.request_timeout", "120s")
	v.SetDefault("openai.batch_poll_interval", "1s")
	v.SetDefault("openai.batch_poll_timeout", "5m")
	v.SetDefault("openai.upload_concurrency", 4)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.daily_report_hour", 1)
	v.SetDefault("scheduler.health_check_interval", "15m")

	v.SetDefault("timezone", "UTC")
}
