package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/bankfacts/internal/fx"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	FX        fx.Config       `yaml:"fx" mapstructure:"fx"`
	Waterfall WaterfallConfig `yaml:"waterfall" mapstructure:"waterfall"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`

	// RetryAttempts is the number of tries for a store call that fails on
	// lock contention or a dropped connection. 1 disables retries.
	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// ServerConfig configures the review API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// WaterfallConfig points at optional per-bank priority rules.
type WaterfallConfig struct {
	ConfigPath string `yaml:"config_path" mapstructure:"config_path"`
}

// IngestConfig tunes document loading.
type IngestConfig struct {
	MaxConcurrentFiles int `yaml:"max_concurrent_files" mapstructure:"max_concurrent_files"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

var storeDrivers = map[string]bool{"sqlite": true, "postgres": true, "badger": true, "memory": true}

// Validate checks the settings a command mode depends on. Modes are
// "serve" (HTTP API) and "cli" (every other command). All problems are
// reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimitRPS <= 0 {
			errs = append(errs, "server.rate_limit_rps must be > 0")
		}
		if c.Server.RateLimitBurst < 1 {
			errs = append(errs, "server.rate_limit_burst must be >= 1")
		}
	case "cli":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if !storeDrivers[c.Store.Driver] {
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of sqlite, postgres, badger, memory", c.Store.Driver))
	} else if c.Store.Driver != "memory" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	if c.Store.RetryAttempts < 0 || c.Store.RetryAttempts > 10 {
		errs = append(errs, "store.retry_attempts must be between 0 and 10")
	}
	if c.FX.USDToHKD <= 0 {
		errs = append(errs, "fx.usd_to_hkd must be > 0")
	}
	if c.FX.Source != fx.SourceDefault && c.FX.Source != fx.SourceCustom {
		errs = append(errs, fmt.Sprintf("fx.source %q is not one of default, custom", c.FX.Source))
	}
	if c.Ingest.MaxConcurrentFiles < 1 || c.Ingest.MaxConcurrentFiles > 32 {
		errs = append(errs, "ingest.max_concurrent_files must be between 1 and 32")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BANKFACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "bankfacts.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.retry_attempts", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("fx.usd_to_hkd", fx.DefaultUSDToHKD)
	v.SetDefault("fx.source", string(fx.SourceDefault))
	v.SetDefault("waterfall.config_path", "")
	v.SetDefault("ingest.max_concurrent_files", 4)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
