package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "ZINE_LEDGER"

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int      `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int      `mapstructure:"idle_timeout"`  // in seconds
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"` // ":memory:" for an in-memory database
}

// LedgerConfig holds ledger policy knobs
type LedgerConfig struct {
	LowStockMax       int  `mapstructure:"low_stock_max"`      // highest active-batch count shown as low stock
	StrictTransitions bool `mapstructure:"strict_transitions"` // forbid reactivating sold-out/picked-up batches
}

// CheckinConfig controls the background check-in sweep
type CheckinConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

// DemoConfig gates the scenario endpoints, which reset every user's data
type DemoConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type Config struct {
	Debug     bool           `mapstructure:"debug"`
	SentryDSN string         `mapstructure:"sentry_dsn"`
	Server    ServerConfig   `mapstructure:"server"`
	Database  DatabaseConfig `mapstructure:"database"`
	Ledger    LedgerConfig   `mapstructure:"ledger"`
	Checkins  CheckinConfig  `mapstructure:"checkins"`
	Demo      DemoConfig     `mapstructure:"demo"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Ledger.LowStockMax < 0 {
		return fmt.Errorf("ledger.low_stock_max must be >= 0, got %d", c.Ledger.LowStockMax)
	}
	if c.Checkins.Enabled && c.Checkins.IntervalMinutes <= 0 {
		return fmt.Errorf("checkins.interval_minutes must be > 0, got %d", c.Checkins.IntervalMinutes)
	}
	return nil
}

// Load reads configuration from an optional YAML file, a .env file and
// ZINE_LEDGER_* environment variables, in increasing precedence.
func Load(configFile string, envPath string) (*Config, error) {
	v := configureViper(configFile, envPath)

	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.idle_timeout", 60)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:8080"})
	v.SetDefault("database.path", "zines.db")
	v.SetDefault("ledger.low_stock_max", 2)
	v.SetDefault("ledger.strict_transitions", false)
	v.SetDefault("checkins.enabled", true)
	v.SetDefault("checkins.interval_minutes", 60)
	v.SetDefault("demo.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file: defaults and environment only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func configureViper(configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees env vars for keys viper already knows about
	for _, key := range []string{
		"debug",
		"sentry_dsn",
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.cors_origins",
		"database.path",
		"ledger.low_stock_max",
		"ledger.strict_transitions",
		"checkins.enabled",
		"checkins.interval_minutes",
		"demo.enabled",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

// loadEnv loads a .env file when present. A missing file is not an error.
func loadEnv(envPath string) {
	if envPath == "" {
		envPath = ".env"
	}
	if _, err := os.Stat(envPath); err != nil {
		return
	}
	_ = godotenv.Load(envPath)
}
