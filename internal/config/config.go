// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/rovshanmuradov/bondcurve/internal/utils/logger"
	"github.com/spf13/viper"
)

const EnvPrefix = "CURVE"

type VestingConfig struct {
	CliffSeconds    int64 `mapstructure:"cliff_seconds"`
	DurationSeconds int64 `mapstructure:"duration_seconds"`
}

type StorageConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	CacheSize int    `mapstructure:"cache_size"`
}

type Config struct {
	LogLevel    string `mapstructure:"log_level"`
	Development bool   `mapstructure:"development"`
	LogFile     string `mapstructure:"log_file"`

	FeeBasisPoints     uint64 `mapstructure:"fee_basis_points"`
	FeeRecipient       string `mapstructure:"fee_recipient"`
	RentExemptLamports uint64 `mapstructure:"rent_exempt_lamports"`
	ProgramID          string `mapstructure:"program_id"`

	RequirePoolParity    bool          `mapstructure:"require_pool_parity"`
	MaxExponentialFactor uint64        `mapstructure:"max_exponential_factor"`
	Vesting              VestingConfig `mapstructure:"vesting"`

	Storage         StorageConfig `mapstructure:"storage"`
	PostgresURL     string        `mapstructure:"postgres_url"`
	EventBufferSize int           `mapstructure:"event_buffer_size"`
	PersistWorkers  int           `mapstructure:"persist_workers"`
}

const (
	DriverMemory = "memory"
	DriverPebble = "pebble"

	DefaultRentExemptLamports = 2_039_280
	DefaultEventBufferSize    = 1024
	DefaultPersistWorkers     = 4
	DefaultCacheSize          = 256
	MaxFeeBasisPoints         = 1000
)

func defaults() map[string]interface{} {
	vesting := curve.DefaultVestingTerms()
	return map[string]interface{}{
		"log_level":                "info",
		"development":              false,
		"log_file":                 "bondcurve.log",
		"fee_basis_points":         uint64(100),
		"fee_recipient":            "",
		"rent_exempt_lamports":     uint64(DefaultRentExemptLamports),
		"program_id":               "",
		"require_pool_parity":      true,
		"max_exponential_factor":   curve.DefaultMaxExponentialFactor,
		"vesting.cliff_seconds":    vesting.Cliff,
		"vesting.duration_seconds": vesting.Duration,
		"storage.driver":           DriverMemory,
		"storage.path":             "data/curves",
		"storage.cache_size":       DefaultCacheSize,
		"postgres_url":             "",
		"event_buffer_size":        DefaultEventBufferSize,
		"persist_workers":          DefaultPersistWorkers,
	}
}

// LoadConfig reads path (JSON or YAML) over the defaults, then applies
// CURVE_* environment overrides. envFiles are loaded with godotenv first; with
// none given an optional .env in the working directory is used. An empty path
// skips the file.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.FeeBasisPoints > MaxFeeBasisPoints {
		return fmt.Errorf("fee_basis_points %d exceeds %d", cfg.FeeBasisPoints, MaxFeeBasisPoints)
	}
	if cfg.FeeBasisPoints > 0 && cfg.FeeRecipient == "" {
		return errors.New("fee_recipient is required when fees are charged")
	}
	if cfg.FeeRecipient != "" {
		if _, err := solana.PublicKeyFromBase58(cfg.FeeRecipient); err != nil {
			return fmt.Errorf("invalid fee_recipient: %w", err)
		}
	}
	if cfg.ProgramID != "" {
		if _, err := solana.PublicKeyFromBase58(cfg.ProgramID); err != nil {
			return fmt.Errorf("invalid program_id: %w", err)
		}
	}
	if cfg.Vesting.CliffSeconds < 0 {
		return errors.New("invalid vesting.cliff_seconds")
	}
	if cfg.Vesting.DurationSeconds <= 0 {
		return errors.New("invalid vesting.duration_seconds")
	}
	if cfg.MaxExponentialFactor == 0 {
		return errors.New("invalid max_exponential_factor")
	}
	switch cfg.Storage.Driver {
	case DriverMemory:
	case DriverPebble:
		if cfg.Storage.Path == "" {
			return errors.New("storage.path is required for pebble")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.CacheSize <= 0 {
		return errors.New("invalid storage.cache_size")
	}
	if cfg.PostgresURL != "" {
		parsed, err := url.Parse(cfg.PostgresURL)
		if err != nil || !strings.HasPrefix(parsed.Scheme, "postgres") {
			return errors.New("postgres_url must be a postgres:// URL")
		}
	}
	if cfg.EventBufferSize <= 0 {
		return errors.New("invalid event_buffer_size")
	}
	if cfg.PersistWorkers <= 0 {
		return errors.New("invalid persist_workers")
	}
	return nil
}

// CreateOptions maps the curve creation settings.
func (c *Config) CreateOptions() curve.CreateOptions {
	return curve.CreateOptions{
		RequirePoolParity:    c.RequirePoolParity,
		MaxExponentialFactor: c.MaxExponentialFactor,
		DefaultVestingTerms: curve.VestingTerms{
			Cliff:    c.Vesting.CliffSeconds,
			Duration: c.Vesting.DurationSeconds,
		},
	}
}

// FeeRecipientKey returns the parsed fee recipient, or the zero key when fees
// are disabled.
func (c *Config) FeeRecipientKey() solana.PublicKey {
	if c.FeeRecipient == "" {
		return solana.PublicKey{}
	}
	return solana.MustPublicKeyFromBase58(c.FeeRecipient)
}

// ProgramKey returns the configured program ID or fallback.
func (c *Config) ProgramKey(fallback solana.PublicKey) solana.PublicKey {
	if c.ProgramID == "" {
		return fallback
	}
	return solana.MustPublicKeyFromBase58(c.ProgramID)
}

// LoggerConfig builds the logger settings.
func (c *Config) LoggerConfig() *logger.Config {
	lc := logger.DefaultConfig()
	lc.LogFile = c.LogFile
	lc.Level = c.LogLevel
	lc.Development = c.Development
	return lc
}
