package config

import (
	"fmt"
	"time"

	bidding "agentbay/internal/biddingService"
	"agentbay/internal/repository"
	"agentbay/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the runtime settings of the auction server
type Config struct {
	Port             string
	DBDriver         string
	DBDSN            string
	LogLevel         string
	LogFormat        string
	BidLockTimeout   time.Duration
	BidMaxAttempts   int
	BidIncrements    bidding.IncrementPolicy
	AutoBidEnabled   bool
	AutoBidQueueSize int
	AutoBidMaxRounds int
	ReconcileOnStart bool
	SeedDemoData     bool
}

// Load reads an optional .env file and the process environment
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		utils.Debug("no env file loaded", map[string]any{"files": envFiles, "error": err.Error()})
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:             v.GetString("PORT"),
		DBDriver:         v.GetString("DB_DRIVER"),
		DBDSN:            v.GetString("DB_DSN"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		BidLockTimeout:   v.GetDuration("BID_LOCK_TIMEOUT"),
		BidMaxAttempts:   v.GetInt("BID_MAX_ATTEMPTS"),
		AutoBidEnabled:   v.GetBool("AUTOBID_ENABLED"),
		AutoBidQueueSize: v.GetInt("AUTOBID_QUEUE_SIZE"),
		AutoBidMaxRounds: v.GetInt("AUTOBID_MAX_ROUNDS"),
		ReconcileOnStart: v.GetBool("RECONCILE_ON_START"),
		SeedDemoData:     v.GetBool("SEED_DEMO_DATA"),
	}
	increments, err := bidding.ParseIncrementPolicy(v.GetString("BID_INCREMENT_TIERS"))
	if err != nil {
		return nil, fmt.Errorf("config: BID_INCREMENT_TIERS: %w", err)
	}
	cfg.BidIncrements = increments

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DRIVER", repository.DriverSQLite)
	v.SetDefault("DB_DSN", "agentbay.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("BID_LOCK_TIMEOUT", 5*time.Second)
	v.SetDefault("BID_MAX_ATTEMPTS", 3)
	v.SetDefault("BID_INCREMENT_TIERS", bidding.DefaultIncrementPolicy().String())
	v.SetDefault("AUTOBID_ENABLED", false)
	v.SetDefault("AUTOBID_QUEUE_SIZE", 256)
	v.SetDefault("AUTOBID_MAX_ROUNDS", 100)
	v.SetDefault("RECONCILE_ON_START", true)
	v.SetDefault("SEED_DEMO_DATA", false)
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	switch c.DBDriver {
	case repository.DriverSQLite, repository.DriverPostgres:
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("config: DB_DSN is required")
	}
	if c.Port == "" {
		return fmt.Errorf("config: PORT is required")
	}
	if c.BidLockTimeout <= 0 {
		return fmt.Errorf("config: BID_LOCK_TIMEOUT must be positive, got %s", c.BidLockTimeout)
	}
	if c.BidMaxAttempts <= 0 {
		return fmt.Errorf("config: BID_MAX_ATTEMPTS must be positive, got %d", c.BidMaxAttempts)
	}
	if c.AutoBidEnabled && (c.AutoBidQueueSize <= 0 || c.AutoBidMaxRounds <= 0) {
		return fmt.Errorf("config: AUTOBID_QUEUE_SIZE and AUTOBID_MAX_ROUNDS must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}
