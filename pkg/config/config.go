// Package config loads process settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingBaseURL is returned when REMOTE_API_BASE_URL is not set.
var ErrMissingBaseURL = errors.New("REMOTE_API_BASE_URL is required")

// Config holds every setting of the app. Empty infrastructure settings
// select the in-process fallback for that concern.
type Config struct {
	HTTPPort         string        `mapstructure:"HTTP_PORT"`
	RemoteAPIBaseURL string        `mapstructure:"REMOTE_API_BASE_URL"`
	RemoteAPITimeout time.Duration `mapstructure:"REMOTE_API_TIMEOUT"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogFile       string `mapstructure:"LOG_FILE"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`

	InstanceID     string `mapstructure:"INSTANCE_ID"`
	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	CueExchange    string `mapstructure:"CUE_EXCHANGE"`
	CueQueuePrefix string `mapstructure:"CUE_QUEUE_PREFIX"`

	RedisURL         string        `mapstructure:"REDIS_URL"`
	RedisKeyPrefix   string        `mapstructure:"REDIS_KEY_PREFIX"`
	PINMaxAttempts   int           `mapstructure:"PIN_MAX_ATTEMPTS"`
	PINAttemptWindow time.Duration `mapstructure:"PIN_ATTEMPT_WINDOW"`

	DynamoDBReceiptsTableName string `mapstructure:"DYNAMODB_RECEIPTS_TABLE_NAME"`
	SQSQueueURL               string `mapstructure:"SQS_QUEUE_URL"`

	SwapSettlementDelay      time.Duration `mapstructure:"SWAP_SETTLEMENT_DELAY"`
	ExchangeRatePollInterval time.Duration `mapstructure:"EXCHANGE_RATE_POLL_INTERVAL"`
	SessionIdleTimeout       time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
}

var defaults = map[string]any{
	"HTTP_PORT":                    "8080",
	"REMOTE_API_TIMEOUT":           "30s",
	"LOG_LEVEL":                    "info",
	"LOG_FORMAT":                   "console",
	"LOG_MAX_SIZE_MB":              100,
	"LOG_MAX_BACKUPS":              3,
	"CUE_EXCHANGE":                 "moneymovement.cues",
	"CUE_QUEUE_PREFIX":             "moneymovement.cues",
	"REDIS_KEY_PREFIX":             "moneymovement:pin_attempts",
	"PIN_MAX_ATTEMPTS":             5,
	"PIN_ATTEMPT_WINDOW":           "15m",
	"SWAP_SETTLEMENT_DELAY":        "3m",
	"EXCHANGE_RATE_POLL_INTERVAL":  "30s",
	"SESSION_IDLE_TIMEOUT":         "15m",
	"LOG_FILE":                     "",
	"INSTANCE_ID":                  "",
	"RABBITMQ_URL":                 "",
	"REDIS_URL":                    "",
	"DYNAMODB_RECEIPTS_TABLE_NAME": "",
	"SQS_QUEUE_URL":                "",
	"REMOTE_API_BASE_URL":          "",
}

// Load reads path/.env when present, then the environment. Environment
// values win over the file.
func Load(path string) (Config, error) {
	var cfg Config

	// godotenv never overrides variables that are already set.
	_ = godotenv.Load(strings.TrimRight(path, "/") + "/.env")

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
		_ = v.BindEnv(key)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.RemoteAPIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.RemoteAPIBaseURL), "/")
	if cfg.RemoteAPIBaseURL == "" {
		return cfg, ErrMissingBaseURL
	}
	if cfg.PINMaxAttempts <= 0 {
		return cfg, fmt.Errorf("PIN_MAX_ATTEMPTS must be positive, got %d", cfg.PINMaxAttempts)
	}
	if cfg.SwapSettlementDelay <= 0 {
		return cfg, fmt.Errorf("SWAP_SETTLEMENT_DELAY must be positive, got %s", cfg.SwapSettlementDelay)
	}
	if cfg.ExchangeRatePollInterval <= 0 {
		return cfg, fmt.Errorf("EXCHANGE_RATE_POLL_INTERVAL must be positive, got %s", cfg.ExchangeRatePollInterval)
	}
	if cfg.SessionIdleTimeout <= 0 {
		return cfg, fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", cfg.SessionIdleTimeout)
	}
	return cfg, nil
}
