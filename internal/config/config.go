package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/urim-raffle/gateway/errs"
	"github.com/urim-raffle/gateway/internal/keychain"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

var validate = validator.New()

// Config is the gateway configuration, read from the environment.
type Config struct {
	BotToken      string        `envconfig:"BOT_TOKEN" validate:"required"`
	WebAppURL     string        `envconfig:"WEBAPP_URL" default:"https://urim-raffle-miniapp.vercel.app" validate:"required"`
	ButtonLabel   string        `envconfig:"BUTTON_LABEL" default:"🎟 Enter Raffle" validate:"required"`
	ControlStyle  string        `envconfig:"CONTROL_STYLE" default:"keyboard" validate:"oneof=keyboard inline"`
	ReceiveMode   string        `envconfig:"RECEIVE_MODE" default:"polling" validate:"oneof=polling webhook"`
	SkipPending   bool          `envconfig:"SKIP_PENDING" default:"true"`
	PollTimeout   time.Duration `envconfig:"POLL_TIMEOUT" default:"30s" validate:"gte=0"`
	HTTPAddr      string        `envconfig:"HTTP_ADDR" validate:"required_if=ReceiveMode webhook"`
	WebhookPath   string        `envconfig:"WEBHOOK_PATH" default:"/webhook" validate:"startswith=/"`
	WebhookSecret string        `envconfig:"WEBHOOK_SECRET"`
	APIBaseURL    string        `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org" validate:"required"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

// Load reads .env (if present), the process environment and, when BOT_TOKEN
// is unset, the OS keychain. Missing or invalid values yield errs.ErrConfiguration.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}

	if cfg.BotToken == "" {
		token, err := keychain.Get(keychain.AccountBotToken)
		if err != nil && !errors.Is(err, keychain.ErrNotFound) {
			return Config{}, fmt.Errorf("%w: BOT_TOKEN is not set and keychain lookup failed: %w", errs.ErrConfiguration, err)
		}
		cfg.BotToken = token
	}
	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("%w: BOT_TOKEN is not set", errs.ErrConfiguration)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: invalid fields: %s", errs.ErrConfiguration, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
