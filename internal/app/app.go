// Package app wires configuration, transport and dispatcher into one
// runnable gateway.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urim-raffle/gateway/adapters/telegram_receiver"
	"github.com/urim-raffle/gateway/adapters/telegram_sender"
	"github.com/urim-raffle/gateway/adapters/telegram_webhook"
	"github.com/urim-raffle/gateway/core"
	"github.com/urim-raffle/gateway/core/ops"
	"github.com/urim-raffle/gateway/core/policy"
	"github.com/urim-raffle/gateway/core/ratelimit"
	"github.com/urim-raffle/gateway/errs"
	"github.com/urim-raffle/gateway/internal/config"
)

// App owns every long-lived component of the gateway.
type App struct {
	cfg        config.Config
	logger     *slog.Logger
	startedAt  time.Time
	sender     *telegram_sender.Sender
	senders    *core.Registry
	dispatcher *core.Dispatcher
	receiver   core.Receiver
	server     *core.Server
}

// New builds the gateway. Configuration problems are reported here, before
// any network call is made.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	style, err := ops.ParseControlStyle(cfg.ControlStyle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}
	start, err := ops.NewStartOp(cfg.WebAppURL, cfg.ButtonLabel, style)
	if err != nil {
		return nil, err
	}
	opsReg := ops.NewRegistry()
	if err := opsReg.Register(start); err != nil {
		return nil, err
	}

	sender, err := telegram_sender.New(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	sender.WithBaseURL(cfg.APIBaseURL)

	senders := core.NewRegistry()
	if err := senders.Register(sender); err != nil {
		return nil, err
	}
	defaultSender, err := senders.Default()
	if err != nil {
		return nil, err
	}

	// Polling drops the backlog by offset; webhooks can only judge by date.
	startedAt := time.Now()
	byDate := cfg.SkipPending && cfg.ReceiveMode == config.ModeWebhook
	d := core.NewDispatcher(policy.New(startedAt, byDate), opsReg, defaultSender, logger).
		WithLimiter(ratelimit.New())

	a := &App{
		cfg:        cfg,
		logger:     logger,
		startedAt:  startedAt,
		sender:     sender,
		senders:    senders,
		dispatcher: d,
	}

	if cfg.HTTPAddr != "" {
		a.server = core.NewServer(cfg.HTTPAddr, a.status, logger)
	}

	switch cfg.ReceiveMode {
	case config.ModePolling, "":
		a.receiver = telegram_receiver.New(cfg.BotToken, d.Handle, logger).
			WithBaseURL(cfg.APIBaseURL).
			WithPollTimeout(cfg.PollTimeout).
			WithSkipPending(cfg.SkipPending)
	case config.ModeWebhook:
		if a.server == nil {
			return nil, fmt.Errorf("%w: webhook mode needs HTTP_ADDR", errs.ErrConfiguration)
		}
		a.server.HandleUpdates(cfg.WebhookPath, telegram_webhook.New(cfg.WebhookSecret, d.Handle, logger))
	default:
		return nil, fmt.Errorf("%w: unknown receive mode %q", errs.ErrConfiguration, cfg.ReceiveMode)
	}

	return a, nil
}

// Run verifies the bot token, then receives until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	username, err := a.sender.VerifyToken(ctx)
	if err != nil {
		return fmt.Errorf("verify bot token: %w", err)
	}
	a.dispatcher.SetBotUsername(username)
	a.logger.Info("gateway starting",
		"bot", username,
		"mode", a.mode(),
		"webapp_url", a.cfg.WebAppURL,
		"skip_pending", a.cfg.SkipPending,
	)

	if a.server != nil {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
		defer a.server.Shutdown()
	}

	if a.receiver != nil {
		return a.receiver.Start(ctx)
	}

	<-ctx.Done()
	a.logger.Info("gateway stopped")
	return nil
}

// Dispatcher exposes the command dispatcher.
func (a *App) Dispatcher() *core.Dispatcher { return a.dispatcher }

// Server returns the HTTP server, or nil when HTTP_ADDR is unset.
func (a *App) Server() *core.Server { return a.server }

func (a *App) mode() string {
	if a.cfg.ReceiveMode == "" {
		return config.ModePolling
	}
	return a.cfg.ReceiveMode
}

func (a *App) status() core.Status {
	return core.BuildStatus(a.startedAt, a.mode(), a.dispatcher, a.senders)
}
