package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/urim-raffle/gateway/core/ops"
	"github.com/urim-raffle/gateway/core/policy"
	"github.com/urim-raffle/gateway/core/ratelimit"
	"github.com/urim-raffle/gateway/errs"
)

// Stats counts how inbound messages were resolved.
type Stats struct {
	Handled int64 `json:"handled"`
	Ignored int64 `json:"ignored"`
	Failed  int64 `json:"failed"`
	Paused  int64 `json:"paused_chats"`
}

// Dispatcher classifies inbound messages by command and runs the matching op.
// Messages that match no registered op are dropped without a reply.
type Dispatcher struct {
	policy  *policy.Policy
	ops     *ops.Registry
	sender  Sender
	limiter *ratelimit.Limiter
	botName string
	logger  *slog.Logger
	now     func() time.Time

	handled atomic.Int64
	ignored atomic.Int64
	failed  atomic.Int64
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(pol *policy.Policy, opsReg *ops.Registry, sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		policy: pol,
		ops:    opsReg,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// WithLimiter pauses replies to chats Telegram repeatedly reports as
// unreachable. Transient delivery failures never pause a chat.
func (d *Dispatcher) WithLimiter(l *ratelimit.Limiter) *Dispatcher {
	d.limiter = l
	return d
}

// SetBotUsername makes the dispatcher ignore commands addressed to other
// bots ("/start@OtherBot"). It must be called before dispatching begins.
func (d *Dispatcher) SetBotUsername(name string) {
	d.botName = name
}

// Handle is a MessageHandler. Failures are logged and counted; the caller
// keeps receiving.
func (d *Dispatcher) Handle(ctx context.Context, msg InboundMessage) {
	_ = d.Dispatch(ctx, msg)
}

// Dispatch processes one inbound message: admit, parse, execute, send.
// It returns the delivery or op error, if any, after logging it.
func (d *Dispatcher) Dispatch(ctx context.Context, msg InboundMessage) error {
	if err := d.policy.Admit(msg.Timestamp); err != nil {
		d.ignored.Add(1)
		d.logger.Debug("message skipped by policy", "chat_id", msg.ChatID, "update_id", msg.UpdateID, "error", err)
		return nil
	}

	cmd, target, args := parseCommand(msg.Text)
	if cmd == "" {
		d.ignored.Add(1)
		return nil
	}
	if target != "" && d.botName != "" && !strings.EqualFold(target, d.botName) {
		d.ignored.Add(1)
		d.logger.Debug("command addressed to another bot", "chat_id", msg.ChatID, "command", cmd, "target", target)
		return nil
	}

	op := d.ops.Get(ops.Kind(cmd))
	if op == nil {
		d.ignored.Add(1)
		d.logger.Debug("unrecognized command", "chat_id", msg.ChatID, "command", cmd)
		return nil
	}

	if d.limiter != nil {
		if err := d.limiter.Check(msg.ChatID); err != nil {
			d.ignored.Add(1)
			d.logger.Debug("reply suppressed", "chat_id", msg.ChatID, "error", err)
			return nil
		}
	}

	result, err := op.Execute(ctx, ops.Request{ChatID: msg.ChatID, UserID: msg.UserID, Args: args})
	if err != nil {
		d.failed.Add(1)
		d.logger.Error("op failed", "op", cmd, "chat_id", msg.ChatID, "error", err)
		return fmt.Errorf("op %s: %w", cmd, err)
	}

	reply := OutboundReply{
		ID:        uuid.New().String(),
		ChatID:    msg.ChatID,
		Text:      result.Text,
		Control:   result.Control,
		CreatedAt: d.now(),
	}

	if err := d.sender.Send(ctx, reply); err != nil {
		if !errors.Is(err, errs.ErrDelivery) {
			err = fmt.Errorf("%w: %w", errs.ErrDelivery, err)
		}
		d.failed.Add(1)
		if d.limiter != nil && errors.Is(err, errs.ErrChatUnreachable) {
			d.limiter.RecordFailure(msg.ChatID)
		}
		d.logger.Error("failed to send reply", "op", cmd, "chat_id", msg.ChatID, "reply_id", reply.ID, "sender", d.sender.Name(), "error", err)
		return err
	}

	if d.limiter != nil {
		d.limiter.Reset(msg.ChatID)
	}
	d.handled.Add(1)
	d.logger.Info("reply sent", "op", cmd, "chat_id", msg.ChatID, "reply_id", reply.ID)
	return nil
}

// Stats returns a snapshot of the dispatch counters.
func (d *Dispatcher) Stats() Stats {
	s := Stats{
		Handled: d.handled.Load(),
		Ignored: d.ignored.Load(),
		Failed:  d.failed.Load(),
	}
	if d.limiter != nil {
		s.Paused = int64(d.limiter.Paused())
	}
	return s
}

// Ops returns the registered operations.
func (d *Dispatcher) Ops() []ops.Op {
	return d.ops.List()
}

// parseCommand extracts the command name, the addressed bot and the
// arguments from a message. It handles "/command", "/command args", and
// "/command@botname args".
func parseCommand(text string) (cmd, target, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", ""
	}

	text = text[1:] // strip leading "/"
	parts := strings.SplitN(text, " ", 2)
	cmd = parts[0]
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	if at := strings.Index(cmd, "@"); at != -1 {
		cmd, target = cmd[:at], cmd[at+1:]
	}

	cmd = strings.ToLower(cmd)
	return cmd, target, args
}
