package telegram_receiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/urim-raffle/gateway/core"
	"github.com/urim-raffle/gateway/errs"
)

const (
	defaultBaseURL     = "https://api.telegram.org"
	defaultPollTimeout = 30 * time.Second
	httpTimeoutSlack   = 5 * time.Second
	errorBackoff       = 5 * time.Second
)

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// Receiver long-polls Telegram for inbound messages.
type Receiver struct {
	botToken    string
	handler     core.MessageHandler
	logger      *slog.Logger
	client      *http.Client
	baseURL     string
	pollTimeout time.Duration
	backoff     time.Duration
	skipPending bool
	offset      int64
}

// New creates a Telegram receiver.
func New(botToken string, handler core.MessageHandler, logger *slog.Logger) *Receiver {
	return &Receiver{
		botToken:    botToken,
		handler:     handler,
		logger:      logger,
		client:      &http.Client{Timeout: defaultPollTimeout + httpTimeoutSlack},
		baseURL:     defaultBaseURL,
		pollTimeout: defaultPollTimeout,
		backoff:     errorBackoff,
	}
}

// WithBaseURL overrides the Telegram API base URL (for testing).
func (r *Receiver) WithBaseURL(url string) *Receiver {
	r.baseURL = url
	return r
}

// WithPollTimeout sets the long-poll timeout sent to getUpdates.
func (r *Receiver) WithPollTimeout(d time.Duration) *Receiver {
	r.pollTimeout = d
	r.client.Timeout = d + httpTimeoutSlack
	return r
}

// WithBackoff sets the pause after a failed poll.
func (r *Receiver) WithBackoff(d time.Duration) *Receiver {
	r.backoff = d
	return r
}

// WithSkipPending drops the update backlog queued while the bot was offline.
// The backlog is discarded by advancing the offset, so no message date is
// compared with the local clock.
func (r *Receiver) WithSkipPending(skip bool) *Receiver {
	r.skipPending = skip
	return r
}

// Start begins the long-poll loop. Blocks until ctx is cancelled.
// Transient poll failures are logged and retried after a backoff; a rejected
// token ends the loop with errs.ErrAuthentication.
func (r *Receiver) Start(ctx context.Context) error {
	r.logger.Info("telegram receiver started")
	pending := r.skipPending
	for {
		if err := ctx.Err(); err != nil {
			r.logger.Info("telegram receiver stopped")
			return nil
		}

		var updates []models.Update
		var err error
		if pending {
			err = r.dropPending(ctx)
			if err == nil {
				pending = false
				continue
			}
		} else {
			updates, err = r.poll(ctx)
		}
		if err != nil {
			if ctx.Err() != nil {
				r.logger.Info("telegram receiver stopped")
				return nil
			}
			if errors.Is(err, errs.ErrAuthentication) {
				r.logger.Error("telegram rejected bot token", "error", err)
				return err
			}
			r.logger.Error("poll error", "error", err)
			select {
			case <-time.After(r.backoff):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		for _, u := range updates {
			msg, ok := ToInbound(u)
			if ok {
				r.handler(ctx, msg)
			}
			r.offset = int64(u.ID) + 1
		}
	}
}

// dropPending asks for the newest queued update only and moves the offset
// past it. The next poll confirms it, which discards the whole backlog.
func (r *Receiver) dropPending(ctx context.Context) error {
	updates, err := r.getUpdates(ctx, -1, 0)
	if err != nil {
		return err
	}
	if len(updates) > 0 {
		r.offset = int64(updates[len(updates)-1].ID) + 1
		r.logger.Info("dropped pending updates", "next_offset", r.offset)
	}
	return nil
}

func (r *Receiver) poll(ctx context.Context) ([]models.Update, error) {
	return r.getUpdates(ctx, r.offset, r.pollTimeout)
}

func (r *Receiver) getUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]models.Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	params.Set("allowed_updates", `["message"]`)
	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", r.baseURL, r.botToken, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		// The URL carries the token; report only the cause.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("%w: http get: %w", errs.ErrConnection, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusNotFound:
		return nil, fmt.Errorf("%w: getUpdates status %d", errs.ErrAuthentication, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: api status: %d", errs.ErrConnection, resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", errs.ErrConnection, err)
	}

	if !apiResp.OK {
		return nil, fmt.Errorf("%w: api returned ok=false: %s", errs.ErrConnection, apiResp.Description)
	}

	var updates []models.Update
	if err := json.Unmarshal(apiResp.Result, &updates); err != nil {
		return nil, fmt.Errorf("%w: decode updates: %w", errs.ErrConnection, err)
	}

	return updates, nil
}
