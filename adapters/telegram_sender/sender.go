package telegram_sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/urim-raffle/gateway/core"
	"github.com/urim-raffle/gateway/core/ops"
	"github.com/urim-raffle/gateway/errs"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	maxTextRunes   = 4096
)

type sendMessageRequest struct {
	ChatID      int64  `json:"chat_id"`
	Text        string `json:"text"`
	ReplyMarkup any    `json:"reply_markup,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// Sender delivers replies via the Telegram Bot API.
type Sender struct {
	botToken string
	client   *http.Client
	baseURL  string
}

// New creates a Telegram sender. An empty token is a configuration error.
func New(botToken string) (*Sender, error) {
	if botToken == "" {
		return nil, fmt.Errorf("%w: bot token is empty", errs.ErrConfiguration)
	}
	return &Sender{
		botToken: botToken,
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  defaultBaseURL,
	}, nil
}

// WithBaseURL sets a custom base URL (for testing).
func (s *Sender) WithBaseURL(baseURL string) *Sender {
	s.baseURL = baseURL
	return s
}

func (s *Sender) Name() string { return "telegram" }

// Send performs exactly one sendMessage call. Failures are wrapped in
// errs.ErrDelivery and never retried. A 403 additionally carries
// errs.ErrChatUnreachable.
func (s *Sender) Send(ctx context.Context, r core.OutboundReply) error {
	text := []rune(r.Text)
	if len(text) == 0 {
		return fmt.Errorf("%w: empty text", errs.ErrDelivery)
	}
	if len(text) > maxTextRunes {
		return fmt.Errorf("%w: text exceeds %d characters", errs.ErrDelivery, maxTextRunes)
	}

	payload := sendMessageRequest{
		ChatID: r.ChatID,
		Text:   r.Text,
	}
	if r.Control != nil {
		markup, err := Markup(*r.Control)
		if err != nil {
			return fmt.Errorf("%w: %w", errs.ErrDelivery, err)
		}
		payload.ReplyMarkup = markup
	}

	if _, err := s.call(ctx, "sendMessage", payload); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrDelivery, err)
	}
	return nil
}

// VerifyToken calls getMe and returns the bot's username. A token Telegram
// rejects yields errs.ErrAuthentication.
func (s *Sender) VerifyToken(ctx context.Context) (string, error) {
	raw, err := s.call(ctx, "getMe", nil)
	if err != nil {
		if errors.Is(err, errs.ErrAuthentication) {
			return "", err
		}
		return "", fmt.Errorf("%w: getMe: %w", errs.ErrConnection, err)
	}
	var me models.User
	if err := json.Unmarshal(raw, &me); err != nil {
		return "", fmt.Errorf("%w: decode getMe: %w", errs.ErrConnection, err)
	}
	return me.Username, nil
}

// Markup renders a launch control as Telegram reply markup with a web_app button.
func Markup(c ops.LaunchControl) (any, error) {
	webApp := &models.WebAppInfo{URL: c.URL}
	switch c.Style {
	case ops.StyleKeyboard, "":
		return models.ReplyKeyboardMarkup{
			Keyboard: [][]models.KeyboardButton{
				{{Text: c.Label, WebApp: webApp}},
			},
			ResizeKeyboard: true,
		}, nil
	case ops.StyleInline:
		return models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{
				{{Text: c.Label, WebApp: webApp}},
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown control style %q", c.Style)
	}
}

func (s *Sender) call(ctx context.Context, method string, body any) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", s.baseURL, s.botToken, method)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode %s: %w", method, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// The URL carries the token; report only the cause.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: telegram API error %d: %s", errs.ErrAuthentication, resp.StatusCode, apiResp.Description)
	}
	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: telegram API error %d: %s", errs.ErrChatUnreachable, resp.StatusCode, apiResp.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram API error %d: %s", resp.StatusCode, apiResp.Description)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, decodeErr)
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("telegram API returned ok=false: %s", apiResp.Description)
	}
	return apiResp.Result, nil
}
