package telegram_webhook

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-telegram/bot/models"

	"github.com/urim-raffle/gateway/adapters/telegram_receiver"
	"github.com/urim-raffle/gateway/core"
)

const (
	secretHeader   = "X-Telegram-Bot-Api-Secret-Token"
	maxUpdateBytes = 1 << 20
)

// Handler accepts updates pushed by Telegram to a webhook URL.
// Each request carries a single update and is dispatched before the
// response is written.
type Handler struct {
	secret  string
	handler core.MessageHandler
	logger  *slog.Logger
}

// New creates a webhook handler. If secret is non-empty, requests must carry
// it in the X-Telegram-Bot-Api-Secret-Token header.
func New(secret string, handler core.MessageHandler, logger *slog.Logger) *Handler {
	return &Handler{secret: secret, handler: handler, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.Warn("webhook request with bad secret", "remote", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var u models.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&u); err != nil {
		h.logger.Warn("invalid webhook payload", "error", err)
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	if msg, ok := telegram_receiver.ToInbound(u); ok {
		h.handler(r.Context(), msg)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true}`))
}
