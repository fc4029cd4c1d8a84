package telegram_receiver

import (
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/urim-raffle/gateway/core"
)

// ToInbound converts a Telegram update into an InboundMessage. It reports
// false for updates that carry no text message.
func ToInbound(u models.Update) (core.InboundMessage, bool) {
	if u.Message == nil || u.Message.Text == "" {
		return core.InboundMessage{}, false
	}

	var userID int64
	if u.Message.From != nil {
		userID = int64(u.Message.From.ID)
	}

	return core.InboundMessage{
		UpdateID:  int64(u.ID),
		ChatID:    int64(u.Message.Chat.ID),
		UserID:    userID,
		Text:      u.Message.Text,
		Timestamp: time.Unix(int64(u.Message.Date), 0),
	}, true
}
