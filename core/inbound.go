package core

import (
	"context"
	"time"
)

// InboundMessage represents a message received from Telegram.
type InboundMessage struct {
	UpdateID  int64
	ChatID    int64
	UserID    int64
	Text      string
	Timestamp time.Time
}

// MessageHandler processes an inbound message. It returns once the message
// has been fully handled, so the receiver does not poll again before that.
type MessageHandler func(ctx context.Context, msg InboundMessage)
