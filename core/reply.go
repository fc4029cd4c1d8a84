package core

import (
	"time"

	"github.com/urim-raffle/gateway/core/ops"
)

// OutboundReply is a message to be delivered to a single chat.
type OutboundReply struct {
	ID        string             `json:"id"`
	ChatID    int64              `json:"chat_id"`
	Text      string             `json:"text"`
	Control   *ops.LaunchControl `json:"control,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}
