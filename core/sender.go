package core

import "context"

//go:generate mockgen -source=sender.go -destination=mocks/mock_sender.go -package=mocks

// Sender delivers replies to an external chat platform.
type Sender interface {
	Name() string
	Send(ctx context.Context, r OutboundReply) error
}
