package ops

import (
	"context"
	"fmt"

	"github.com/urim-raffle/gateway/errs"
)

const (
	DefaultLaunchURL   = "https://urim-raffle-miniapp.vercel.app"
	DefaultButtonLabel = "🎟 Enter Raffle"

	WelcomeText = "Welcome to URIM 50/50 Raffle!\n" +
		"Current pot is growing fast 🔥\n" +
		"Buy tickets instantly with your wallet 👇"
)

// StartOp greets the user and offers the raffle mini-app.
type StartOp struct {
	control LaunchControl
}

// NewStartOp builds the /start op. The launch URL is kept verbatim; an empty
// URL or label is a configuration error.
func NewStartOp(launchURL, label string, style ControlStyle) (*StartOp, error) {
	if launchURL == "" {
		return nil, fmt.Errorf("%w: launch URL is empty", errs.ErrConfiguration)
	}
	if label == "" {
		return nil, fmt.Errorf("%w: launch button label is empty", errs.ErrConfiguration)
	}
	if style == "" {
		style = StyleKeyboard
	}
	return &StartOp{control: LaunchControl{Label: label, URL: launchURL, Style: style}}, nil
}

func (s *StartOp) Kind() Kind          { return KindStart }
func (s *StartOp) Description() string { return "Open the URIM 50/50 raffle" }

// Execute returns a fresh reply on every call; nothing is shared between replies.
func (s *StartOp) Execute(_ context.Context, _ Request) (Reply, error) {
	control := s.control
	return Reply{Text: WelcomeText, Control: &control}, nil
}
