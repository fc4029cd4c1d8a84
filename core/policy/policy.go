package policy

import (
	"fmt"
	"time"
)

// ClockSkew is how far the local clock may run ahead of Telegram's before
// fresh messages start being mistaken for pending ones.
const ClockSkew = 10 * time.Second

// Policy decides whether an inbound message is still worth answering.
// When pending updates are skipped, anything sent before the gateway
// started is dropped, so a restart does not replay a backlog of /start.
type Policy struct {
	notBefore time.Time
}

// New creates a Policy. If skipPending is false every message is admitted.
func New(startedAt time.Time, skipPending bool) *Policy {
	if !skipPending {
		return &Policy{}
	}
	// Telegram dates have second resolution and come from Telegram's clock.
	return &Policy{notBefore: startedAt.Truncate(time.Second).Add(-ClockSkew)}
}

// Admit returns an error if a message sent at timestamp must be ignored.
func (p *Policy) Admit(timestamp time.Time) error {
	if p.notBefore.IsZero() {
		return nil
	}
	if timestamp.Before(p.notBefore) {
		return fmt.Errorf("pending message: sent %v before start", p.notBefore.Sub(timestamp).Truncate(time.Second))
	}
	return nil
}
