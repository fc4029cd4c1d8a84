// Package errs holds the error kinds shared across the gateway.
// Callers wrap one of these with fmt.Errorf("%w: ...") and classify with errors.Is.
package errs

import "errors"

var (
	// ErrAuthentication means the bot token is missing or was rejected by Telegram.
	ErrAuthentication = errors.New("authentication failed")
	// ErrConfiguration means required static configuration is absent or invalid.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrDelivery means a single outbound reply could not be delivered.
	ErrDelivery = errors.New("delivery failed")
	// ErrChatUnreachable means Telegram refused delivery to a chat for good,
	// e.g. the user blocked the bot or it was removed from the group.
	// It is always wrapped together with ErrDelivery.
	ErrChatUnreachable = errors.New("chat unreachable")
	// ErrConnection means the inbound update stream broke.
	ErrConnection = errors.New("connection failed")
)

// IsStartup reports whether err belongs to a class that must abort the process
// before the receive loop begins.
func IsStartup(err error) bool {
	return errors.Is(err, ErrAuthentication) || errors.Is(err, ErrConfiguration)
}
