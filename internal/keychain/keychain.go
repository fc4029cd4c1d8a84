package keychain

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "urim-raffle-gateway"

	// AccountBotToken is the keychain account holding the Telegram bot token.
	AccountBotToken = "bot-token"
)

// ErrNotFound is returned when no secret is stored for an account.
var ErrNotFound = keyring.ErrNotFound

// Get retrieves a secret from the system keychain.
func Get(account string) (string, error) {
	return keyring.Get(serviceName, account)
}

// Set stores a secret in the system keychain.
func Set(account, value string) error {
	return keyring.Set(serviceName, account, value)
}

// Delete removes a secret. Deleting a missing secret is not an error.
func Delete(account string) error {
	if err := keyring.Delete(serviceName, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
