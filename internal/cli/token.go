package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/urim-raffle/gateway/errs"
	"github.com/urim-raffle/gateway/internal/keychain"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the bot token stored in the OS keychain",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Read a bot token from stdin and store it in the keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		var token string
		if scanner.Scan() {
			token = strings.TrimSpace(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		if token == "" {
			return fmt.Errorf("%w: empty token on stdin", errs.ErrConfiguration)
		}
		if err := keychain.Set(keychain.AccountBotToken, token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "bot token stored in keychain")
		return nil
	},
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the bot token from the keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := keychain.Delete(keychain.AccountBotToken); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "bot token removed from keychain")
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd, tokenDeleteCmd)
	rootCmd.AddCommand(tokenCmd)
}
