package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "raffle-gateway",
	Short: "Telegram front end for the URIM 50/50 raffle",
	Long: `raffle-gateway answers /start in Telegram with a button that opens the
URIM 50/50 raffle mini-app. Configuration is read from the environment
(and an optional .env file); the bot token may also live in the OS keychain.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runGateway,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
