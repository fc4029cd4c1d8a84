package main

import (
	"fmt"
	"os"

	"github.com/urim-raffle/gateway/errs"
	"github.com/urim-raffle/gateway/internal/cli"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "raffle-gateway: %v\n", err)
		if errs.IsStartup(err) {
			return exitConfig
		}
		return exitRuntime
	}
	return exitOK
}
