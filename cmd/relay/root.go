package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay - chat relay with per-conversation memory",
	Long: `Relay answers chat messages with an OpenAI-compatible completion model.

Each conversation keeps a short rolling history, automated replies can be
switched on and off with chat commands, and every answered exchange is
recorded in an append-only ledger.

Without --config, configuration comes from defaults and RELAY_* environment
variables; OPENAI_TOKEN and TELEGRAM_TOKEN are honoured for credentials.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the error's exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("RELAY_CONFIG"), "config file path (env RELAY_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
