package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/consent"
	"mercator-hq/relay/pkg/ledger"
)

var gateFlags struct {
	output string
}

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Inspect or change reply switches",
	Long: `Inspect or change reply switches in the ledger store.

Keys are scope-prefixed: "conversation:<id>", "principal:<id>", or "*" for
the global switch. A bare id is prefixed with the configured gate scope.
Changes made here are seen by a running relay on its next message.`,
}

var gateStatusCmd = &cobra.Command{
	Use:   "status [key]",
	Short: "Show whether automated replies are enabled",
	Example: `  relay gate status conversation:123456
  relay gate status 123456 --output json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGateStatus,
}

var gateSetCmd = &cobra.Command{
	Use:     "set <key> on|off",
	Short:   "Enable or disable automated replies",
	Example: `  relay gate set conversation:123456 on`,
	Args:    cobra.ExactArgs(2),
	RunE:    runGateSet,
}

func init() {
	rootCmd.AddCommand(gateCmd)
	gateCmd.AddCommand(gateStatusCmd, gateSetCmd)
	gateStatusCmd.Flags().StringVarP(&gateFlags.output, "output", "o", "table", "output format (table, json, csv)")
}

// gateKey turns a CLI argument into a store key using the configured scope.
func gateKey(scope consent.Scope, args []string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		if scope == consent.ScopeGlobal {
			return consent.GlobalKey, nil
		}
		return "", fmt.Errorf("a key is required for %s scope", scope)
	}
	key := args[0]
	if key == consent.GlobalKey || strings.Contains(key, ":") {
		return key, nil
	}
	if scope == consent.ScopeGlobal {
		return consent.GlobalKey, nil
	}
	return string(scope) + ":" + key, nil
}

func openGate() (*consent.Gate, ledger.Store, error) {
	cfg, err := config.LoadStoreConfig(cfgFile)
	if err != nil {
		return nil, nil, cli.NewConfigError(cfgFile, err)
	}
	scope, err := consent.ParseScope(cfg.Gate.Scope)
	if err != nil {
		return nil, nil, cli.NewConfigError(cfgFile, err)
	}
	store, _, err := openStore(&cfg.Ledger)
	if err != nil {
		return nil, nil, err
	}
	return consent.New(consent.Config{Scope: scope, Store: store}), store, nil
}

type gateRow struct {
	Key       string    `json:"key"`
	Enabled   bool      `json:"enabled"`
	Stored    bool      `json:"stored"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

func runGateStatus(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(gateFlags.output)
	if err != nil {
		return err
	}
	gate, store, err := openGate()
	if err != nil {
		return err
	}
	defer store.Close()

	key, err := gateKey(gate.Scope(), args)
	if err != nil {
		return err
	}

	state, found, err := store.GateState(context.Background(), key)
	if err != nil {
		return cli.NewCommandError("gate status", err)
	}
	row := gateRow{Key: key, Stored: found}
	if found {
		row.Enabled = state.Enabled
		row.UpdatedAt = state.UpdatedAt
	}

	updated := "-"
	if found {
		updated = row.UpdatedAt.UTC().Format(time.RFC3339)
	}
	t := &cli.Table{
		Headers: []string{"KEY", "ENABLED", "UPDATED"},
		Rows:    [][]string{{row.Key, onOff(row.Enabled), updated}},
		Data:    row,
	}
	return t.Write(cmd.OutOrStdout(), format)
}

func runGateSet(cmd *cobra.Command, args []string) error {
	var enabled bool
	switch strings.ToLower(args[1]) {
	case "on", "enable", "enabled", "true":
		enabled = true
	case "off", "disable", "disabled", "false":
	default:
		return fmt.Errorf("invalid state %q (want on or off)", args[1])
	}

	gate, store, err := openGate()
	if err != nil {
		return err
	}
	defer store.Close()

	key, err := gateKey(gate.Scope(), args[:1])
	if err != nil {
		return err
	}
	got, err := gate.Set(context.Background(), key, enabled)
	if err != nil {
		return cli.NewCommandError("gate set", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is %s\n", key, onOff(got))
	return nil
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
