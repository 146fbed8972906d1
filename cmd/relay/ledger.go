package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/ledger"
)

var ledgerFlags struct {
	conversation string
	principal    string
	since        string
	until        string
	limit        int
	offset       int
	output       string
	width        int
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the exchange ledger",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded exchanges, newest first",
	Long: `List recorded exchanges, newest first.

--since and --until accept an RFC3339 timestamp or a duration before now.

Examples:
  # Last 20 exchanges
  relay ledger list --limit 20

  # One conversation over the last day, as JSON
  relay ledger list --conversation 123456 --since 24h --output json

  # Export a principal's exchanges
  relay ledger list --principal 42 --output csv > exchanges.csv`,
	Args: cobra.NoArgs,
	RunE: runLedgerList,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerListCmd)

	f := ledgerListCmd.Flags()
	f.StringVar(&ledgerFlags.conversation, "conversation", "", "filter by conversation id")
	f.StringVar(&ledgerFlags.principal, "principal", "", "filter by principal id")
	f.StringVar(&ledgerFlags.since, "since", "", "only records at or after this time")
	f.StringVar(&ledgerFlags.until, "until", "", "only records before this time")
	f.IntVar(&ledgerFlags.limit, "limit", ledger.DefaultQueryLimit, "maximum number of records")
	f.IntVar(&ledgerFlags.offset, "offset", 0, "records to skip")
	f.StringVarP(&ledgerFlags.output, "output", "o", "table", "output format (table, json, csv)")
	f.IntVar(&ledgerFlags.width, "width", 40, "truncate message text in table output")
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(ledgerFlags.output)
	if err != nil {
		return err
	}

	now := time.Now()
	query := &ledger.Query{
		ConversationID: ledgerFlags.conversation,
		PrincipalID:    ledgerFlags.principal,
		Limit:          ledgerFlags.limit,
		Offset:         ledgerFlags.offset,
	}
	if query.Since, err = parseTimeFlag(ledgerFlags.since, now); err != nil {
		return fmt.Errorf("--since: %w", err)
	}
	if query.Until, err = parseTimeFlag(ledgerFlags.until, now); err != nil {
		return fmt.Errorf("--until: %w", err)
	}

	cfg, err := config.LoadStoreConfig(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	store, _, err := openStore(&cfg.Ledger)
	if err != nil {
		return cli.NewCommandError("ledger list", err)
	}
	defer store.Close()

	records, err := store.Records(context.Background(), query)
	if err != nil {
		return cli.NewCommandError("ledger list", err)
	}

	return recordTable(records, format, ledgerFlags.width).Write(cmd.OutOrStdout(), format)
}

func recordTable(records []*ledger.Record, format cli.OutputFormat, width int) *cli.Table {
	t := &cli.Table{
		Headers: []string{"CREATED", "CONVERSATION", "PRINCIPAL", "NAME", "MODEL", "TOKENS", "USER", "ASSISTANT", "ID"},
		Data:    records,
	}
	if records == nil {
		t.Data = []*ledger.Record{}
	}

	for _, r := range records {
		userText, assistantText := r.UserText, r.AssistantText
		if format == cli.FormatTable {
			userText = cli.Truncate(userText, width)
			assistantText = cli.Truncate(assistantText, width)
		}
		t.Rows = append(t.Rows, []string{
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.ConversationID,
			r.PrincipalID,
			r.DisplayName,
			r.Model,
			strconv.Itoa(r.PromptTokens) + "+" + strconv.Itoa(r.CompletionTokens),
			userText,
			assistantText,
			r.ID,
		})
	}
	return t
}

// parseTimeFlag accepts an RFC3339 time or a duration before now. Empty
// means no bound.
func parseTimeFlag(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return time.Time{}, fmt.Errorf("invalid time %q (want RFC3339 or a positive duration like 24h)", s)
	}
	return now.Add(-d), nil
}
