package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/netplane/internal/audit"
)

var (
	historySource string
	historyAction string
	historyType   string
	historyFailed bool
	historySince  time.Duration
	historyLimit  int
	historyStats  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show audited commands",
	Long: `Query the audit trail of executed commands, newest first.

Examples:
  netplane history --failed
  netplane history --type tcp-lb --since 1h
  netplane history --stats`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	f := historyCmd.Flags()
	f.StringVar(&historySource, "source", "", "only commands from this source (cli, shell, console, grpc)")
	f.StringVar(&historyAction, "action", "", "only this action (add, remove, list, ...)")
	f.StringVar(&historyType, "type", "", "only this resource type")
	f.BoolVar(&historyFailed, "failed", false, "only failed commands")
	f.DurationVar(&historySince, "since", 0, "only commands newer than this")
	f.IntVarP(&historyLimit, "limit", "n", 50, "maximum number of entries")
	f.BoolVar(&historyStats, "stats", false, "print a summary instead of entries")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig("warn")
	if err != nil {
		return err
	}
	store, err := audit.NewSQLiteStore(audit.Config{Path: cfg.Audit.Path})
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if historyStats {
		st, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "total:  %d\n", st.Total)
		fmt.Fprintf(out, "failed: %d\n", st.Failed)
		if st.Total > 0 {
			fmt.Fprintf(out, "range:  %s .. %s\n",
				st.Oldest.Local().Format(time.RFC3339), st.Newest.Local().Format(time.RFC3339))
		}
		codes := make([]string, 0, len(st.ByCode))
		for c := range st.ByCode {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		for _, c := range codes {
			fmt.Fprintf(out, "  %-24s %d\n", c, st.ByCode[c])
		}
		return nil
	}

	filter := audit.Filter{
		Source:     historySource,
		Action:     historyAction,
		Type:       historyType,
		FailedOnly: historyFailed,
		Limit:      historyLimit,
	}
	if historySince > 0 {
		filter.Since = time.Now().Add(-historySince)
	}

	entries, err := store.Query(ctx, filter)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "(empty)")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintln(out, e.String())
	}
	return nil
}
