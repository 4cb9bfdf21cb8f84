package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clipexport/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent export runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				if len(args) == 1 {
					entry, err := store.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if jsonOutput {
						return writeJSON(cmd, entry)
					}
					printHistoryEntry(cmd, *entry)
					return nil
				}

				entries, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					if entries == nil {
						entries = []history.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						shortID(e.ID),
						e.StartedAt.Local().Format("2006-01-02 15:04:05"),
						e.Mode,
						strconv.Itoa(e.Exported),
						strconv.Itoa(e.Skipped),
						yesNo(e.Success),
						e.Message,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Run", "Started", "Mode", "Exported", "Skipped", "OK", "Message"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printHistoryEntry(cmd *cobra.Command, e history.Entry) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:       %s\n", e.ID)
	fmt.Fprintf(out, "Started:   %s\n", e.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Duration:  %s\n", e.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "Mode:      %s (dry run: %s)\n", e.Mode, yesNo(e.DryRun))
	fmt.Fprintf(out, "Sequence:  %s [%s]\n", e.SequenceName, e.Locale)
	fmt.Fprintf(out, "Selection: %s\n", e.Criterion)
	fmt.Fprintf(out, "Clips:     %d scanned, %d exported, %d skipped, %d errors\n", e.Scanned, e.Exported, e.Skipped, e.ErrorCount)
	fmt.Fprintf(out, "Mapping:   %s (written: %s)\n", e.MappingPath, yesNo(e.MappingGenerated))
	fmt.Fprintf(out, "Result:    %s\n", e.Message)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
