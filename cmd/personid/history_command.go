package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"personid/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List folder renames applied by earlier scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.JournalPath == "" {
				return errors.New("rename journal is disabled (paths.journal_path is empty)")
			}
			store, err := journal.Open(cfg.Paths.JournalPath)
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []journal.Entry
			if runID != "" {
				entries, err = store.ListRun(cmd.Context(), runID)
			} else {
				entries, err = store.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No renames recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show only the renames of one scan run")
	return cmd
}

func renderHistoryTable(entries []journal.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			humanize.Time(e.RenamedAt),
			e.From,
			e.To,
			shortRunID(e.RunID),
		})
	}
	return renderTable([]string{"When", "From", "To", "Run"}, rows, nil)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
