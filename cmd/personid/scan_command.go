package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"personid/internal/config"
	"personid/internal/identity"
	"personid/internal/library"
	"personid/internal/logging"
	"personid/internal/notifications"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var apply bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Resolve every person folder in a directory",
		Long: `Resolve every immediate sub-folder of <dir> and show which ones would be
renamed to "{birth} {name}". Nothing changes on disk unless --apply is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}
			eng, err := ctx.newEngine(apply)
			if err != nil {
				return err
			}
			defer eng.Close()

			if apply {
				lock, err := library.AcquireLock(root, eng.cfg.Paths.LockName)
				if err != nil {
					return err
				}
				defer lock.Release()
			}

			folders, err := library.List(root, eng.listOpts)
			if err != nil {
				return err
			}

			runCtx := logging.WithRunID(cmd.Context(), uuid.NewString())
			started := time.Now()
			scanner := library.NewScanner(eng.binder, eng.outer, eng.logger)
			results, scanErr := scanner.Scan(runCtx, folders)

			var failures map[string]error
			if apply && scanErr == nil {
				failures = scanner.ApplyAll(runCtx, results)
				sum := library.Summarize(results)
				eng.notify(runCtx, func(svc notifications.Service) error {
					return svc.NotifyScanCompleted(runCtx, notifications.ScanSummary{
						Root:       root,
						Total:      sum.Total,
						Renamed:    sum.Applied,
						Unresolved: sum.Failed,
						Failed:     len(failures),
						Duration:   time.Since(started),
					})
				})
			}

			out := cmd.OutOrStdout()
			if verbose {
				printReports(out, results)
			}
			fmt.Fprintln(out, renderScanTable(results, failures, apply))
			printSummary(out, library.Summarize(results), len(failures), apply)
			if runID, ok := logging.RunIDFromContext(runCtx); ok && apply {
				fmt.Fprintf(out, "Run ID: %s\n", runID)
			}

			if scanErr != nil {
				return scanErr
			}
			if len(failures) > 0 {
				return fmt.Errorf("%d rename(s) failed", len(failures))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Rename updated folders")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the full report for every folder")
	return cmd
}

func renderScanTable(results []library.Result, failures map[string]error, apply bool) string {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{res.Folder.Name, resultStatus(res, failures, apply), resultDetail(res, failures)})
	}
	return renderTable([]string{"Folder", "Status", "Detail"}, rows, nil)
}

func resultStatus(res library.Result, failures map[string]error, apply bool) string {
	if res.Record == nil {
		return "abandoned"
	}
	if _, failed := failures[res.Folder.Path]; failed {
		return "rename failed"
	}
	if _, ok := res.Record.Applied(); ok {
		return "renamed"
	}
	if res.Record.Status == identity.StatusUpdated && !apply {
		return "would rename"
	}
	return string(res.Record.Status)
}

func resultDetail(res library.Result, failures map[string]error) string {
	if res.Record == nil {
		if res.Err != nil {
			return res.Err.Error()
		}
		return ""
	}
	if err, failed := failures[res.Folder.Path]; failed {
		return err.Error()
	}
	if res.Record.Canonical != "" {
		return res.Record.Canonical
	}
	return res.Record.Reason
}

func printReports(out io.Writer, results []library.Result) {
	for _, res := range results {
		if res.Record == nil {
			continue
		}
		fmt.Fprintln(out, res.Record.Report())
	}
}

func printSummary(out io.Writer, sum library.Summary, failed int, apply bool) {
	fmt.Fprintf(out, "%d folders: %d to rename, %d already canonical, %d unresolved",
		sum.Total, sum.Updated, sum.Unchanged, sum.Failed)
	if sum.Abandoned > 0 {
		fmt.Fprintf(out, ", %d abandoned", sum.Abandoned)
	}
	fmt.Fprintln(out)
	if apply {
		fmt.Fprintf(out, "Renamed %d, failed %d\n", sum.Applied, failed)
	} else if sum.Updated > 0 {
		fmt.Fprintln(out, "Run again with --apply to rename.")
	}
}
