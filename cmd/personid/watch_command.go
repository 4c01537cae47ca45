package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"personid/internal/config"
	"personid/internal/identity"
	"personid/internal/library"
	"personid/internal/logging"
	"personid/internal/notifications"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Resolve new person folders as they appear",
		Args:  cobra.ExactArgs(1),
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

			out := cmd.OutOrStdout()
			runCtx := logging.WithRunID(cmd.Context(), uuid.NewString())
			var watcher *library.Watcher
			watcher = library.NewWatcher(root, eng.listOpts, eng.settle, func(ctx context.Context, folder library.Folder) {
				rec, err := bindAndApply(ctx, eng, watcher, folder, apply)
				if err != nil {
					if rec == nil {
						return
					}
					fmt.Fprintf(out, "%s: %v\n", folder.Name, err)
					return
				}
				status := string(rec.Status)
				if _, ok := rec.Applied(); ok {
					status = "renamed"
				}
				detail := rec.Canonical
				if detail == "" {
					detail = rec.Reason
				}
				fmt.Fprintf(out, "%s: %s %s\n", folder.Name, status, detail)
			}, eng.logger)

			fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", root)
			return watcher.Run(runCtx)
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Rename updated folders as they are resolved")
	return cmd
}

// bindAndApply resolves one folder and applies it when asked, marking the
// target so the watcher does not pick up its own rename.
func bindAndApply(ctx context.Context, eng *engine, w *library.Watcher, folder library.Folder, apply bool) (*identity.Record, error) {
	rec, err := eng.binder.Bind(ctx, folder.Path)
	if err != nil {
		return nil, err
	}
	if apply && rec.Status == identity.StatusUpdated {
		target := filepath.Join(filepath.Dir(folder.Path), rec.Canonical)
		if w != nil {
			w.MarkOwnRename(target)
		}
		if err := rec.Apply(ctx); err != nil {
			if w != nil {
				w.ClearOwnRename(target)
			}
			eng.notify(ctx, func(svc notifications.Service) error {
				return svc.NotifyError(ctx, err, "rename "+folder.Name)
			})
			return rec, err
		}
		if to, ok := rec.Applied(); ok {
			eng.notify(ctx, func(svc notifications.Service) error {
				return svc.NotifyRenamed(ctx, folder.Path, to)
			})
		}
	}
	return rec, nil
}
