package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"personid/internal/identity"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var failOnMiss bool

	cmd := &cobra.Command{
		Use:   "resolve <keyword>...",
		Short: "Resolve the identity behind one or more keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.newEngine(false)
			if err != nil {
				return err
			}
			defer eng.Close()

			out := cmd.OutOrStdout()
			misses := 0
			for i, keyword := range args {
				rec, err := eng.binder.Resolve(cmd.Context(), keyword)
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprint(out, rec.Report())
				if rec.Status == identity.StatusFailure {
					misses++
				}
			}
			if failOnMiss && misses > 0 {
				return fmt.Errorf("%d of %d keywords could not be resolved", misses, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnMiss, "strict", false, "Exit non-zero when any keyword fails to resolve")
	return cmd
}
