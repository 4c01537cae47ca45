package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"personid/internal/config"
)

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured sources in trust order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSourcesTable(cfg.Sources))
			return nil
		},
	}
}

func renderSourcesTable(sources []config.Source) string {
	rows := make([][]string, 0, len(sources))
	rank := 0
	for _, src := range sources {
		rankLabel := "-"
		if !src.Disabled {
			rankLabel = strconv.Itoa(rank)
			rank++
		}
		target := src.CatalogPath
		if src.Kind == config.SourceKindHTTP {
			target = src.URL
		}
		rows = append(rows, []string{rankLabel, src.Name, src.Kind, yesNo(!src.Disabled), target})
	}
	return renderTable(
		[]string{"Rank", "Name", "Kind", "Enabled", "Target"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
