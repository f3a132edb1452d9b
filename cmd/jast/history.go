package main

import (
	"fmt"

	"github.com/FranksOps/jast/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously searched terms, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := history.New(a.store, a.logger)
			out := cmd.OutOrStdout()
			if clearAll {
				if err := h.Clear(cmd.Context()); err != nil {
					return err
				}
				colorBold.Fprintln(out, "Search history cleared")
				return nil
			}

			list := h.List(cmd.Context())
			if len(list) == 0 {
				colorWarning.Fprintln(out, "No searches yet")
				return nil
			}
			for i, q := range list {
				colorCyan.Fprintf(out, "%2d. ", i+1)
				fmt.Fprintln(out, q)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Forget all remembered searches")
	return cmd
}
