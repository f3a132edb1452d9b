package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/FranksOps/jast/internal/extractor"
	"github.com/spf13/cobra"
)

func newColumnsCmd(a *app) *cobra.Command {
	var sheetName string

	cmd := &cobra.Command{
		Use:   "columns <input.xlsx>",
		Short: "List the sheets and header columns of a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runColumns(cmd.Context(), a, args[0], sheetName, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&sheetName, "sheet", "", "Sheet to describe (default: first sheet)")
	return cmd
}

func runColumns(ctx context.Context, a *app, path, sheetName string, out io.Writer) error {
	sess, err := newSession(ctx, a)
	if err != nil {
		return err
	}
	if err := loadWorkbook(sess, path, sheetName, ""); err != nil {
		return err
	}

	current, _ := sess.Selection()
	colorHeader.Fprintln(out, "Sheets")
	for _, name := range sess.SheetNames() {
		marker := " "
		if name == current {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %s\n", marker, name)
	}

	colorHeader.Fprintf(out, "\nColumns of %q\n", current)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tLABEL\tURLS\tFIRST")
	for i, label := range sess.Columns() {
		if err := sess.SelectColumn(i); err != nil {
			return err
		}
		entries := sess.Entries()
		first := ""
		if len(entries) > 0 {
			first = extractor.Hosts(entries[:1])[0]
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i, label, len(entries), truncate(first, maxCellWidth))
	}
	return tw.Flush()
}
