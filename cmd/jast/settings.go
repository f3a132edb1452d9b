package main

import (
	"context"
	"fmt"
	"io"

	"github.com/FranksOps/jast/internal/settings"
	"github.com/spf13/cobra"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the search API credentials and snippet count",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := settings.Load(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), st)
			return nil
		},
	}

	var (
		apiKey   string
		cx       string
		snippets int
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Store new settings; flags not given keep their current value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsSet(cmd.Context(), a, cmd, apiKey, cx, snippets)
		},
	}
	set.Flags().StringVar(&apiKey, "api-key", "", "Google API key")
	set.Flags().StringVar(&cx, "cx", "", "Programmable Search Engine ID")
	set.Flags().IntVar(&snippets, "snippets", settings.DefaultSnippetCount, "Snippet columns per result row")

	cmd.AddCommand(show, set)
	return cmd
}

func runSettingsSet(ctx context.Context, a *app, cmd *cobra.Command, apiKey, cx string, snippets int) error {
	st, err := settings.Load(ctx, a.store)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if !f.Changed("api-key") && !f.Changed("cx") && !f.Changed("snippets") {
		return fmt.Errorf("nothing to set: use --api-key, --cx or --snippets")
	}
	if f.Changed("api-key") {
		st.APIKey = apiKey
	}
	if f.Changed("cx") {
		st.CX = cx
	}
	if f.Changed("snippets") {
		if snippets < 0 {
			return fmt.Errorf("--snippets must not be negative, got %d", snippets)
		}
		st.SnippetCount = snippets
	}

	saved, err := settings.Save(ctx, a.store, st)
	if err != nil {
		return err
	}
	a.logger.Info("settings saved", "backend", a.cfg.Store.Backend)
	printSettings(cmd.OutOrStdout(), saved)
	return nil
}

func printSettings(out io.Writer, st settings.Settings) {
	key := st.Redacted()
	if key == "" {
		key = colorWarning.Sprint("(not set)")
	}
	colorBold.Fprint(out, "API key:      ")
	fmt.Fprintln(out, key)
	colorBold.Fprint(out, "Engine ID:    ")
	fmt.Fprintln(out, st.CX)
	colorBold.Fprint(out, "Snippets:     ")
	fmt.Fprintln(out, st.SnippetCount)
}
