package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithrel/stripnbsp/internal/present"
)

func newLanguagesCmd() *cobra.Command {
	var noHeaders bool
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the languages and parsers the formatter handles",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			mode, ok := present.ParseMode(app.Cfg.GetString("output"))
			if !ok {
				return fmt.Errorf("unknown output %q", app.Cfg.GetString("output"))
			}
			opts := present.Options{Mode: mode, JSONIndent: true, Headers: !noHeaders}
			return present.RenderLanguages(cmd.OutOrStdout(), app.Plugin.Languages, opts)
		},
	}
	cmd.Flags().StringP("output", "o", "", "output format: plain, json or ndjson")
	cmd.Flags().BoolVar(&noHeaders, "noheaders", false, "hide column headers (plain)")
	return cmd
}
