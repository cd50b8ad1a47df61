package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mithrel/stripnbsp/internal/engine"
	"github.com/mithrel/stripnbsp/pkg/api"
)

func newPreviewCmd() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "preview [path]",
		Short: "Render a cleaned markdown document in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			opts := api.Options{
				Parser:  app.Cfg.GetString("parser"),
				Printer: engine.PrinterANSI,
				Width:   width,
			}
			var (
				data []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				opts.Filepath = args[0]
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			if opts.Width == 0 {
				opts.Width = terminalWidth(cmd.OutOrStdout())
			}
			out, err := app.Pipeline.Format(string(data), opts)
			if err != nil {
				return err
			}
			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				_, err := io.WriteString(w, out)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "wrap width; defaults to the terminal width or glamour.word_wrap")
	cmd.Flags().String("style", "", "glamour style (auto, dark, light, notty, ...)")
	return cmd
}
