package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/stripnbsp/internal/pipeline"
	"github.com/mithrel/stripnbsp/internal/present"
	"github.com/mithrel/stripnbsp/internal/wire"
	"github.com/mithrel/stripnbsp/pkg/api"
)

// ErrUnformatted is returned by fmt --check when some input would change.
var ErrUnformatted = errors.New("input is not formatted")

const stdinName = "(stdin)"

func newFmtCmd() *cobra.Command {
	var (
		write bool
		check bool
		list      bool
		all       bool
		noHeaders bool
	)
	cmd := &cobra.Command{
		Use:   "fmt [paths...]",
		Short: "Strip non-breaking spaces from markdown and print or rewrite it",
		Long: `fmt normalizes Unicode spaces (U+00A0, U+2000-U+200B, U+202F, U+205F, U+3000)
that break markdown structure, parses the result and prints it.

Without paths, or with "-", the document is read from stdin.
Directories are searched for markdown files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if write && check {
				return fmt.Errorf("choose either --write or --check")
			}
			mode, ok := present.ParseMode(app.Cfg.GetString("output"))
			if !ok {
				return fmt.Errorf("unknown output %q", app.Cfg.GetString("output"))
			}
			opts := api.Options{
				Parser:  app.Cfg.GetString("parser"),
				Printer: app.Cfg.GetString("printer"),
			}
			if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
				if write {
					return fmt.Errorf("--write needs file paths")
				}
				return fmtStdin(cmd, app, opts, check, list)
			}

			results, err := app.Pipeline.Run(cmd.Context(), args, pipeline.RunOptions{Options: opts, Write: write})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !write && !check && !list {
				for _, r := range results {
					if _, err := io.WriteString(out, r.Output); err != nil {
						return err
					}
				}
				return nil
			}
			popts := present.Options{Mode: mode, JSONIndent: true, Headers: !noHeaders, All: all}
			if err := present.RenderResults(out, results, popts); err != nil {
				return err
			}
			if check {
				if n := countChanged(results); n > 0 {
					return fmt.Errorf("%w: %d file(s) would change", ErrUnformatted, n)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite files in place")
	cmd.Flags().BoolVarP(&check, "check", "c", false, "fail if any file would change")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list files that would change")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "with --check/--list/--write, report unchanged files too")
	cmd.Flags().BoolVar(&noHeaders, "noheaders", false, "hide column headers (plain)")
	cmd.Flags().StringP("printer", "p", "", "printer: markdown, html or ansi")
	cmd.Flags().String("parser", "", "force a parser instead of choosing by extension")
	cmd.Flags().StringP("output", "o", "", "report format: plain, json or ndjson")
	cmd.Flags().IntP("jobs", "j", 0, "files formatted in parallel")
	cmd.Flags().Bool("cache", false, "skip files formatted in an earlier run")
	return cmd
}

func fmtStdin(cmd *cobra.Command, app *wire.App, opts api.Options, check, list bool) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return err
	}
	in := string(data)
	out, err := app.Pipeline.Format(in, opts)
	if err != nil {
		return err
	}
	if !check && !list {
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	}
	if out == in {
		return nil
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), stdinName)
	if check {
		return fmt.Errorf("%w: %s would change", ErrUnformatted, stdinName)
	}
	return nil
}

func countChanged(results []pipeline.Result) int {
	n := 0
	for _, r := range results {
		if r.Changed {
			n++
		}
	}
	return n
}
