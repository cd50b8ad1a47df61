package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/stripnbsp/internal/pipeline"
	"github.com/mithrel/stripnbsp/pkg/api"
)

var (
	changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	writtenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	quietStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

// Status is the one-word state of a result.
func Status(r pipeline.Result) string {
	switch {
	case r.Written:
		return "written"
	case r.Changed:
		return "changed"
	case r.Cached:
		return "cached"
	default:
		return "unchanged"
	}
}

func styledStatus(r pipeline.Result) string {
	s := Status(r)
	switch s {
	case "written":
		return writtenStyle.Render(s)
	case "changed":
		return changedStyle.Render(s)
	default:
		return quietStyle.Render(s)
	}
}

// WritePlainResults prints one line per result. Unless all is set only
// changed or written files are listed. The styled status stays in the last
// column: tabwriter counts escape bytes as width.
func WritePlainResults(w io.Writer, results []pipeline.Result, headers, all bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, "path\tremoved_bytes\tstatus\n")
	}
	for _, r := range results {
		if !all && !r.Changed {
			continue
		}
		line := fmt.Sprintf("%s\t%d\t%s\n", esc(r.Path), r.Removed, styledStatus(r))
		_, _ = io.WriteString(tw, line)
	}
	return tw.Flush()
}

// WritePlainLanguages prints name, parsers and extensions per language.
func WritePlainLanguages(w io.Writer, langs []api.Language, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, "name\tparsers\textensions\n")
	}
	for _, l := range langs {
		names := append(append([]string{}, l.Extensions...), l.Filenames...)
		line := fmt.Sprintf("%s\t%s\t%s\n", esc(l.Name), strings.Join(l.Parsers, ","), strings.Join(names, ","))
		_, _ = io.WriteString(tw, line)
	}
	return tw.Flush()
}
