package present

import (
	"io"

	"github.com/mithrel/stripnbsp/internal/pipeline"
	"github.com/mithrel/stripnbsp/internal/present/format"
	"github.com/mithrel/stripnbsp/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModeJSON
	ModeNDJSON
)

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
	// All lists unchanged files too; plain mode otherwise prints only
	// files that need (or got) formatting.
	All bool
}

// ParseMode parses "plain", "json" or "ndjson".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "plain", "":
		return ModePlain, true
	case "json":
		return ModeJSON, true
	case "ndjson":
		return ModeNDJSON, true
	default:
		return ModePlain, false
	}
}

// RenderResults writes per-file results according to options.
func RenderResults(w io.Writer, results []pipeline.Result, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, results, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSON(w, results)
	default:
		return format.WritePlainResults(w, results, opts.Headers, opts.All)
	}
}

// RenderLanguages writes language metadata according to options.
func RenderLanguages(w io.Writer, langs []api.Language, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, langs, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSON(w, langs)
	default:
		return format.WritePlainLanguages(w, langs, opts.Headers)
	}
}
