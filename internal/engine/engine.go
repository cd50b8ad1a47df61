// Package engine exposes goldmark, with glamour for terminal output, as a
// plugin the host pipeline can drive.
package engine

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	gtext "github.com/yuin/goldmark/text"

	"github.com/mithrel/stripnbsp/pkg/api"
)

// Parser and printer names registered by New.
const (
	ParserMarkdown  = "markdown"
	PrinterMarkdown = "markdown"
	PrinterHTML     = "html"
	PrinterANSI     = "ansi"
)

// ErrInvalidEncoding is returned for input that is not valid UTF-8.
var ErrInvalidEncoding = errors.New("document is not valid UTF-8")

// Config selects goldmark extensions and glamour rendering.
type Config struct {
	GFM        bool
	UnsafeHTML bool
	Style      string
	WordWrap   int
}

// DefaultConfig is the configuration used without a config file. Its style
// is "notty" rather than the "auto" of glamour.style, so output never
// depends on whether stdout is a terminal.
func DefaultConfig() Config {
	return Config{GFM: true, Style: "notty", WordWrap: 80}
}

// New builds the markdown plugin.
func New(cfg Config) api.Plugin {
	md := newMarkdown(cfg)
	return api.Plugin{
		Parsers: api.Parsers{
			ParserMarkdown: &Parser{md: md},
		},
		Printers: api.Printers{
			PrinterMarkdown: SourcePrinter{},
			PrinterHTML:     &HTMLPrinter{md: md},
			PrinterANSI:     &ANSIPrinter{Style: cfg.Style, WordWrap: cfg.WordWrap},
		},
		Languages: Languages(),
	}
}

func newMarkdown(cfg Config) goldmark.Markdown {
	opts := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if cfg.GFM {
		opts = append(opts, goldmark.WithExtensions(extension.GFM))
	}
	if cfg.UnsafeHTML {
		opts = append(opts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	return goldmark.New(opts...)
}

// Parser is goldmark's block and inline parser.
type Parser struct {
	md goldmark.Markdown
}

// Parse parses src as CommonMark (plus GFM when enabled).
func (p *Parser) Parse(src string, _ api.Parsers, opts api.Options) (*api.Document, error) {
	if !utf8.ValidString(src) {
		return nil, fmt.Errorf("%s: %w", displayName(opts), ErrInvalidEncoding)
	}
	source := []byte(src)
	root := p.md.Parser().Parse(gtext.NewReader(source))
	return &api.Document{Source: source, Root: root}, nil
}

// Languages returns the markdown language metadata.
func Languages() []api.Language {
	return []api.Language{{
		Name:    "Markdown",
		Parsers: []string{ParserMarkdown},
		Extensions: []string{
			".md", ".livemd", ".markdown", ".mdown", ".mdwn", ".mkd",
			".mkdn", ".mkdown", ".ronn", ".scd", ".workbook",
		},
		Filenames: []string{"contents.lr", "README"},
		Aliases:   []string{"pandoc"},
	}}
}

func displayName(opts api.Options) string {
	if opts.Filepath == "" {
		return "<stdin>"
	}
	return opts.Filepath
}
