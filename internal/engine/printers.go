package engine

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"

	"github.com/mithrel/stripnbsp/pkg/api"
)

// SourcePrinter writes the parsed source back out.
type SourcePrinter struct{}

func (SourcePrinter) Print(w io.Writer, doc *api.Document, _ api.Options) error {
	_, err := w.Write(doc.Source)
	return err
}

// HTMLPrinter renders the AST with goldmark's HTML renderer.
type HTMLPrinter struct {
	md goldmark.Markdown
}

func (p *HTMLPrinter) Print(w io.Writer, doc *api.Document, _ api.Options) error {
	return p.md.Renderer().Render(w, doc.Source, doc.Root)
}

// ANSIPrinter renders for a terminal with glamour.
type ANSIPrinter struct {
	Style    string
	WordWrap int
}

func (p *ANSIPrinter) Print(w io.Writer, doc *api.Document, opts api.Options) error {
	width := p.WordWrap
	if opts.Width > 0 {
		width = opts.Width
	}
	style := p.Style
	if style == "" {
		style = "notty"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(string(doc.Source))
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Stats counts block nodes of a parsed document.
type Stats struct {
	Headings   int `json:"headings"`
	Paragraphs int `json:"paragraphs"`
	Lists      int `json:"lists"`
	ListItems  int `json:"list_items"`
	CodeBlocks int `json:"code_blocks"`
}

// Count walks doc and tallies its blocks.
func Count(doc *api.Document) Stats {
	var s Stats
	if doc == nil || doc.Root == nil {
		return s
	}
	_ = ast.Walk(doc.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			s.Headings++
		case ast.KindParagraph:
			s.Paragraphs++
		case ast.KindList:
			s.Lists++
		case ast.KindListItem:
			s.ListItems++
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			s.CodeBlocks++
		}
		return ast.WalkContinue, nil
	})
	return s
}
