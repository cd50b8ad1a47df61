package api

import (
	"io"

	"github.com/yuin/goldmark/ast"
)

// Options are the formatter invocation options handed to parsers and printers.
type Options struct {
	Filepath string `json:"filepath"`
	Parser   string `json:"parser"`
	Printer  string `json:"printer"`
	Width    int    `json:"width"`
}

// Document is the structured result of a parse. Source holds the exact
// bytes the parser consumed; segments in Root point into it.
type Document struct {
	Source []byte
	Root   ast.Node
}

// Parser turns raw document text into a Document. parsers gives access to
// the sibling parsers registered with the host.
type Parser interface {
	Parse(text string, parsers Parsers, opts Options) (*Document, error)
}

// Printer writes a parsed Document.
type Printer interface {
	Print(w io.Writer, doc *Document, opts Options) error
}

// Parsers maps parser names to parsers.
type Parsers map[string]Parser

// Printers maps printer names to printers.
type Printers map[string]Printer

// Language describes a format a plugin can handle.
type Language struct {
	Name       string   `json:"name"`
	Parsers    []string `json:"parsers"`
	Extensions []string `json:"extensions"`
	Filenames  []string `json:"filenames,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
}

// Plugin bundles the three capabilities a format handler exposes.
type Plugin struct {
	Parsers   Parsers
	Printers  Printers
	Languages []Language
}
