// Package plugin wraps a markdown plugin so that every document is cleaned
// of non-breaking spaces before the wrapped parser sees it.
package plugin

import (
	"maps"
	"slices"
	"strings"

	"github.com/mithrel/stripnbsp/internal/normalize"
	"github.com/mithrel/stripnbsp/pkg/api"
)

// Markdown is the language whose parsers get wrapped.
const Markdown = "markdown"

// Parser runs a Normalizer over the input and hands the result to the
// embedded parser. Everything besides Parse is the embedded parser's.
type Parser struct {
	api.Parser
	Normalizer normalize.Normalizer
}

// NewParser wraps p with the default normalizer.
func NewParser(p api.Parser) *Parser {
	return &Parser{Parser: p, Normalizer: normalize.Default}
}

// Parse normalizes text and delegates. Errors from the wrapped parser are
// returned as they are.
func (p *Parser) Parse(text string, parsers api.Parsers, opts api.Options) (*api.Document, error) {
	n := p.Normalizer
	if n == nil {
		n = normalize.Default
	}
	return p.Parser.Parse(n.Normalize(text), parsers, opts)
}

// Wrap returns a copy of base whose markdown parsers are wrapped. Printers
// and languages are shared with base unchanged. base itself is not modified.
func Wrap(base api.Plugin) api.Plugin {
	names := markdownParsers(base)
	parsers := maps.Clone(base.Parsers)
	for name, p := range base.Parsers {
		if !slices.Contains(names, name) {
			continue
		}
		if _, ok := p.(*Parser); ok {
			continue
		}
		parsers[name] = NewParser(p)
	}
	return api.Plugin{
		Parsers:   parsers,
		Printers:  base.Printers,
		Languages: base.Languages,
	}
}

// markdownParsers collects the parser named Markdown plus every parser a
// markdown language declares.
func markdownParsers(p api.Plugin) []string {
	names := []string{Markdown}
	for _, lang := range p.Languages {
		if !isMarkdown(lang) {
			continue
		}
		for _, name := range lang.Parsers {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	return names
}

func isMarkdown(lang api.Language) bool {
	if strings.EqualFold(lang.Name, Markdown) {
		return true
	}
	for _, a := range lang.Aliases {
		if strings.EqualFold(a, Markdown) {
			return true
		}
	}
	return false
}
