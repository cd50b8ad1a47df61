// Package normalize strips non-breaking and other Unicode space characters
// that break markdown block structure.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// class matches one character of the target set: U+00A0, U+2000-U+200B,
// U+202F, U+205F and U+3000.
const class = `[\x{00A0}\x{2000}-\x{200B}\x{202F}\x{205F}\x{3000}]`

var (
	// Run of target characters right before a line feed or the end of text.
	trailingRun = regexp.MustCompile(`(?m)` + class + `+$`)

	// Line made only of target characters, the last line included.
	blankLine = regexp.MustCompile(`(?m)^` + class + `+$`)

	// Run of target characters at line start.
	leadingRun = regexp.MustCompile(`(?m)^` + class + `+`)

	// Target run between optional indentation and a list marker.
	beforeMarker = regexp.MustCompile(`([ \t]*)` + class + `+([-*+][ \t])`)
)

// Normalizer rewrites document text before it reaches a parser.
type Normalizer interface {
	Normalize(text string) string
}

// Func adapts a plain function to the Normalizer interface.
type Func func(string) string

func (f Func) Normalize(text string) string { return f(text) }

// Default is the normalizer used by the markdown plugin.
var Default Normalizer = Func(Normalize)

// IsTarget reports whether r is one of the space characters Normalize acts on.
func IsTarget(r rune) bool {
	switch {
	case r == '\u00a0', r == '\u202f', r == '\u205f', r == '\u3000':
		return true
	case r >= '\u2000' && r <= '\u200b':
		return true
	}
	return false
}

// Contains reports whether text holds any target character.
func Contains(text string) bool {
	return strings.IndexFunc(text, IsTarget) >= 0
}

// Normalize applies, in order: trailing run removal, blank line collapse,
// leading run conversion to ASCII spaces, and removal of target runs in
// front of a list marker. Text without target characters is returned as is.
func Normalize(text string) string {
	if !Contains(text) {
		return text
	}
	text = trailingRun.ReplaceAllString(text, "")
	text = blankLine.ReplaceAllString(text, "")
	text = leadingRun.ReplaceAllStringFunc(text, func(run string) string {
		return strings.Repeat(" ", utf8.RuneCountInString(run))
	})
	return beforeMarker.ReplaceAllString(text, "${1}${2}")
}
