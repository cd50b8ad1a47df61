package normalize

import (
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeScenarios(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"trailing nbsp run", "hello\u00a0\u00a0\n", "hello\n"},
		{"whitespace only line", "\u00a0\u00a0\u00a0\n", "\n"},
		{"leading nbsp", "\u00a0\u00a0text\n", "  text\n"},
		{"nbsp before list marker", "  \u00a0- item\n", "  - item\n"},
		{"plain document", "# Title\n\nBody text.\n", "# Title\n\nBody text.\n"},

		{"trailing run keeps inner content", "a\u00a0b\u2003\u3000\n", "a\u00a0b\n"},
		{"trailing run without final newline", "end\u202f", "end"},
		{"whitespace only final line", "first\n\u00a0\u2009", "first\n"},
		{"whitespace only single line", "\u3000", ""},
		{"whitespace line between paragraphs", "one\n\u00a0\ntwo\n", "one\n\ntwo\n"},
		{"regular trailing spaces kept", "hard break  \n", "hard break  \n"},
		{"mixed trailing run", "x \u00a0 \n", "x \u00a0 \n"},
		{"lines end at line feed only", "a\u00a0\r\n\u00a0\r\nb\r\n", "a\u00a0\r\n \r\nb\r\n"},
		{"leading run counts runes", "\u3000\u2002\u00a0x", "   x"},
		{"zero width space leading", "\u200bword", " word"},
		{"leading list item", "\u00a0\u00a0- item", "  - item"},
		{"star marker", "\t\u2007* item\n", "\t* item\n"},
		{"plus marker", "para\n   \u205f+ item\n", "para\n   + item\n"},
		{"marker needs trailing space", "  \u00a0-item\n", "  \u00a0-item\n"},
		{"marker with tab", "  \u00a0-\titem\n", "  -\titem\n"},
		{"nbsp inside text kept", "10\u00a0km away\n", "10\u00a0km away\n"},
		{"nested list", "- a\n  \u00a0\u00a0- b\n", "- a\n  - b\n"},
		{"unrelated unicode kept", "caf\u00e9 \u2028 \u00ad\n", "caf\u00e9 \u2028 \u00ad\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdentityWithoutTargets(t *testing.T) {
	docs := []string{
		"",
		"\n\n\n",
		"# Heading\n\n- one\n- two\n    * nested\n",
		"```go\nfunc main() {}\n```\n",
		"trailing spaces   \n\tindented\n",
		"na\u00efve caf\u00e9 \u2014 \u00fcn\u00efc\u00f6d\u00e9 \u2713\n",
	}
	for _, d := range docs {
		require.False(t, Contains(d))
		assert.Equal(t, d, Normalize(d))
	}
}

func TestIsTarget(t *testing.T) {
	for _, r := range []rune{0x00A0, 0x2000, 0x2005, 0x200B, 0x202F, 0x205F, 0x3000} {
		assert.Truef(t, IsTarget(r), "U+%04X", r)
	}
	for _, r := range []rune{' ', '\t', '\n', 'a', 0x1FFF, 0x200C, 0x2028, 0x2060, 0xFEFF} {
		assert.Falsef(t, IsTarget(r), "U+%04X", r)
	}
}

func TestDefaultNormalizer(t *testing.T) {
	assert.Equal(t, "hello\n", Default.Normalize("hello\u00a0\n"))
}

var alphabet = []rune{'a', 'b', ' ', '\t', '\n', '\r', '-', '*', '+', '#', 0x00A0, 0x2003, 0x200B, 0x202F, 0x205F, 0x3000}

func randomDoc(r *rand.Rand) string {
	n := r.IntN(40)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(alphabet[r.IntN(len(alphabet))])
	}
	return b.String()
}

func TestNormalizeProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 5000; i++ {
		in := randomDoc(r)
		out := Normalize(in)

		require.LessOrEqual(t, len(out), len(in), "%q", in)
		require.LessOrEqual(t, utf8.RuneCountInString(out), utf8.RuneCountInString(in), "%q", in)
		require.Equal(t, strings.Count(in, "\n"), strings.Count(out, "\n"), "%q", in)
		require.Equal(t, out, Normalize(out), "not idempotent for %q", in)

		for _, line := range strings.Split(out, "\n") {
			if line == "" {
				continue
			}
			first, _ := utf8.DecodeRuneInString(line)
			last, _ := utf8.DecodeLastRuneInString(line)
			require.False(t, IsTarget(first), "leading target left in %q from %q", line, in)
			require.False(t, IsTarget(last), "trailing target left in %q from %q", line, in)
		}
	}
}

func BenchmarkNormalize(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("# Heading\u00a0\n\n\u00a0\u00a0Indented paragraph text.\n  \u00a0- list item\n\u3000\n")
	}
	doc := sb.String()
	b.SetBytes(int64(len(doc)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Normalize(doc)
	}
}

func BenchmarkNormalizeClean(b *testing.B) {
	doc := strings.Repeat("# Heading\n\nParagraph text.\n- list item\n", 200)
	b.SetBytes(int64(len(doc)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Normalize(doc)
	}
}
