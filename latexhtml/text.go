package latexhtml

import "strings"

// Ligatures are rewritten longest first.
var ligatures = strings.NewReplacer(
	"---", "—",
	"--", "–",
	"``", "“",
	"''", "”",
	"`", "‘",
	"'", "’",
	"!`", "¡",
	"?`", "¿",
	"~", "\u00a0",
)

var ties = strings.NewReplacer("~", "\u00a0")

// typeset applies the TeX input conventions for dashes, quotes and ties.
// Monospaced text keeps dashes and quotes as typed.
func typeset(s string, withLigatures bool) string {
	if withLigatures {
		return ligatures.Replace(s)
	}
	return ties.Replace(s)
}

// collapseSpace replaces every whitespace run with a single space.
func collapseSpace(s string) string {
	if !strings.ContainsAny(s, "\t\n\r") && !strings.Contains(s, "  ") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case ' ', '\t', '\n', '\r':
			if !space {
				sb.WriteByte(' ')
			}
			space = true
		default:
			sb.WriteByte(c)
			space = false
		}
	}
	return sb.String()
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"\x00", "",
)

// verbatim text keeps quotes as typed
var verbatimEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\x00", "",
)

func escape(s string) string     { return htmlEscaper.Replace(s) }
func escapeAttr(s string) string { return htmlEscaper.Replace(s) }
func escapeRaw(s string) string  { return verbatimEscaper.Replace(s) }

// stripTags drops markup from rendered HTML, keeping text.
func stripTags(s string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
