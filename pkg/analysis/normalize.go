package analysis

import (
	"strings"
	"unicode"
)

// ocrConfusions maps characters OCR backends routinely misread onto their
// intended forms. Small and deliberate: only substitutions that are safe in
// running text.
var ocrConfusions = strings.NewReplacer(
	"ﬁ", "fi",
	"ﬂ", "fl",
	"…", "...",
	" ", " ",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
)

// NormalizeText cleans raw extracted text before downstream stages see it:
// known OCR confusions are mapped back, control characters are stripped, and
// runs of whitespace collapse to single spaces with line structure kept.
func NormalizeText(raw string) string {
	if raw == "" {
		return ""
	}

	s := ocrConfusions.Replace(raw)

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	lastNewline := false
	for _, r := range s {
		switch {
		case r == '\n':
			// Keep line boundaries: the segmenter works line by line.
			if !lastNewline {
				b.WriteByte('\n')
			}
			lastNewline = true
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && !lastNewline {
				b.WriteByte(' ')
			}
			lastSpace = true
		case unicode.IsControl(r):
			// drop
		default:
			b.WriteRune(r)
			lastSpace = false
			lastNewline = false
		}
	}
	return strings.TrimSpace(b.String())
}
