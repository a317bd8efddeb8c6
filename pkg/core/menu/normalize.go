package menu

import "strings"

// phraseFixes maps spoken multi-word forms to their canonical single token
// before alias matching.
var phraseFixes = [][2]string{
	{"pick up", "pickup"},
	{"take away", "takeaway"},
}

// Normalize lowercases text, strips punctuation to spaces, collapses
// whitespace and applies canonical phrase rewrites. Apostrophes vanish
// instead of splitting, so "that's" stays one token "thats". All alias keys
// and all lookup inputs go through this exact function.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '\'' || r == '’':
		case r == 'é' || r == 'è' || r == 'ë':
			b.WriteRune('e')
		case r == 'ö':
			b.WriteRune('o')
		case r == 'ü':
			b.WriteRune('u')
		default:
			b.WriteRune(' ')
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	for _, fix := range phraseFixes {
		out = strings.ReplaceAll(out, fix[0], fix[1])
	}
	return out
}

// Tokens returns the normalized tokens of text.
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}
