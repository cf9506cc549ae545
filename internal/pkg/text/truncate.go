package text

import "unicode/utf8"

const ellipsis = "..."

// Truncate cuts s to at most max runes including the trailing ellipsis. It
// never splits a multi-byte character.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - len(ellipsis)
	if keep <= 0 {
		return ellipsis[:max]
	}
	n := 0
	for i := range s {
		if n == keep {
			return s[:i] + ellipsis
		}
		n++
	}
	return s
}

// TruncateLines cuts s to at most max runes by dropping whole trailing lines
// and ending with an ellipsis line, so markup that is balanced per line stays
// balanced. A first line longer than the budget falls back to Truncate.
func TruncateLines(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	budget := max - len(ellipsis) - 1
	cut, n := -1, 0
	for i, r := range s {
		if n > budget {
			break
		}
		if r == '\n' {
			cut = i
		}
		n++
	}
	if cut <= 0 {
		return Truncate(s, max)
	}
	return s[:cut] + "\n" + ellipsis
}
