package sqlparse

import "strings"

// SplitTopLevel splits s on commas that are not nested inside parentheses or
// quoted literals, so "COUNT(*), ROUND(AVG(price), 2)" yields two expressions.
// Items are trimmed and empty trailing items are dropped.
func SplitTopLevel(s string) []string {
	var (
		out     []string
		current strings.Builder
		depth   int
		quote   rune
	)

	for _, c := range s {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		current.WriteRune(c)
	}

	if last := strings.TrimSpace(current.String()); last != "" {
		out = append(out, last)
	}

	return out
}
