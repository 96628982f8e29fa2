package database

import (
	"fmt"
	"strings"
)

// Statement is one SQL statement of a learner's script.
type Statement struct {
	// SQL is the statement text without the terminating semicolon.
	SQL string
	// Keyword is the upper-cased first keyword, ignoring comments.
	Keyword string
}

// readKeywords start statements that produce rows.
var readKeywords = map[string]bool{
	"SELECT":    true,
	"WITH":      true,
	"VALUES":    true,
	"SHOW":      true,
	"DESCRIBE":  true,
	"EXPLAIN":   true,
	"PRAGMA":    true,
	"FROM":      true, // DuckDB's FROM-first syntax
	"SUMMARIZE": true,
	"(":         true,
}

// writeKeywords start statements that change the sandbox inside the
// per-execution transaction.
var writeKeywords = map[string]bool{
	"INSERT":   true,
	"UPDATE":   true,
	"DELETE":   true,
	"REPLACE":  true,
	"CREATE":   true,
	"ALTER":    true,
	"DROP":     true,
	"TRUNCATE": true,
}

// forbiddenKeywords would escape the per-execution transaction or touch
// state outside the sandbox.
var forbiddenKeywords = map[string]bool{
	"BEGIN":      true,
	"START":      true,
	"COMMIT":     true,
	"ROLLBACK":   true,
	"ABORT":      true,
	"END":        true,
	"SAVEPOINT":  true,
	"RELEASE":    true,
	"ATTACH":     true,
	"DETACH":     true,
	"COPY":       true,
	"EXPORT":     true,
	"IMPORT":     true,
	"INSTALL":    true,
	"LOAD":       true,
	"CHECKPOINT": true,
	"VACUUM":     true,
	"SET":        true,
	"RESET":      true,
}

// IsRead reports whether the statement returns rows.
func (s Statement) IsRead() bool {
	return readKeywords[s.Keyword]
}

// Allowed returns an error when the statement may not run in the sandbox.
// Only statements starting with a known read or write keyword are allowed;
// anything else could end the transaction under another name.
func (s Statement) Allowed() error {
	switch {
	case forbiddenKeywords[s.Keyword]:
		return fmt.Errorf("%s statements are not allowed in the sandbox", s.Keyword)
	case s.Keyword == "":
		return fmt.Errorf("statement %q is not allowed in the sandbox", s.SQL)
	case !readKeywords[s.Keyword] && !writeKeywords[s.Keyword]:
		return fmt.Errorf("%s statements are not allowed in the sandbox", s.Keyword)
	}
	return nil
}

// SplitStatements splits a script on top-level semicolons. Semicolons inside
// string literals, quoted identifiers and comments do not split. Statements
// that are empty or contain only comments are dropped.
func SplitStatements(script string) []Statement {
	var (
		stmts   []Statement
		current strings.Builder
		code    strings.Builder // current statement with comments removed
	)

	flush := func() {
		text := strings.TrimSpace(current.String())
		stripped := strings.TrimSpace(code.String())
		current.Reset()
		code.Reset()
		if stripped == "" {
			return
		}
		stmts = append(stmts, Statement{SQL: text, Keyword: firstKeyword(stripped)})
	}

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		switch {
		case c == '\'' || c == '"':
			// Doubled quotes inside a literal toggle twice and stay balanced
			end := i + 1
			for end < len(runes) && runes[end] != c {
				end++
			}
			if end >= len(runes) {
				end = len(runes) - 1
			}
			current.WriteString(string(runes[i : end+1]))
			code.WriteString(string(runes[i : end+1]))
			i = end

		case c == '-' && i+1 < len(runes) && runes[i+1] == '-':
			end := i
			for end < len(runes) && runes[end] != '\n' {
				end++
			}
			current.WriteString(string(runes[i:end]))
			code.WriteRune(' ')
			i = end - 1

		case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
			end := i + 2
			for end+1 < len(runes) && !(runes[end] == '*' && runes[end+1] == '/') {
				end++
			}
			end = min(end+2, len(runes))
			current.WriteString(string(runes[i:end]))
			code.WriteRune(' ')
			i = end - 1

		case c == ';':
			flush()

		default:
			current.WriteRune(c)
			code.WriteRune(c)
		}
	}
	flush()

	return stmts
}

// firstKeyword returns the upper-cased leading word of comment-free SQL.
func firstKeyword(sql string) string {
	if strings.HasPrefix(sql, "(") {
		return "("
	}
	end := strings.IndexFunc(sql, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if end == -1 {
		end = len(sql)
	}
	return strings.ToUpper(sql[:end])
}
