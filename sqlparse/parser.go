// Package sqlparse extracts the clause structure of a SQL query for visualization.
//
// The parser is deliberately shallow: each clause is located with a keyword
// anchored regular expression whose end is the next clause keyword in the fixed
// order WHERE, GROUP BY, ORDER BY, LIMIT. Queries with clauses out of that
// order are parsed on a best-effort basis. Parse never fails; anything it cannot
// recognize is simply left unset.
package sqlparse

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Clause patterns, compiled once. They run against whitespace-normalized text.
var (
	whitespaceRegex = regexp.MustCompile(`\s+`)

	selectRegex    = regexp.MustCompile(`(?i)SELECT\s+(.*?)\s+FROM`)
	fromRegex      = regexp.MustCompile(`(?i)FROM\s+(.*?)(?:\s+WHERE|\s+GROUP BY|\s+ORDER BY|\s+LIMIT|\s*;|\s*$)`)
	whereRegex     = regexp.MustCompile(`(?i)WHERE\s+(.*?)(?:\s+GROUP BY|\s+ORDER BY|\s+LIMIT|\s*;|\s*$)`)
	groupByRegex   = regexp.MustCompile(`(?i)GROUP BY\s+(.*?)(?:\s+HAVING|\s+ORDER BY|\s+LIMIT|\s*;|\s*$)`)
	havingRegex    = regexp.MustCompile(`(?i)HAVING\s+(.*?)(?:\s+ORDER BY|\s+LIMIT|\s*;|\s*$)`)
	orderByRegex   = regexp.MustCompile(`(?i)ORDER BY\s+(.*?)(?:\s+LIMIT|\s+OFFSET|\s*;|\s*$)`)
	directionRegex = regexp.MustCompile(`(?i)^(.*?)\s+(ASC|DESC)$`)
	limitRegex     = regexp.MustCompile(`(?i)LIMIT\s+(\d+)(?:\s+OFFSET\s+(\d+))?`)
	offsetRegex    = regexp.MustCompile(`(?i)OFFSET\s+(\d+)`)

	// joinKeywordRegex matches one JOIN keyword with its optional type.
	// "LEFT OUTER JOIN" reports LEFT (group 1); a bare "OUTER JOIN" reports OUTER (group 2).
	joinKeywordRegex = regexp.MustCompile(`(?i)(?:\b(?:(LEFT|RIGHT|FULL)(?:\s+OUTER)?|(INNER|CROSS|OUTER))\s+)?\bJOIN\b`)
	joinOnRegex      = regexp.MustCompile(`(?i)^(.*?)\s+ON\s+(.*)$`)
)

// Parse decomposes query into its clauses. Only SELECT statements are broken
// down further than their type.
func Parse(query string) ParsedQuery {
	normalized := strings.TrimSpace(whitespaceRegex.ReplaceAllString(query, " "))

	result := ParsedQuery{
		Type: classify(normalized),
		Select: SelectClause{
			Columns: []string{},
		},
		From: FromClause{
			Tables: []string{},
			Alias:  map[string]string{},
		},
	}

	if result.Type != TypeSelect {
		return result
	}

	parseSelectList(normalized, &result)
	parseFrom(normalized, &result)

	if body, ok := clauseBody(whereRegex, normalized); ok {
		result.Where = &WhereClause{Conditions: []string{body}}
	}

	if body, ok := clauseBody(groupByRegex, normalized); ok {
		result.GroupBy = &GroupByClause{Columns: splitList(body)}
	}

	if body, ok := clauseBody(havingRegex, normalized); ok {
		result.Having = &WhereClause{Conditions: []string{body}}
	}

	if body, ok := clauseBody(orderByRegex, normalized); ok {
		result.OrderBy = parseOrderBy(body)
	}

	parseLimitOffset(normalized, &result)

	return result
}

// classify determines the statement type from the leading keyword.
func classify(normalized string) QueryType {
	upper := strings.ToUpper(normalized)
	for _, t := range []QueryType{TypeSelect, TypeInsert, TypeUpdate, TypeDelete} {
		if strings.HasPrefix(upper, string(t)) {
			return t
		}
	}
	return TypeUnknown
}

// clauseBody returns the trimmed first capture group of re, if non-empty.
func clauseBody(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	body := strings.TrimSpace(m[1])
	return body, body != ""
}

func parseSelectList(normalized string, result *ParsedQuery) {
	body, ok := clauseBody(selectRegex, normalized)
	if !ok {
		return
	}
	if body == "*" {
		result.Select.AllColumns = true
		return
	}
	result.Select.Columns = SplitTopLevel(body)
}

func parseFrom(normalized string, result *ParsedQuery) {
	body, ok := clauseBody(fromRegex, normalized)
	if !ok {
		return
	}

	if strings.Contains(strings.ToUpper(body), "JOIN") {
		if parseJoins(body, result) {
			return
		}
	}

	for _, ref := range strings.Split(body, ",") {
		addTable(&result.From, ref)
	}
}

// parseJoins handles a FROM clause containing JOIN keywords. It reports false
// when no JOIN keyword could be located so the caller can fall back to the
// plain table list.
func parseJoins(body string, result *ParsedQuery) bool {
	keywords := joinKeywordRegex.FindAllStringSubmatchIndex(body, -1)
	if len(keywords) == 0 {
		return false
	}

	addTable(&result.From, body[:keywords[0][0]])

	result.Join = make([]JoinClause, 0, len(keywords))
	for i, loc := range keywords {
		end := len(body)
		if i+1 < len(keywords) {
			end = keywords[i+1][0]
		}
		segment := strings.TrimSpace(body[loc[1]:end])

		join := JoinClause{Type: JoinInner}
		switch {
		case loc[2] >= 0:
			join.Type = JoinType(strings.ToUpper(body[loc[2]:loc[3]]))
		case loc[4] >= 0:
			join.Type = JoinType(strings.ToUpper(body[loc[4]:loc[5]]))
		}

		ref := segment
		if m := joinOnRegex.FindStringSubmatch(segment); m != nil {
			ref = m[1]
			join.On = strings.TrimSpace(m[2])
		}

		join.Table = addTable(&result.From, ref)
		if join.Table == "" {
			continue
		}
		result.Join = append(result.Join, join)
	}

	return true
}

// addTable records a "table [AS] [alias]" reference and returns the table name.
func addTable(from *FromClause, ref string) string {
	parts := strings.Fields(ref)
	if len(parts) == 0 {
		return ""
	}
	table := parts[0]
	from.Tables = append(from.Tables, table)
	if len(parts) > 1 {
		from.Alias[table] = parts[len(parts)-1]
	}
	return table
}

func parseOrderBy(body string) *OrderByClause {
	if m := directionRegex.FindStringSubmatch(body); m != nil {
		return &OrderByClause{
			Columns:   splitList(m[1]),
			Direction: SortDirection(strings.ToUpper(m[2])),
		}
	}
	return &OrderByClause{
		Columns:   splitList(body),
		Direction: SortAsc,
	}
}

func parseLimitOffset(normalized string, result *ParsedQuery) {
	if m := limitRegex.FindStringSubmatch(normalized); m != nil {
		result.Limit = parseCount(m[1])
		if m[2] != "" {
			result.Offset = parseCount(m[2])
		}
	}

	if result.Offset != nil {
		return
	}
	if m := offsetRegex.FindStringSubmatch(normalized); m != nil {
		result.Offset = parseCount(m[1])
	}
}

// parseCount parses the digits of a LIMIT or OFFSET. Values too large for an
// int are clamped to math.MaxInt.
func parseCount(digits string) *int {
	n, err := strconv.Atoi(digits)
	switch {
	case errors.Is(err, strconv.ErrRange):
		n = math.MaxInt
	case err != nil:
		return nil
	}
	return &n
}

// splitList splits a plain comma-separated list and trims every item.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
