// Package grading evaluates a learner's SQL query against a declarative rule set.
//
// Grade runs a strict waterfall: the first rule that produces a verdict wins and
// later rules are not evaluated. The order is execution error, empty result,
// custom validator, exact match, required terms, forbidden terms, column shape,
// row count and finally the default success verdict.
package grading

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Scc33/BuddySQL/resultset"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize collapses whitespace runs, trims the query and, unless
// caseSensitive is set, lowercases it.
func Normalize(query string, caseSensitive bool) string {
	normalized := strings.TrimSpace(whitespaceRegex.ReplaceAllString(query, " "))
	if !caseSensitive {
		normalized = strings.ToLower(normalized)
	}
	return normalized
}

// Grade computes the verdict for userQuery. results are the result sets the
// engine produced and hasError reports whether execution failed. Grade never
// panics on empty inputs and does not execute anything itself.
func Grade(userQuery string, results []resultset.ResultSet, hasError bool, opts Options) Result {
	if hasError {
		return Result{
			IsCorrect: false,
			Score:     ScoreExecutionError,
			Feedback:  "Your query has syntax or execution errors. Please check your SQL syntax.",
			Hints:     hintsOr(opts.Hints, "Make sure your SQL syntax is correct."),
			Type:      FeedbackError,
		}
	}

	if len(results) == 0 {
		return Result{
			IsCorrect: false,
			Score:     ScoreNoResults,
			Feedback:  "Your query executed but didn't return any results.",
			Hints:     hintsOr(opts.Hints, "Check if your query conditions might be too restrictive."),
			Type:      FeedbackWarning,
		}
	}

	if opts.Validator != nil {
		if custom := opts.Validator.Validate(results, userQuery); custom != nil {
			return *custom
		}
	}

	if opts.ExpectedQuery != "" &&
		Normalize(userQuery, opts.CaseSensitive) == Normalize(opts.ExpectedQuery, opts.CaseSensitive) {
		return Result{
			IsCorrect: true,
			Score:     ScoreExactMatch,
			Feedback:  "Perfect! Your query exactly matches the expected solution.",
			Type:      FeedbackSuccess,
		}
	}

	if missing := filterTerms(userQuery, opts.MustContain, opts.CaseSensitive, false); len(missing) > 0 {
		return Result{
			IsCorrect: false,
			Score:     ScoreMissingTerm,
			Feedback:  "Your query is missing some important elements.",
			Hints:     []string{"Make sure your query includes: " + strings.Join(missing, ", ")},
			Type:      FeedbackWarning,
		}
	}

	if forbidden := filterTerms(userQuery, opts.MustNotContain, opts.CaseSensitive, true); len(forbidden) > 0 {
		return Result{
			IsCorrect: false,
			Score:     ScoreForbiddenTerm,
			Feedback:  "Your query contains elements that shouldn't be used for this exercise.",
			Hints:     []string{"Avoid using: " + strings.Join(forbidden, ", ")},
			Type:      FeedbackWarning,
		}
	}

	first, ok := resultset.First(results)

	if opts.ExpectedColumns != nil && ok {
		if verdict := checkColumns(first.Columns, opts.ExpectedColumns, opts.CaseSensitive); verdict != nil {
			return *verdict
		}
	}

	if opts.ExpectedRows != nil && ok {
		if rowCount := first.RowCount(); rowCount != *opts.ExpectedRows {
			return Result{
				IsCorrect: false,
				Score:     ScoreWrongRowCount,
				Feedback:  fmt.Sprintf("Your query returned %d rows, but we expected %d.", rowCount, *opts.ExpectedRows),
				Hints:     []string{"Check your WHERE clause conditions or JOINs. You might be filtering too much or too little."},
				Type:      FeedbackWarning,
			}
		}
	}

	return Result{
		IsCorrect: true,
		Score:     ScoreValidResults,
		Feedback:  "Your query works and returns valid results!",
		Type:      FeedbackSuccess,
	}
}

// filterTerms returns the terms whose containment in the normalized query
// equals wantPresent. Matching is by substring, not by token.
func filterTerms(userQuery string, terms []string, caseSensitive, wantPresent bool) []string {
	if len(terms) == 0 {
		return nil
	}

	normalized := Normalize(userQuery, caseSensitive)
	var matched []string
	for _, term := range terms {
		needle := term
		if !caseSensitive {
			needle = strings.ToLower(term)
		}
		if strings.Contains(normalized, needle) == wantPresent {
			matched = append(matched, term)
		}
	}
	return matched
}

// checkColumns compares the result columns with the expected set, ignoring order.
func checkColumns(resultColumns, expectedColumns []string, caseSensitive bool) *Result {
	fold := func(cols []string) []string {
		out := make([]string, len(cols))
		for i, c := range cols {
			if caseSensitive {
				out[i] = c
			} else {
				out[i] = strings.ToLower(c)
			}
		}
		return out
	}

	actual := fold(resultColumns)
	expected := fold(expectedColumns)

	actualSet := make(map[string]struct{}, len(actual))
	for _, c := range actual {
		actualSet[c] = struct{}{}
	}
	expectedSet := make(map[string]struct{}, len(expected))
	for _, c := range expected {
		expectedSet[c] = struct{}{}
	}

	var missing []string
	for _, c := range expected {
		if _, ok := actualSet[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &Result{
			IsCorrect: false,
			Score:     ScoreMissingColumn,
			Feedback:  "Your query is missing some required columns.",
			Hints:     []string{"Make sure to include columns: " + strings.Join(missing, ", ")},
			Type:      FeedbackWarning,
		}
	}

	hasExtra := false
	for _, c := range actual {
		if _, ok := expectedSet[c]; !ok {
			hasExtra = true
			break
		}
	}
	if hasExtra && len(expected) > 0 {
		return &Result{
			IsCorrect: false,
			Score:     ScoreExtraColumns,
			Feedback:  "Your query returned additional columns that weren't required.",
			Hints:     []string{"Your query works but could be more precise. Try selecting only the specific columns needed."},
			Type:      FeedbackInfo,
		}
	}

	return nil
}

func hintsOr(hints []string, fallback string) []string {
	if hints != nil {
		return hints
	}
	return []string{fallback}
}
