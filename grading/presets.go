package grading

import "github.com/Scc33/BuddySQL/resultset"

// ExactResults checks only the shape of the first result set.
func ExactResults(expectedColumns []string, expectedRows int) Options {
	return Options{
		ExpectedColumns: expectedColumns,
		ExpectedRows:    &expectedRows,
	}
}

// BasicSelect requires SELECT plus the named tables and columns.
func BasicSelect(requiredTables, requiredColumns []string) Options {
	terms := append([]string{"SELECT"}, requiredTables...)
	return Options{MustContain: append(terms, requiredColumns...)}
}

// Filtering requires a WHERE clause plus the given condition fragments.
func Filtering(requiredConditions []string) Options {
	return Options{MustContain: append([]string{"WHERE"}, requiredConditions...)}
}

// Joining requires the join keyword (e.g. "INNER JOIN"), every table and ON.
func Joining(joinType string, tables []string) Options {
	terms := append([]string{joinType}, tables...)
	return Options{MustContain: append(terms, "ON")}
}

// DefaultAggregates are the functions Aggregation requires when none are given.
var DefaultAggregates = []string{"COUNT", "SUM", "AVG", "MIN", "MAX"}

// Aggregation requires every listed aggregate function and, optionally, GROUP BY.
func Aggregation(functions []string, groupBy bool) Options {
	if functions == nil {
		functions = DefaultAggregates
	}
	terms := append([]string{}, functions...)
	if groupBy {
		terms = append(terms, "GROUP BY")
	}
	return Options{MustContain: terms}
}

// MatchResults returns a Validator that awards full marks when the learner's
// first result set equals expected, the output of a reference query. Any other
// outcome defers to the built-in rules.
func MatchResults(expected []resultset.ResultSet) Validator {
	return ValidatorFunc(func(results []resultset.ResultSet, _ string) *Result {
		want, ok := resultset.First(expected)
		if !ok {
			return nil
		}
		got, ok := resultset.First(results)
		if !ok || !resultset.Equal(got, want) {
			return nil
		}
		return &Result{
			IsCorrect: true,
			Score:     ScoreExactMatch,
			Feedback:  "Perfect! Your results match the expected output exactly.",
			Type:      FeedbackSuccess,
		}
	})
}
