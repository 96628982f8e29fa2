package grading

import "github.com/Scc33/BuddySQL/resultset"

// FeedbackType drives how a verdict is presented. It carries no grading logic.
type FeedbackType string

const (
	FeedbackSuccess FeedbackType = "success"
	FeedbackError   FeedbackType = "error"
	FeedbackWarning FeedbackType = "warning"
	FeedbackInfo    FeedbackType = "info"
)

// Score constants. Each failure class has a fixed score so the number tells
// the learner which kind of mistake was made.
const (
	ScoreExecutionError = 0
	ScoreNoResults      = 0
	ScoreForbiddenTerm  = 30
	ScoreMissingTerm    = 40
	ScoreMissingColumn  = 50
	ScoreWrongRowCount  = 60
	ScoreExtraColumns   = 70
	ScoreValidResults   = 90
	ScoreExactMatch     = 100
)

// Result is the verdict for one submitted query.
type Result struct {
	IsCorrect bool         `json:"isCorrect"`
	Score     int          `json:"score"`
	Feedback  string       `json:"feedback"`
	Hints     []string     `json:"hints,omitempty"`
	Type      FeedbackType `json:"type"`
}

// Validator is an optional custom rule consulted before the built-in checks.
// Returning nil defers to the built-in checks.
type Validator interface {
	Validate(results []resultset.ResultSet, userQuery string) *Result
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(results []resultset.ResultSet, userQuery string) *Result

// Validate calls f(results, userQuery).
func (f ValidatorFunc) Validate(results []resultset.ResultSet, userQuery string) *Result {
	return f(results, userQuery)
}

// Options is the declarative rule set a query is graded against.
// Zero values disable the corresponding check.
type Options struct {
	// ExpectedQuery, when set, grants full marks to a query that matches it
	// after whitespace (and, unless CaseSensitive, case) normalization.
	ExpectedQuery string `json:"expectedQuery,omitempty"`

	// ExpectedColumns is compared as a set against the first result set's columns.
	ExpectedColumns []string `json:"expectedColumns,omitempty"`

	// ExpectedRows is compared against the first result set's row count.
	ExpectedRows *int `json:"expectedRows,omitempty"`

	// MustContain lists substrings the query text must contain.
	MustContain []string `json:"mustContain,omitempty"`

	// MustNotContain lists substrings the query text must not contain.
	MustNotContain []string `json:"mustNotContain,omitempty"`

	CaseSensitive bool `json:"caseSensitive,omitempty"`

	Validator Validator `json:"-"`

	// Hints replace the default hints on execution errors and empty results.
	// A nil slice selects the defaults; an empty slice yields no hints.
	Hints []string `json:"hints,omitempty"`
}
