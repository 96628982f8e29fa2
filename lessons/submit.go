package lessons

import (
	"context"
	"errors"
	"fmt"

	"github.com/Scc33/BuddySQL/grading"
	"github.com/Scc33/BuddySQL/resultset"
)

// ErrUnknownLesson is returned when a submission names no known lesson.
var ErrUnknownLesson = errors.New("unknown lesson")

// Executor runs a script against the sandbox.
type Executor interface {
	Execute(ctx context.Context, script string) ([]resultset.ResultSet, error)
}

// Submission is a graded attempt at a lesson exercise.
type Submission struct {
	Grade   grading.Result        `json:"grade"`
	Results []resultset.ResultSet `json:"results"`
	// Error holds the engine message when the query failed to run.
	Error string `json:"error,omitempty"`
}

// Submit runs query with exec and grades it against the lesson's rules. A
// query that fails to execute is graded as an error, not returned as one.
// For challenges the reference query is run as well and a learner whose
// results match it exactly gets full marks.
func Submit(ctx context.Context, exec Executor, key, query string, challenge bool) (Submission, error) {
	lesson, ok := Lookup(key)
	if !ok {
		return Submission{}, fmt.Errorf("%w: %s", ErrUnknownLesson, key)
	}

	opts := GradeOptions(lesson.Slug, challenge)
	if challenge && lesson.Challenge != nil && lesson.Challenge.ValidationQuery != "" {
		expected, err := exec.Execute(ctx, lesson.Challenge.ValidationQuery)
		if err != nil {
			return Submission{}, fmt.Errorf("failed to run reference query for %s: %w", lesson.Slug, err)
		}
		if opts.Validator == nil {
			opts.Validator = grading.MatchResults(expected)
		}
	}

	sub := Submission{Results: []resultset.ResultSet{}}
	results, err := exec.Execute(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Submission{}, ctxErr
		}
		sub.Error = err.Error()
	} else if results != nil {
		sub.Results = results
	}

	sub.Grade = grading.Grade(query, sub.Results, err != nil, opts)
	return sub, nil
}
