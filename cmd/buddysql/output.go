package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Scc33/BuddySQL/grading"
	"github.com/Scc33/BuddySQL/resultset"
	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// feedbackColor returns the printer for a grading verdict.
func feedbackColor(t grading.FeedbackType) *color.Color {
	switch t {
	case grading.FeedbackSuccess:
		return successColor
	case grading.FeedbackError:
		return errorColor
	case grading.FeedbackWarning:
		return warningColor
	default:
		return infoColor
	}
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printTable writes a result set as aligned columns followed by a row count.
func printTable(w io.Writer, set resultset.ResultSet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(set.Columns, "\t"))

	rules := make([]string, len(set.Columns))
	for i, col := range set.Columns {
		rules[i] = strings.Repeat("-", len(col))
	}
	fmt.Fprintln(tw, strings.Join(rules, "\t"))

	cells := make([]string, len(set.Columns))
	for _, row := range set.Values {
		for i, val := range row {
			cells[i] = resultset.FormatValue(val)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	noun := "rows"
	if set.RowCount() == 1 {
		noun = "row"
	}
	_, err := fmt.Fprintf(w, "(%d %s)\n", set.RowCount(), noun)
	return err
}

// printGrade writes a verdict with its score, feedback and hints.
func printGrade(w io.Writer, result grading.Result) {
	mark := "✗"
	if result.IsCorrect {
		mark = "✓"
	}
	feedbackColor(result.Type).Fprintf(w, "%s %s (score %d/100)\n", mark, result.Feedback, result.Score)
	for _, hint := range result.Hints {
		fmt.Fprintf(w, "  • %s\n", hint)
	}
}
