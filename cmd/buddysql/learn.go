package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Scc33/BuddySQL/database"
	"github.com/Scc33/BuddySQL/formats"
	"github.com/Scc33/BuddySQL/lessons"
	"github.com/Scc33/BuddySQL/resultset"
	"github.com/Scc33/BuddySQL/sqlparse"
	"github.com/spf13/cobra"
)

// readQuery returns the SQL given as arguments, or stdin when there are none.
func readQuery(cmd *cobra.Command, args []string) (string, error) {
	query := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read query from stdin: %w", err)
		}
		query = string(data)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("SQL query is required")
	}
	return query, nil
}

// openSandbox creates a sandbox-only database manager from the CLI config.
func (c *cli) openSandbox() (*database.Manager, error) {
	mgr, err := database.NewSandboxManager(database.Config{
		Driver:       c.cfg.SandboxDriver,
		SandboxPath:  c.cfg.SandboxPath,
		Threads:      1,
		QueryTimeout: c.cfg.QueryTimeout,
		MaxRows:      c.cfg.MaxRows,
		Logger:       c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sandbox: %w", err)
	}
	return mgr, nil
}

func (c *cli) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [sql]",
		Short: "Break a query into its clauses",
		Long: `Print the clause breakdown of a query as JSON. The query is read from
the arguments, or from stdin when none are given.`,
		Example: `  buddysql parse "SELECT name FROM Products WHERE price > 100"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sqlparse.Parse(query))
		},
	}
}

func (c *cli) runCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "run [sql]",
		Short: "Run a script against the sandbox",
		Long: `Run one or more semicolon-separated statements against the sample store.
Changes are rolled back after every run, so the sandbox always starts fresh.`,
		Example: `  buddysql run "SELECT * FROM Customers LIMIT 3"
  buddysql run --format csv "SELECT name, price FROM Products"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != formats.FormatJSON && format != formats.FormatCSV {
				return fmt.Errorf("invalid format: %s (must be table, json, or csv)", format)
			}

			query, err := readQuery(cmd, args)
			if err != nil {
				return err
			}

			mgr, err := c.openSandbox()
			if err != nil {
				return err
			}
			defer mgr.Close()

			sets, err := mgr.Execute(cmd.Context(), query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case formats.FormatJSON:
				if sets == nil {
					sets = []resultset.ResultSet{}
				}
				return printJSON(out, sets)
			case formats.FormatCSV:
				for i, set := range sets {
					if i > 0 {
						fmt.Fprintln(out)
					}
					if err := formats.EncodeCSV(out, set); err != nil {
						return err
					}
				}
				return nil
			}

			if len(sets) == 0 {
				successColor.Fprintln(out, "Query executed successfully. No rows returned.")
				return nil
			}
			for i, set := range sets {
				if i > 0 {
					fmt.Fprintln(out)
				}
				if err := printTable(out, set); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json, or csv")
	return cmd
}

func (c *cli) gradeCmd() *cobra.Command {
	var (
		lessonKey string
		challenge bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "grade [sql]",
		Short: "Grade a query against a lesson",
		Example: `  buddysql grade --lesson select-basics "SELECT first_name, last_name, email FROM Customers"
  buddysql grade --lesson 2 --challenge "SELECT name, price FROM Products"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args)
			if err != nil {
				return err
			}

			mgr, err := c.openSandbox()
			if err != nil {
				return err
			}
			defer mgr.Close()

			sub, err := lessons.Submit(cmd.Context(), mgr, lessonKey, query, challenge)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, sub)
			}

			if sub.Error != "" {
				errorColor.Fprintf(out, "Error: %s\n", sub.Error)
			}
			printGrade(out, sub.Grade)
			return nil
		},
	}

	cmd.Flags().StringVarP(&lessonKey, "lesson", "l", "", "Lesson slug or id (required)")
	cmd.Flags().BoolVarP(&challenge, "challenge", "c", false, "Grade against the lesson challenge")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the submission as JSON")
	cmd.MarkFlagRequired("lesson")

	return cmd
}

func (c *cli) lessonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lessons [slug]",
		Short: "List lessons, or show one lesson",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, l := range lessons.All() {
					marker := ""
					if l.Challenge != nil {
						marker = infoColor.Sprint(" [challenge]")
					}
					fmt.Fprintf(out, "%2d. %-22s %s%s\n", l.Order, l.Slug, l.Title, marker)
				}
				return nil
			}

			l, ok := lessons.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", lessons.ErrUnknownLesson, args[0])
			}

			successColor.Fprintln(out, l.Title)
			fmt.Fprintln(out, l.Description)
			if l.InitialQuery != "" {
				fmt.Fprintf(out, "\nStarter query:\n  %s\n", l.InitialQuery)
			}
			if l.Challenge != nil {
				warningColor.Fprintln(out, "\nChallenge:")
				fmt.Fprintf(out, "  %s\n", l.Challenge.Description)
			}
			return nil
		},
	}
}
