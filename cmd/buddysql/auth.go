package main

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Scc33/BuddySQL/auth"
	"github.com/Scc33/BuddySQL/database"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// authCmd creates the auth subcommand tree for managing the auth database.
func (c *cli) authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the auth database",
		Long: `Manage the auth database the Caddy module reads API keys, roles and
permissions from.

The database path comes from --auth-db, BUDDYSQL_AUTH_DATABASE_PATH or
auth_database_path in .buddysql.yaml.`,
	}

	cmd.AddCommand(c.authInitCmd(), c.roleCmd(), c.keyCmd(), c.permissionCmd(), c.infoCmd())
	return cmd
}

// openAuthDB opens the configured auth database.
func (c *cli) openAuthDB() (*sql.DB, error) {
	if c.cfg.AuthDatabasePath == "" {
		return nil, errors.New("auth database path is required (use --auth-db)")
	}
	db, err := sql.Open("duckdb", c.cfg.AuthDatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open auth database: %w", err)
	}
	return db, nil
}

// withAuthorizer runs fn with an authorizer over the configured auth database.
func (c *cli) withAuthorizer(fn func(a *auth.Authorizer) error) error {
	db, err := c.openAuthDB()
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(auth.NewAuthorizer(db))
}

func (c *cli) authInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new auth database",
		Long: `Create a new auth database with the required schema and the default
roles: learner (parse, run, grade) and guest (parse only).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.cfg.AuthDatabasePath
			if path != "" {
				if exists, _ := afero.Exists(appFs, path); exists {
					return fmt.Errorf("database already exists at %s (remove it first or use a different path)", path)
				}
			}

			db, err := c.openAuthDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.InitAuthDatabase(cmd.Context(), db); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			successColor.Fprintf(out, "✓ Created auth database at %s\n", path)
			successColor.Fprintln(out, "✓ Added default roles: learner, guest")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintf(out, "  1. Create an API key:  buddysql auth key add --auth-db %s --role learner\n", path)
			fmt.Fprintln(out, "  2. Point auth_database_path in your Caddyfile at the database")
			return nil
		},
	}
}

// roleCmd creates the role subcommand with add/remove/list
func (c *cli) roleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage roles",
	}

	var (
		name, desc string
		ops        string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new role with its permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			perm, err := parseOperations(ops)
			if err != nil {
				return err
			}
			perm.RoleName = name

			return c.withAuthorizer(func(a *auth.Authorizer) error {
				if err := a.CreateRole(name, desc); err != nil {
					return err
				}
				if err := a.CreatePermission(perm); err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "✓ Created role '%s' (%s)\n", name, describePermission(perm))
				return nil
			})
		},
	}
	addCmd.Flags().StringVarP(&name, "name", "n", "", "Role name (required)")
	addCmd.Flags().StringVar(&desc, "desc", "", "Role description")
	addCmd.Flags().StringVarP(&ops, "operations", "o", "parse", "Operations to allow: parse,run,grade or all or none")
	addCmd.MarkFlagRequired("name")

	var (
		removeName string
		force      bool
	)
	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withAuthorizer(func(a *auth.Authorizer) error {
				keys, err := a.ListAPIKeys()
				if err != nil {
					return err
				}
				keyCount := 0
				for _, k := range keys {
					if k.RoleName == removeName {
						keyCount++
					}
				}
				if keyCount > 0 && !force {
					return fmt.Errorf("role '%s' has %d API keys; use --force to remove", removeName, keyCount)
				}

				if err := a.DeleteRole(removeName); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				successColor.Fprintf(out, "✓ Removed role '%s'", removeName)
				if keyCount > 0 {
					fmt.Fprintf(out, " (also removed %d API keys)", keyCount)
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}
	removeCmd.Flags().StringVarP(&removeName, "name", "n", "", "Role name (required)")
	removeCmd.Flags().BoolVarP(&force, "force", "f", false, "Force removal (also removes associated API keys)")
	removeCmd.MarkFlagRequired("name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all roles with their permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withAuthorizer(func(a *auth.Authorizer) error {
				return printRoles(cmd.OutOrStdout(), a)
			})
		},
	}

	cmd.AddCommand(addCmd, removeCmd, listCmd)
	return cmd
}

// permissionCmd creates the permission subcommand
func (c *cli) permissionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "permission",
		Short:   "Manage role permissions",
		Aliases: []string{"perm"},
	}

	var role, ops string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set the operations a role may perform",
		Long: `Set the operations a role may perform. Operations are a comma-separated
list of:
  - parse: parse queries and browse lessons
  - run: execute queries and preview sandbox tables
  - grade: grade queries against lessons
  - all: every operation
  - none: no operation`,
		RunE: func(cmd *cobra.Command, args []string) error {
			perm, err := parseOperations(ops)
			if err != nil {
				return err
			}
			perm.RoleName = role

			return c.withAuthorizer(func(a *auth.Authorizer) error {
				existing, err := a.GetPermission(role)
				if err != nil {
					return err
				}
				if existing == nil {
					err = a.CreatePermission(perm)
				} else {
					err = a.UpdatePermission(perm)
				}
				if err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "✓ Permission set for role '%s' (%s)\n", role, describePermission(perm))
				return nil
			})
		},
	}
	setCmd.Flags().StringVarP(&role, "role", "r", "", "Role name (required)")
	setCmd.Flags().StringVarP(&ops, "operations", "o", "", "Operations to allow (required)")
	setCmd.MarkFlagRequired("role")
	setCmd.MarkFlagRequired("operations")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withAuthorizer(func(a *auth.Authorizer) error {
				return printRoles(cmd.OutOrStdout(), a)
			})
		},
	}

	cmd.AddCommand(setCmd, listCmd)
	return cmd
}

// keyCmd creates the key subcommand with add/list/revoke
func (c *cli) keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage API keys",
	}

	var role, key, expires string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			var expiresAt *time.Time
			if expires != "" {
				t, err := time.Parse(time.RFC3339, expires)
				if err != nil {
					return fmt.Errorf("invalid expiration date (use RFC3339 format, e.g., 2025-12-31T23:59:59Z): %w", err)
				}
				expiresAt = &t
			}

			return c.withAuthorizer(func(a *auth.Authorizer) error {
				roles, err := a.ListRoles()
				if err != nil {
					return err
				}
				if !hasRole(roles, role) {
					return fmt.Errorf("role '%s' does not exist", role)
				}

				apiKey := key
				if apiKey == "" {
					apiKey, err = generateRandomKey()
					if err != nil {
						return fmt.Errorf("failed to generate API key: %w", err)
					}
				}

				if err := a.CreateAPIKey(apiKey, role, expiresAt); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				successColor.Fprintln(out, "✓ API key created successfully!")
				fmt.Fprintln(out)
				fmt.Fprintf(out, "  API Key:  %s\n", apiKey)
				fmt.Fprintf(out, "  Role:     %s\n", role)
				if expiresAt != nil {
					fmt.Fprintf(out, "  Expires:  %s\n", expiresAt.Format(time.RFC3339))
				} else {
					fmt.Fprintln(out, "  Expires:  never")
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Use this in your requests:")
				fmt.Fprintf(out, "  curl -H \"X-API-Key: %s\" ...\n", apiKey)
				return nil
			})
		},
	}
	addCmd.Flags().StringVarP(&role, "role", "r", "", "Role name (required)")
	addCmd.Flags().StringVarP(&key, "key", "k", "", "API key (if empty, generates a random one)")
	addCmd.Flags().StringVarP(&expires, "expires", "e", "", "Expiration date (RFC3339 format, e.g., 2025-12-31T23:59:59Z)")
	addCmd.MarkFlagRequired("role")

	var showKeys bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withAuthorizer(func(a *auth.Authorizer) error {
				keys, err := a.ListAPIKeys()
				if err != nil {
					return err
				}
				printKeys(cmd.OutOrStdout(), keys, showKeys)
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&showKeys, "show-keys", false, "Show full API keys (by default only shows first 8 characters)")

	var revokeKey string
	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withAuthorizer(func(a *auth.Authorizer) error {
				if err := a.RevokeAPIKey(revokeKey); err != nil {
					return err
				}
				successColor.Fprintln(cmd.OutOrStdout(), "✓ API key revoked")
				return nil
			})
		},
	}
	revokeCmd.Flags().StringVarP(&revokeKey, "key", "k", "", "API key to revoke (required)")
	revokeCmd.MarkFlagRequired("key")

	cmd.AddCommand(addCmd, listCmd, revokeCmd)
	return cmd
}

// infoCmd creates the info subcommand
func (c *cli) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show auth database statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withAuthorizer(func(a *auth.Authorizer) error {
				roles, err := a.ListRoles()
				if err != nil {
					return err
				}
				keys, err := a.ListAPIKeys()
				if err != nil {
					return err
				}
				active := 0
				for _, k := range keys {
					if k.IsActive {
						active++
					}
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Auth Database: %s\n", c.cfg.AuthDatabasePath)
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Statistics:")
				fmt.Fprintf(out, "  Roles:     %d\n", len(roles))
				fmt.Fprintf(out, "  API Keys:  %d (%d active)\n", len(keys), active)
				return nil
			})
		},
	}
}

// parseOperations turns a comma-separated operation list into a permission.
func parseOperations(ops string) (auth.Permission, error) {
	var perm auth.Permission

	ops = strings.ToLower(strings.TrimSpace(ops))
	switch ops {
	case "all":
		return auth.Permission{CanParse: true, CanRun: true, CanGrade: true}, nil
	case "none", "":
		return perm, nil
	}

	for _, p := range strings.Split(ops, ",") {
		switch auth.Operation(strings.TrimSpace(p)) {
		case auth.OperationParse:
			perm.CanParse = true
		case auth.OperationRun:
			perm.CanRun = true
		case auth.OperationGrade:
			perm.CanGrade = true
		default:
			return perm, fmt.Errorf("unknown operation: %s", strings.TrimSpace(p))
		}
	}

	return perm, nil
}

func describePermission(perm auth.Permission) string {
	var ops []string
	if perm.CanParse {
		ops = append(ops, string(auth.OperationParse))
	}
	if perm.CanRun {
		ops = append(ops, string(auth.OperationRun))
	}
	if perm.CanGrade {
		ops = append(ops, string(auth.OperationGrade))
	}
	if len(ops) == 0 {
		return "no operations"
	}
	return strings.Join(ops, ", ")
}

func hasRole(roles []auth.Role, name string) bool {
	for _, r := range roles {
		if r.RoleName == name {
			return true
		}
	}
	return false
}

// generateRandomKey generates a cryptographically secure random API key
func generateRandomKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func printRoles(w io.Writer, a *auth.Authorizer) error {
	roles, err := a.ListRoles()
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		fmt.Fprintln(w, "No roles found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tPARSE\tRUN\tGRADE\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t-----\t---\t-----\t-----------")
	for _, r := range roles {
		perm, err := a.GetPermission(r.RoleName)
		if err != nil {
			return err
		}
		if perm == nil {
			perm = &auth.Permission{}
		}
		fmt.Fprintf(tw, "%s\t%v\t%v\t%v\t%s\n", r.RoleName, perm.CanParse, perm.CanRun, perm.CanGrade, r.Description)
	}
	return tw.Flush()
}

func printKeys(w io.Writer, keys []auth.APIKey, showKeys bool) {
	if len(keys) == 0 {
		fmt.Fprintln(w, "No API keys found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tROLE\tCREATED\tEXPIRES\tACTIVE")
	fmt.Fprintln(tw, "---\t----\t-------\t-------\t------")
	for _, k := range keys {
		displayKey := k.Key
		if !showKeys && len(displayKey) > 8 {
			displayKey = displayKey[:8] + "..."
		}

		expiresStr := "never"
		if k.ExpiresAt != nil {
			expiresStr = k.ExpiresAt.Format("2006-01-02")
		}

		activeStr := "yes"
		if !k.IsActive {
			activeStr = "no"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			displayKey,
			k.RoleName,
			k.CreatedAt.Format("2006-01-02"),
			expiresStr,
			activeStr,
		)
	}
	tw.Flush()
}
