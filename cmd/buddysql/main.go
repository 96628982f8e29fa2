// Command buddysql parses, runs and grades SQL against the lesson sandbox and
// manages the auth database used by the Caddy module.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// Version information (set by build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli is the state shared by every subcommand once flags and config are loaded.
type cli struct {
	v      *viper.Viper
	cfg    *Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "buddysql",
		Short: "Interactive SQL lessons from the command line",
		Long: `BuddySQL parses, runs and grades SQL queries against a seeded sample
store (Customers, Products, Orders, Order_Items).

It also manages the auth database the Caddy module reads API keys,
roles and permissions from.`,
		Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(c.v)
			if err != nil {
				return err
			}
			c.cfg = cfg

			c.logger = zap.NewNop()
			if cfg.Verbose {
				c.logger, err = zap.NewDevelopment()
				if err != nil {
					return fmt.Errorf("failed to create logger: %w", err)
				}
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				c.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default is .buddysql.yaml in . or $HOME)")
	flags.String("sandbox", "", "Path to the sandbox database (default: in-memory)")
	flags.String("driver", "duckdb", "Sandbox engine: duckdb or sqlite3")
	flags.StringP("auth-db", "d", "", "Path to the auth database")
	flags.Duration("timeout", defaultQueryTimeout, "Maximum duration of one script")
	flags.Int("max-rows", defaultMaxRows, "Maximum rows collected per result set (0 = unlimited)")
	flags.BoolP("verbose", "v", false, "Log database activity to stderr")
	bindFlags(c.v, flags)

	rootCmd.AddCommand(
		c.parseCmd(),
		c.runCmd(),
		c.gradeCmd(),
		c.lessonsCmd(),
		c.authCmd(),
	)

	return rootCmd
}
