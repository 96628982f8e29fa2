package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultQueryTimeout = 10 * time.Second
	defaultMaxRows      = 10000

	envPrefix      = "BUDDYSQL"
	configFileName = ".buddysql"
)

// appFs is the filesystem used for existence checks; tests may swap it.
var appFs = afero.NewOsFs()

// Config holds the CLI configuration after flags, environment and config
// file have been merged.
type Config struct {
	SandboxPath      string
	SandboxDriver    string
	AuthDatabasePath string
	QueryTimeout     time.Duration
	MaxRows          int
	Verbose          bool
}

// flagKeys maps flag names onto the keys used in the config file and the
// environment (BUDDYSQL_<KEY>).
var flagKeys = map[string]string{
	"sandbox":  "sandbox_path",
	"driver":   "sandbox_driver",
	"auth-db":  "auth_database_path",
	"timeout":  "query_timeout",
	"max-rows": "max_rows",
	"verbose":  "verbose",
	"config":   "config",
}

// bindFlags makes every persistent flag readable through v under its config key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for flag, key := range flagKeys {
		if f := flags.Lookup(flag); f != nil {
			v.BindPFlag(key, f)
		}
	}
}

// LoadConfig loads configuration from .env files, the environment, an
// optional .buddysql.yaml and the bound flags, in increasing priority.
func LoadConfig(v *viper.Viper) (*Config, error) {
	// Load .env file if it exists
	if _, err := appFs.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	// Load .env.local if it exists (higher priority)
	if _, err := appFs.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return nil, fmt.Errorf("failed to load .env.local: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("sandbox_driver", "duckdb")
	v.SetDefault("query_timeout", defaultQueryTimeout)
	v.SetDefault("max_rows", defaultMaxRows)

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		SandboxPath:      v.GetString("sandbox_path"),
		SandboxDriver:    v.GetString("sandbox_driver"),
		AuthDatabasePath: v.GetString("auth_database_path"),
		QueryTimeout:     v.GetDuration("query_timeout"),
		MaxRows:          v.GetInt("max_rows"),
		Verbose:          v.GetBool("verbose"),
	}

	if cfg.MaxRows < 0 {
		return nil, fmt.Errorf("max_rows must be >= 0")
	}

	return cfg, nil
}
