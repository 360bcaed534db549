// Package main provides the vibe-search command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/vibe-search/internal/duckdb"
	"github.com/inodb/vibe-search/internal/pedigree"
	"github.com/inodb/vibe-search/internal/search"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Config keys
const (
	keyDBPath        = "db.path"
	keyPedigreePath  = "pedigree.path"
	keyGenomeVersion = "genome_version"
	keyNumResults    = "search.num_results"
	keyServerAddr    = "server.addr"
	keyLogLevel      = "log.level"
)

// usageError marks errors caused by bad command-line usage.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var usage *usageError
		if errors.As(err, &usage) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	var verbose bool

	root := &cobra.Command{
		Use:   "vibe-search",
		Short: "Variant search over family callsets",
		Long: `vibe-search filters genomic variants by location, frequency, predicted
impact and pathogenicity, then by the genotypes of family members under an
inheritance model, and returns sorted, paginated results.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfgFile); err != nil {
				return err
			}
			if verbose {
				viper.Set(keyLogLevel, "debug")
			}
			return nil
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: ~/.vibe-search.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.String("db", "", "DuckDB database path")
	flags.String("pedigree", "", "Pedigree YAML file")
	viper.BindPFlag(keyDBPath, flags.Lookup("db"))
	viper.BindPFlag(keyPedigreePath, flags.Lookup("pedigree"))

	root.AddCommand(newSearchCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// initConfig reads ~/.vibe-search.yaml (or cfgFile) and VIBE_SEARCH_*
// environment variables.
func initConfig(cfgFile string) error {
	viper.SetDefault(keyGenomeVersion, search.StandardDefaults.GenomeVersion)
	viper.SetDefault(keyNumResults, search.StandardDefaults.NumResults)
	viper.SetDefault(keyServerAddr, ":5000")
	viper.SetDefault(keyLogLevel, "info")

	viper.SetEnvPrefix("VIBE_SEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		viper.SetConfigFile(filepath.Join(home, ".vibe-search.yaml"))
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// newLogger builds a console logger on stderr at the configured level.
func newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(viper.GetString(keyLogLevel))
	if err != nil {
		return nil, &usageError{err: fmt.Errorf("invalid log level: %w", err)}
	}
	cfg := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// searchDefaults returns the configured request defaults.
func searchDefaults() search.Defaults {
	return search.Defaults{
		GenomeVersion: viper.GetString(keyGenomeVersion),
		NumResults:    viper.GetInt(keyNumResults),
	}
}

// openStore opens the configured database.
func openStore(logger *zap.Logger) (*duckdb.Store, error) {
	path := viper.GetString(keyDBPath)
	if path == "" {
		return nil, &usageError{err: errors.New("no database configured; use --db or set db.path")}
	}
	store, err := duckdb.Open(path)
	if err != nil {
		return nil, err
	}
	store.SetLogger(logger)
	return store, nil
}

// loadPedigree loads the configured pedigree file.
func loadPedigree() (*pedigree.StaticProvider, error) {
	path := viper.GetString(keyPedigreePath)
	if path == "" {
		return nil, &usageError{err: errors.New("no pedigree configured; use --pedigree or set pedigree.path")}
	}
	return pedigree.LoadYAML(path)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-search version %s (%s) built %s\n", version, commit, date)
		},
	}
}
