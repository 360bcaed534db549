package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-search/internal/variant"
)

// configKeys lists the settable keys with the parser for each value.
var configKeys = map[string]func(string) (any, error){
	keyDBPath:        parseNonEmpty,
	keyPedigreePath:  parseNonEmpty,
	keyServerAddr:    parseNonEmpty,
	keyGenomeVersion: parseGenomeVersion,
	keyNumResults:    parseNumResults,
	keyLogLevel:      parseLogLevel,
}

func knownConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-search configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.vibe-search.yaml.",
		Example: `  vibe-search config                                  # show all config
  vibe-search config set db.path /data/callset.duckdb  # set the database
  vibe-search config set search.num_results 50         # change the page size
  vibe-search config get server.addr                   # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfig(cmd.OutOrStdout(), args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getConfig(cmd.OutOrStdout(), args[0])
		},
	})
	return cmd
}

func showConfig(w io.Writer) error {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		fmt.Fprintf(w, "# Config file: %s\n", cfgFile)
	}
	fmt.Fprint(w, string(out))
	return nil
}

func setConfig(w io.Writer, key, raw string) error {
	parse, ok := configKeys[key]
	if !ok {
		return &usageError{fmt.Errorf("unknown config key %q (known: %v)", key, knownConfigKeys())}
	}
	value, err := parse(raw)
	if err != nil {
		return &usageError{fmt.Errorf("invalid value for %s: %w", key, err)}
	}
	viper.Set(key, value)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".vibe-search.yaml")
	}
	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %v in %s\n", key, value, cfgFile)
	return nil
}

func getConfig(w io.Writer, key string) error {
	if _, ok := configKeys[key]; !ok {
		return &usageError{fmt.Errorf("unknown config key %q (known: %v)", key, knownConfigKeys())}
	}
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, val)
	return nil
}

func parseNonEmpty(s string) (any, error) {
	if s == "" {
		return nil, errors.New("empty value")
	}
	return s, nil
}

func parseGenomeVersion(s string) (any, error) {
	if s != variant.GRCh37 && s != variant.GRCh38 {
		return nil, fmt.Errorf("want %s or %s, got %q", variant.GRCh37, variant.GRCh38, s)
	}
	return s, nil
}

func parseNumResults(s string) (any, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("want a positive integer, got %q", s)
	}
	return n, nil
}

func parseLogLevel(s string) (any, error) {
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return nil, err
	}
	return level.String(), nil
}
