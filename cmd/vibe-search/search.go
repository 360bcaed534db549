package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-search/internal/output"
	"github.com/inodb/vibe-search/internal/query"
	"github.com/inodb/vibe-search/internal/search"
)

func newSearchCmd() *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "search [request.json]",
		Short: "Run a search request",
		Long: `Run a JSON search request against the configured database and pedigree.
The request is read from the file argument, or from stdin when it is '-' or
omitted.`,
		Example: `  vibe-search search --db callset.duckdb --pedigree families.yaml request.json
  vibe-search search -f tab -o results.tsv request.json
  echo '{"inheritance": {"mode": "de_novo"}}' | vibe-search search`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			return runSearch(cmd, input, outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "json", "Output format: json, tab")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func runSearch(cmd *cobra.Command, input, outputFormat, outputFile string) error {
	if outputFormat != "json" && outputFormat != "tab" {
		return &usageError{err: fmt.Errorf("unknown output format %q", outputFormat)}
	}

	body, err := readRequest(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}
	criteria, err := search.ParseCriteriaWithDefaults(body, searchDefaults())
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := openStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()
	provider, err := loadPedigree()
	if err != nil {
		return err
	}

	engine := query.NewEngine(store, provider)
	engine.SetLogger(logger)
	res, err := engine.Search(cmd.Context(), criteria)
	if err != nil {
		var unsupported *search.UnsupportedOperationError
		if errors.As(err, &unsupported) {
			fmt.Fprintf(os.Stderr, "Hint: only %s datasets can be searched\n", search.DatasetSNVIndel)
		}
		return err
	}

	w := cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := writeResults(w, outputFormat, res); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Found %d results (showing %d)\n", res.TotalResults, len(res.Records))
	return nil
}

func readRequest(stdin io.Reader, input string) ([]byte, error) {
	if input == "-" {
		body, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading request: %w", err)
		}
		return body, nil
	}
	body, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}
	return body, nil
}

func writeResults(w io.Writer, format string, res *output.Results) error {
	if format == "json" {
		return output.WriteJSON(w, res)
	}
	tw := output.NewTabWriter(w)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, rec := range res.Records {
		if err := tw.Write(rec); err != nil {
			return err
		}
	}
	return tw.Flush()
}
