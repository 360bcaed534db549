package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var (
		variantsPath      string
		genotypesPath     string
		alphaMissensePath string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load variants and genotypes into the database",
		Long: `Load newline-delimited JSON variant rows and sample genotypes into the
configured DuckDB database. The high allele frequency and ClinVar pathogenic
prefilter tables are derived from the variant rows. Files that were already
imported unchanged are skipped.`,
		Example: `  vibe-search import --db callset.duckdb --variants variants.ndjson --genotypes genotypes.ndjson
  vibe-search import --db callset.duckdb --alphamissense AlphaMissense_hg38.tsv.gz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if variantsPath == "" && genotypesPath == "" && alphaMissensePath == "" {
				return &usageError{err: errors.New("at least one of --variants, --genotypes or --alphamissense is required")}
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

			ctx := cmd.Context()
			if variantsPath != "" {
				fmt.Fprintf(os.Stderr, "Importing variants from %s...\n", variantsPath)
				n, err := store.ImportVariants(ctx, variantsPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "  Variants: %d\n", n)
			}
			if genotypesPath != "" {
				fmt.Fprintf(os.Stderr, "Importing genotypes from %s...\n", genotypesPath)
				n, err := store.ImportGenotypes(ctx, genotypesPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "  Genotypes: %d\n", n)
			}
			if alphaMissensePath != "" {
				fmt.Fprintf(os.Stderr, "Importing AlphaMissense scores from %s...\n", alphaMissensePath)
				n, err := store.ImportAlphaMissense(ctx, alphaMissensePath)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "  Scores: %d\n", n)
			}

			total, err := store.Count()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "\nImport complete!\n  Variants in database: %d\n", total)
			return nil
		},
	}

	cmd.Flags().StringVar(&variantsPath, "variants", "", "Newline-delimited JSON variant rows")
	cmd.Flags().StringVar(&genotypesPath, "genotypes", "", "Newline-delimited JSON sample genotypes")
	cmd.Flags().StringVar(&alphaMissensePath, "alphamissense", "", "AlphaMissense TSV (gzipped or plain)")
	return cmd
}
