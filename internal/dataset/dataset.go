// Package dataset defines how the query engine reads variant rows, sample
// genotypes and auxiliary prefilter tables.
package dataset

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/inodb/vibe-search/internal/enums"
	"github.com/inodb/vibe-search/internal/variant"
)

// Auxiliary prefilter tables and their boolean sub-filter columns.
const (
	TableHighAF          = "high_af_variants"
	ColumnGT10Percent    = "is_gt_10_percent"
	TableClinVarPath     = "clinvar_path_variants"
	ColumnPathogenic     = "is_pathogenic"
	ColumnLikelyPathogen = "is_likely_pathogenic"
)

// Population whose allele frequency drives the high-AF prefilter table.
const PrefilterPopulation = "gnomad_genomes"

// Frequency cutoffs for the high-AF table. Rows above HighAFCutoff are in
// the table; rows above GT10PercentCutoff also set ColumnGT10Percent.
const (
	HighAFCutoff      = 0.01
	GT10PercentCutoff = 0.1
)

// GenotypeTable maps row id to a sample's genotype. Rows without an entry are
// homozygous reference for a loaded sample.
type GenotypeTable map[uint32]variant.Genotype

// Reader reads a variant dataset.
type Reader interface {
	// Rows returns the dataset rows for build. Intervals are a pushdown hint:
	// an implementation may return rows outside them.
	Rows(ctx context.Context, build string, intervals []variant.Interval) ([]*variant.Row, error)

	// SampleGenotypes returns the genotype table of one sample restricted to
	// rows, or every stored entry when rows is nil.
	SampleGenotypes(ctx context.Context, sampleID string, rows *roaring.Bitmap) (GenotypeTable, error)

	// FilterTable returns the row ids of an auxiliary table. A non-empty column
	// keeps only rows where that boolean column is set.
	FilterTable(ctx context.Context, table, column string) (*roaring.Bitmap, error)
}

// HighAFColumns returns the high-AF table columns for a row, and false when
// the row does not belong in the table.
func HighAFColumns(r *variant.Row) (map[string]bool, bool) {
	pop, ok := r.Populations[PrefilterPopulation]
	if !ok {
		return nil, false
	}
	af := pop.FilterAF
	if af == nil {
		af = pop.AF
	}
	if af == nil || *af <= HighAFCutoff {
		return nil, false
	}
	return map[string]bool{ColumnGT10Percent: *af > GT10PercentCutoff}, true
}

// ClinVarPathColumns returns the ClinVar-path table columns for a row, and
// false when the row is not pathogenic or likely pathogenic.
func ClinVarPathColumns(r *variant.Row) (map[string]bool, bool) {
	if r.ClinVar == nil {
		return nil, false
	}
	path, err := enums.Default.ResolveRange(enums.CategoryClinVar, []string{enums.ClinVarPathogenic})
	if err != nil {
		return nil, false
	}
	likely, err := enums.Default.ResolveRange(enums.CategoryClinVar, []string{enums.ClinVarLikelyPathogenic})
	if err != nil {
		return nil, false
	}
	isPath := enums.InRanges(r.ClinVar.PathogenicityID, path)
	isLikely := enums.InRanges(r.ClinVar.PathogenicityID, likely)
	if !isPath && !isLikely {
		return nil, false
	}
	return map[string]bool{ColumnPathogenic: isPath, ColumnLikelyPathogen: isLikely}, true
}
