package prefilter

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/inodb/vibe-search/internal/dataset"
	"github.com/inodb/vibe-search/internal/enums"
	"github.com/inodb/vibe-search/internal/search"
)

// Prefilter kinds.
const (
	KindGnomadAF    = dataset.PrefilterPopulation
	KindClinVarPath = enums.CategoryClinVar
)

// PathFreqOverrideCutoff is the frequency ceiling applied to the prefilter
// when a ClinVar pathogenicity override is requested.
const PathFreqOverrideCutoff = 0.05

// Decision is the three-valued outcome of a prefilter builder: skip the
// prefilter, apply the whole table, or apply one boolean column of it.
type Decision struct {
	Apply  bool
	Column string
}

var skip = Decision{}

// Set wires the dataset-specific prefilters for one query.
type Set struct {
	cache    *Cache
	reader   dataset.Reader
	criteria *search.Criteria
}

// NewSet creates the prefilters for criteria over reader.
func NewSet(cache *Cache, reader dataset.Reader, criteria *search.Criteria) *Set {
	return &Set{cache: cache, reader: reader, criteria: criteria}
}

// HighAFExclusion returns the rows that cannot pass the gnomAD genomes
// frequency cutoff, or nil when no exclusion applies. ClinVar pathogenic rows
// are never excluded when a ClinVar override was requested.
func (s *Set) HighAFExclusion(ctx context.Context) (*roaring.Bitmap, error) {
	return s.cache.GetOrBuild(ctx, KindGnomadAF, func(ctx context.Context) (*roaring.Bitmap, error) {
		d := GnomadAFDecision(s.criteria)
		if !d.Apply {
			return nil, nil
		}
		rows, err := s.reader.FilterTable(ctx, dataset.TableHighAF, d.Column)
		if err != nil {
			return nil, fmt.Errorf("load high af table: %w", err)
		}
		if len(ClinVarPathTerms(s.criteria.Pathogenicity)) == 0 {
			return rows, nil
		}
		path, err := s.ClinVarPath(ctx)
		if err != nil {
			return nil, err
		}
		if path != nil {
			rows = roaring.AndNot(rows, path)
		}
		return rows, nil
	})
}

// ClinVarPath returns the rows matching the requested ClinVar pathogenic
// terms, or nil when none were requested.
func (s *Set) ClinVarPath(ctx context.Context) (*roaring.Bitmap, error) {
	return s.cache.GetOrBuild(ctx, KindClinVarPath, func(ctx context.Context) (*roaring.Bitmap, error) {
		d := ClinVarPathDecision(s.criteria)
		if !d.Apply {
			return nil, nil
		}
		rows, err := s.reader.FilterTable(ctx, dataset.TableClinVarPath, d.Column)
		if err != nil {
			return nil, fmt.Errorf("load clinvar path table: %w", err)
		}
		return rows, nil
	})
}

// GnomadAFDecision decides whether the high-AF table can narrow the query.
func GnomadAFDecision(c *search.Criteria) Decision {
	f, ok := c.Frequencies[dataset.PrefilterPopulation]
	if !ok {
		return skip
	}
	var cutoff float64
	switch {
	case f.AF != nil:
		cutoff = *f.AF
	case f.AC != nil:
		cutoff = dataset.HighAFCutoff
	default:
		return skip
	}

	if hasOtherPathOverride(c.Pathogenicity) {
		// Any such row may bypass the frequency filter and no table lists them.
		return skip
	}
	if len(ClinVarPathTerms(c.Pathogenicity)) > 0 && cutoff < PathFreqOverrideCutoff {
		cutoff = PathFreqOverrideCutoff
	}

	switch {
	case cutoff >= dataset.GT10PercentCutoff:
		return skip
	case cutoff > dataset.HighAFCutoff:
		return Decision{Apply: true, Column: dataset.ColumnGT10Percent}
	default:
		return Decision{Apply: true}
	}
}

// ClinVarPathDecision picks the ClinVar-path sub-filter for the request.
func ClinVarPathDecision(c *search.Criteria) Decision {
	terms := ClinVarPathTerms(c.Pathogenicity)
	switch {
	case len(terms) == 0:
		return skip
	case !terms[enums.ClinVarLikelyPathogenic]:
		return Decision{Apply: true, Column: dataset.ColumnPathogenic}
	case !terms[enums.ClinVarPathogenic]:
		return Decision{Apply: true, Column: dataset.ColumnLikelyPathogen}
	default:
		return Decision{Apply: true}
	}
}

// ClinVarPathTerms returns the selected ClinVar pathogenic significances.
func ClinVarPathTerms(pathogenicity map[string][]string) map[string]bool {
	terms := make(map[string]bool)
	for _, t := range pathogenicity[enums.CategoryClinVar] {
		if enums.ClinVarPathSignificances[t] {
			terms[t] = true
		}
	}
	return terms
}

func hasOtherPathOverride(pathogenicity map[string][]string) bool {
	for source, terms := range pathogenicity {
		for _, t := range terms {
			if source != enums.CategoryClinVar || !enums.ClinVarPathSignificances[t] {
				return true
			}
		}
	}
	return false
}
