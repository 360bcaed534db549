package filter

import (
	"strings"

	"github.com/inodb/vibe-search/internal/enums"
	"github.com/inodb/vibe-search/internal/search"
	"github.com/inodb/vibe-search/internal/variant"
)

// VCFFilterPass is the only supported vcf_filter value.
const VCFFilterPass = "pass"

// Result is the composed row filter for one request.
type Result struct {
	// Primary is the row predicate.
	Primary Expr
	// Secondary is the predicate for the second member of a compound-het
	// pair, or nil when no secondary annotations were requested.
	Secondary Expr
	// ClinVarPath passes rows in a selected ClinVar pathogenic range. It is
	// nil unless pathogenic or likely pathogenic was selected.
	ClinVarPath Expr
	// Side carries per-row transcript annotations for result formatting.
	Side *Side
	// Intervals is a read pushdown hint, nil when locations are excluded or
	// absent.
	Intervals []variant.Interval
}

// Side resolves the transcripts that matched the requested annotations.
type Side struct {
	// GeneIDs is the gene-scoping context, nil when the search is not
	// restricted to genes.
	GeneIDs   map[string]bool
	primary   *annotationSet
	secondary *annotationSet
}

// AllowedTranscripts returns the ids of r's transcripts that matched the
// primary annotation terms.
func (s *Side) AllowedTranscripts(r *variant.Row) []string {
	if s == nil || s.primary == nil {
		return nil
	}
	return s.primary.matchingTranscripts(r, s.GeneIDs)
}

// AllowedTranscriptsSecondary returns the ids of r's transcripts that matched
// the secondary annotation terms.
func (s *Side) AllowedTranscriptsSecondary(r *variant.Row) []string {
	if s == nil || s.secondary == nil {
		return nil
	}
	return s.secondary.matchingTranscripts(r, s.GeneIDs)
}

// Build composes the criteria into row predicates. Filter families combine
// with AND and alternatives within a family with OR. A selected pathogenicity
// range bypasses the frequency, in silico and annotation families:
//
//	and(location, vcf_filter, or(and(freq, in_silico, or(annotations, path)), path))
func Build(c *search.Criteria) (*Result, error) {
	loc, err := buildLocation(c)
	if err != nil {
		return nil, err
	}
	vcf, err := buildVCFFilter(c.QualityFilter.VCFFilter)
	if err != nil {
		return nil, err
	}
	freq, err := buildFrequency(c)
	if err != nil {
		return nil, err
	}
	inSilico, err := buildInSilico(c)
	if err != nil {
		return nil, err
	}
	path, err := buildPathogenicity(c.Pathogenicity)
	if err != nil {
		return nil, err
	}
	primary, err := resolveAnnotations(c.Annotations)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Intervals: loc.intervals,
		Side:      &Side{GeneIDs: loc.geneIDs},
	}
	if !primary.empty() {
		res.Side.primary = primary
	}
	res.Primary = compose(loc.expr, vcf, freq, inSilico, primary.expr(""), path)

	if !c.AnnotationsSec.IsEmpty() {
		secondary, err := resolveAnnotations(c.AnnotationsSec)
		if err != nil {
			return nil, err
		}
		res.Side.secondary = secondary
		res.Secondary = compose(loc.expr, vcf, freq, inSilico, secondary.expr("secondary:"), path)
	}

	res.ClinVarPath, err = clinVarPathExpr(c.Pathogenicity[SourceClinVar])
	if err != nil {
		return nil, err
	}
	return res, nil
}

func compose(loc, vcf, freq, inSilico, annotations, path Expr) Expr {
	var annotationFamily Expr
	if annotations != nil || path != nil {
		annotationFamily = Or(annotations, path)
	}
	body := And(freq, inSilico, annotationFamily)
	if path != nil {
		body = Or(body, path)
	}
	return And(loc, vcf, body)
}

func buildVCFFilter(value string) (Expr, error) {
	switch strings.ToLower(value) {
	case "":
		return nil, nil
	case VCFFilterPass:
		return Leaf("vcf_filter", func(r *variant.Row) bool {
			for _, f := range r.Filters {
				if f != "" && f != "." && !strings.EqualFold(f, "PASS") {
					return false
				}
			}
			return true
		}), nil
	}
	return nil, search.NewInvalidSearchError("unsupported vcf_filter %q", value)
}

func clinVarPathExpr(terms []string) (Expr, error) {
	var selected []string
	for _, t := range terms {
		if enums.ClinVarPathSignificances[t] {
			selected = append(selected, t)
		}
	}
	if len(selected) == 0 {
		return nil, nil
	}
	ranges, err := enums.Default.ResolveRange(enums.CategoryClinVar, selected)
	if err != nil {
		return nil, search.WrapInvalidSearch(err, "invalid clinvar pathogenicity: %v", err)
	}
	return Leaf("clinvar_path", func(r *variant.Row) bool {
		return r.ClinVar != nil && enums.InRanges(r.ClinVar.PathogenicityID, ranges)
	}), nil
}
