package filter

import (
	"slices"
	"sort"
	"strconv"

	"github.com/inodb/vibe-search/internal/enums"
	"github.com/inodb/vibe-search/internal/search"
	"github.com/inodb/vibe-search/internal/variant"
)

// Pathogenicity sources accepted in search requests.
const (
	SourceClinVar = "clinvar"
	SourceHGMD    = "hgmd"
)

var pathogenicityCategories = map[string]string{
	SourceClinVar: enums.CategoryClinVar,
	SourceHGMD:    enums.CategoryHGMD,
}

// annotationSet is a resolved annotation selection.
type annotationSet struct {
	consequenceIDs map[int]bool
	screenIDs      map[int]bool
	spliceAI       *float64
}

func (a *annotationSet) empty() bool {
	return len(a.consequenceIDs) == 0 && len(a.screenIDs) == 0 && a.spliceAI == nil
}

func resolveAnnotations(a search.Annotations) (*annotationSet, error) {
	set := &annotationSet{}
	categories := make([]string, 0, len(a.Terms))
	for k := range a.Terms {
		categories = append(categories, k)
	}
	sort.Strings(categories)

	for _, category := range categories {
		enumCategory := enums.CategoryConsequence
		target := &set.consequenceIDs
		if category == search.AnnotationSCREEN {
			enumCategory = enums.CategorySCREEN
			target = &set.screenIDs
		}
		for _, term := range a.Terms[category] {
			id, err := enums.Default.Resolve(enumCategory, term)
			if err != nil {
				return nil, search.WrapInvalidSearch(err, "unknown %s annotation %q", category, term)
			}
			if *target == nil {
				*target = make(map[int]bool)
			}
			(*target)[id] = true
		}
	}

	if a.SpliceAI != "" {
		v, err := strconv.ParseFloat(a.SpliceAI, 64)
		if err != nil {
			return nil, search.NewInvalidSearchError("invalid splice_ai threshold %q", a.SpliceAI)
		}
		set.spliceAI = &v
	}
	return set, nil
}

// matchingTranscripts returns the transcripts with an allowed consequence.
// When geneIDs is set the ones in those genes are returned, falling back to
// all matches for rows with none in scope.
func (a *annotationSet) matchingTranscripts(r *variant.Row, geneIDs map[string]bool) []string {
	if len(a.consequenceIDs) == 0 {
		return nil
	}
	var all, inScope []string
	for _, t := range r.Transcripts {
		if !slices.ContainsFunc(t.ConsequenceTermIDs, func(id int) bool { return a.consequenceIDs[id] }) {
			continue
		}
		all = append(all, t.TranscriptID)
		if geneIDs[t.GeneID] {
			inScope = append(inScope, t.TranscriptID)
		}
	}
	if len(inScope) > 0 {
		return inScope
	}
	return all
}

// expr returns the OR of the selected annotation alternatives, or nil when
// nothing is selected. Consequences match on any transcript of the row, gene
// scope only narrows transcript selection.
func (a *annotationSet) expr(prefix string) Expr {
	var members []Expr
	if len(a.consequenceIDs) > 0 {
		members = append(members, Leaf(prefix+"consequence", func(r *variant.Row) bool {
			for _, t := range r.Transcripts {
				for _, id := range t.ConsequenceTermIDs {
					if a.consequenceIDs[id] {
						return true
					}
				}
			}
			return false
		}))
	}
	if len(a.screenIDs) > 0 {
		members = append(members, Leaf(prefix+"screen", func(r *variant.Row) bool {
			return len(r.ScreenIDs) > 0 && a.screenIDs[r.ScreenIDs[0]]
		}))
	}
	if a.spliceAI != nil {
		threshold := *a.spliceAI
		members = append(members, Leaf(prefix+"splice_ai", func(r *variant.Row) bool {
			v, ok := r.Scores[search.AnnotationSpliceAI]
			return ok && v >= threshold
		}))
	}
	if len(members) == 0 {
		return nil
	}
	return Or(members...)
}

// buildPathogenicity returns the OR of the selected pathogenicity ranges per
// source, or nil when no term is selected.
func buildPathogenicity(pathogenicity map[string][]string) (Expr, error) {
	sources := make([]string, 0, len(pathogenicity))
	for source, terms := range pathogenicity {
		if len(terms) > 0 {
			sources = append(sources, source)
		}
	}
	sort.Strings(sources)

	var members []Expr
	for _, source := range sources {
		category, ok := pathogenicityCategories[source]
		if !ok {
			return nil, search.NewInvalidSearchError("unknown pathogenicity source %q", source)
		}
		ranges, err := enums.Default.ResolveRange(category, pathogenicity[source])
		if err != nil {
			return nil, search.WrapInvalidSearch(err, "invalid %s pathogenicity: %v", source, err)
		}
		switch source {
		case SourceClinVar:
			members = append(members, Leaf("pathogenicity:clinvar", func(r *variant.Row) bool {
				return r.ClinVar != nil && enums.InRanges(r.ClinVar.PathogenicityID, ranges)
			}))
		case SourceHGMD:
			members = append(members, Leaf("pathogenicity:hgmd", func(r *variant.Row) bool {
				return r.HGMD != nil && enums.InRanges(r.HGMD.ClassID, ranges)
			}))
		}
	}
	if len(members) == 0 {
		return nil, nil
	}
	return Or(members...), nil
}
