// Package sortkey builds the ordered tuple of comparable values used to rank
// search results.
package sortkey

import (
	"math"
	"slices"

	"github.com/inodb/vibe-search/internal/search"
	"github.com/inodb/vibe-search/internal/variant"
)

// Missing sorts after every real value.
const Missing = math.MaxFloat64

// Sort names.
const (
	SortXpos               = "xpos"
	SortPathogenicity      = "pathogenicity"
	SortPathogenicityHGMD  = "pathogenicity_hgmd"
	SortProteinConsequence = "protein_consequence"
	SortGnomad             = "gnomad"
	SortGnomadExomes       = "gnomad_exomes"
	SortCallsetAF          = "callset_af"
	SortCADD               = "cadd"
	SortREVEL              = "revel"
	SortSpliceAI           = "splice_ai"
	SortEigen              = "eigen"
	SortMPC                = "mpc"
	SortPrimateAI          = "primate_ai"
	SortAlphaMissense      = "alphamissense"
	SortInOMIM             = "in_omim"
	SortGeneRank           = "gene_rank"
	SortFamilyGuid         = "family_guid"
)

// Context supplies the auxiliary lookups of sorts that depend on more than
// the row.
type Context struct {
	OmimGeneIDs map[string]bool
	GeneRanks   map[string]int
	// FamilyRanks orders family guids for the family_guid sort.
	FamilyRanks map[string]int
}

// Key is a sort tuple. Locus breaks ties between equal values.
type Key struct {
	Values []float64
	Locus  variant.Key
}

// Compare orders keys by values then locus and alleles.
func Compare(a, b Key) int {
	for i := 0; i < len(a.Values) && i < len(b.Values); i++ {
		switch {
		case a.Values[i] < b.Values[i]:
			return -1
		case a.Values[i] > b.Values[i]:
			return 1
		}
	}
	if len(a.Values) != len(b.Values) {
		if len(a.Values) < len(b.Values) {
			return -1
		}
		return 1
	}
	return a.Locus.Compare(b.Locus)
}

// Pair combines the keys of a compound-het pair. Each value is the minimum
// across members, so a pair never sorts after its better member.
func Pair(a, b Key) Key {
	values := make([]float64, len(a.Values))
	for i := range a.Values {
		values[i] = math.Min(a.Values[i], b.Values[i])
	}
	locus := a.Locus
	if b.Locus.Compare(a.Locus) < 0 {
		locus = b.Locus
	}
	return Key{Values: values, Locus: locus}
}

type field func(r *variant.Row, familyGuids []string) float64

// Composer builds keys for one sort.
type Composer struct {
	sort   string
	fields []field
}

// New creates a Composer for sort. An empty sort orders by position.
func New(sort string, ctx Context) (*Composer, error) {
	if sort == "" {
		sort = SortXpos
	}
	fields, ok := sortFields(sort, ctx)
	if !ok {
		return nil, search.NewInvalidSearchError("unsupported sort %q", sort)
	}
	return &Composer{sort: sort, fields: fields}, nil
}

// Sort returns the sort name.
func (c *Composer) Sort() string {
	return c.sort
}

// KeyFor returns the sort key of a row matched in familyGuids.
func (c *Composer) KeyFor(r *variant.Row, familyGuids []string) Key {
	values := make([]float64, 0, len(c.fields)+1)
	for _, f := range c.fields {
		values = append(values, f(r, familyGuids))
	}
	values = append(values, float64(r.Xpos()))
	return Key{Values: values, Locus: r.Key()}
}

func sortFields(sort string, ctx Context) ([]field, bool) {
	switch sort {
	case SortXpos:
		return nil, true
	case SortPathogenicity:
		return []field{clinvar, consequence}, true
	case SortPathogenicityHGMD:
		return []field{clinvar, hgmd, consequence}, true
	case SortProteinConsequence:
		return []field{consequence}, true
	case SortGnomad:
		return []field{frequency("gnomad_genomes")}, true
	case SortGnomadExomes:
		return []field{frequency("gnomad_exomes")}, true
	case SortCallsetAF:
		return []field{frequency("seqr")}, true
	case SortCADD, SortREVEL, SortSpliceAI, SortEigen, SortMPC, SortPrimateAI, SortAlphaMissense:
		return []field{descendingScore(sort)}, true
	case SortInOMIM:
		return []field{inGeneSet(ctx.OmimGeneIDs), consequence}, true
	case SortGeneRank:
		return []field{geneRank(ctx.GeneRanks), consequence}, true
	case SortFamilyGuid:
		return []field{familyRank(ctx.FamilyRanks)}, true
	}
	return nil, false
}

func clinvar(r *variant.Row, _ []string) float64 {
	if r.ClinVar == nil {
		return Missing
	}
	return float64(r.ClinVar.PathogenicityID)
}

func hgmd(r *variant.Row, _ []string) float64 {
	if r.HGMD == nil {
		return Missing
	}
	return float64(r.HGMD.ClassID)
}

// consequence is the most severe consequence id on any transcript.
func consequence(r *variant.Row, _ []string) float64 {
	best := Missing
	for _, t := range r.Transcripts {
		if len(t.ConsequenceTermIDs) == 0 {
			continue
		}
		best = math.Min(best, float64(slices.Min(t.ConsequenceTermIDs)))
	}
	return best
}

func frequency(population string) field {
	return func(r *variant.Row, _ []string) float64 {
		stats, ok := r.Populations[population]
		if !ok || stats.AF == nil {
			return Missing
		}
		return *stats.AF
	}
}

func descendingScore(name string) field {
	return func(r *variant.Row, _ []string) float64 {
		v, ok := r.Scores[name]
		if !ok {
			return Missing
		}
		return -v
	}
}

func inGeneSet(genes map[string]bool) field {
	return func(r *variant.Row, _ []string) float64 {
		for _, g := range r.GeneIDs() {
			if genes[g] {
				return 0
			}
		}
		return 1
	}
}

func geneRank(ranks map[string]int) field {
	return func(r *variant.Row, _ []string) float64 {
		best := Missing
		for _, g := range r.GeneIDs() {
			if rank, ok := ranks[g]; ok {
				best = math.Min(best, float64(rank))
			}
		}
		return best
	}
}

// familyRank orders by the best ranked matched family.
func familyRank(ranks map[string]int) field {
	return func(_ *variant.Row, familyGuids []string) float64 {
		best := Missing
		for _, g := range familyGuids {
			if rank, ok := ranks[g]; ok {
				best = math.Min(best, float64(rank))
			}
		}
		return best
	}
}

// FamilyRanks ranks family guids in lexical order.
func FamilyRanks(guids []string) map[string]int {
	sorted := slices.Clone(guids)
	slices.Sort(sorted)
	ranks := make(map[string]int, len(sorted))
	for i, g := range sorted {
		ranks[g] = i
	}
	return ranks
}
