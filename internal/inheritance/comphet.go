package inheritance

import (
	"sort"

	"go.uber.org/zap"

	"github.com/inodb/vibe-search/internal/pedigree"
	"github.com/inodb/vibe-search/internal/variant"
)

// Candidate is a row that passed the annotation filter, with the annotation
// sets it matched. Without secondary annotations Secondary equals Primary.
type Candidate struct {
	Row       *variant.Row
	Primary   bool
	Secondary bool
}

// Pair is a compound heterozygous pair of distinct rows in one gene. First
// sorts before Second by locus and alleles.
type Pair struct {
	GeneID string
	First  *Match
	Second *Match
}

// FamilyGuids returns the families the pair was found in.
func (p *Pair) FamilyGuids() []string {
	return p.First.FamilyGuids
}

// CompoundHets pairs heterozygous candidates per family and gene. A pair
// needs one member matching the primary annotations and the other matching
// the secondary ones. geneScope restricts pairing genes when set.
//
// A pair is rejected when an unaffected member carries both variants or an
// affected member does not carry both. When both parents of an affected
// member are loaded, a pair with both variants from one parent and neither
// from the other is rejected as in cis. Missing parents do not reject a
// pair.
func (p *Plan) CompoundHets(candidates []Candidate, gts *Genotypes, geneScope map[string]bool) []*Pair {
	sorted := append([]Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Row.Key().Compare(sorted[j].Row.Key()) < 0
	})

	pairs := make(map[[2]variant.Key]*Pair)
	var order [][2]variant.Key
	for _, f := range p.Families {
		byGene := make(map[string][]Candidate)
		var genes []string
		for _, c := range sorted {
			if !p.passesQuality(f, c.Row, gts) || !f.matchesRule(compoundHet, c.Row, gts) {
				continue
			}
			for _, gene := range c.Row.GeneIDs() {
				if geneScope != nil && !geneScope[gene] {
					continue
				}
				if _, ok := byGene[gene]; !ok {
					genes = append(genes, gene)
				}
				byGene[gene] = append(byGene[gene], c)
			}
		}
		sort.Strings(genes)

		// A pair sharing several genes is reported once per family.
		seen := make(map[[2]variant.Key]bool)
		for _, gene := range genes {
			rows := byGene[gene]
			for i := 0; i < len(rows); i++ {
				for j := i + 1; j < len(rows); j++ {
					a, b := rows[i], rows[j]
					key := [2]variant.Key{a.Row.Key(), b.Row.Key()}
					if key[0] == key[1] || seen[key] {
						continue
					}
					if !annotationsPair(a, b) || !f.inTrans(a.Row, b.Row, gts) {
						continue
					}
					seen[key] = true
					pair, ok := pairs[key]
					if !ok {
						pair = &Pair{GeneID: gene, First: newMatch(a.Row), Second: newMatch(b.Row)}
						pairs[key] = pair
						order = append(order, key)
					}
					pair.First.addFamily(f, gts)
					pair.Second.addFamily(f, gts)
				}
			}
		}
	}

	out := make([]*Pair, len(order))
	for i, key := range order {
		out[i] = pairs[key]
	}
	p.logger.Debug("compound het pairing",
		zap.Int("candidates", len(candidates)),
		zap.Int("pairs", len(out)))
	return out
}

func annotationsPair(a, b Candidate) bool {
	return (a.Primary && b.Secondary) || (a.Secondary && b.Primary)
}

func (f *FamilyPlan) inTrans(a, b *variant.Row, gts *Genotypes) bool {
	carries := func(m *Member) (bool, bool) {
		return gts.Get(m.SampleID, a.ID).HasAlt(), gts.Get(m.SampleID, b.ID).HasAlt()
	}
	for _, m := range f.Members {
		inA, inB := carries(m)
		switch m.Affected {
		case pedigree.Unaffected:
			if inA && inB {
				return false
			}
		case pedigree.Affected:
			if !inA || !inB {
				return false
			}
			mother, father := f.member(m.Individual.MotherGuid), f.member(m.Individual.FatherGuid)
			if mother == nil || father == nil {
				continue
			}
			mA, mB := carries(mother)
			fA, fB := carries(father)
			if (mA && mB && !fA && !fB) || (fA && fB && !mA && !mB) {
				return false
			}
		}
	}
	return true
}
