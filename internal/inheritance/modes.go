package inheritance

import (
	"github.com/inodb/vibe-search/internal/pedigree"
	"github.com/inodb/vibe-search/internal/variant"
)

// Inheritance modes.
const (
	ModeRecessive           = "recessive"
	ModeHomozygousRecessive = "homozygous_recessive"
	ModeXLinkedRecessive    = "x_linked_recessive"
	ModeCompoundHet         = "compound_het"
	ModeDeNovo              = "de_novo"
	ModeDominant            = "dominant"
	ModeAnyAffected         = "any_affected"
)

// rule maps affected status and sex to a genotype requirement. Members with
// unknown affected status have no requirement.
type rule struct {
	name           string
	affected       Category
	affectedMale   Category
	unaffected     Category
	unaffectedMale Category
	xOnly          bool
}

func (r rule) category(m *Member) Category {
	male := m.Individual.Sex == pedigree.Male
	switch m.Affected {
	case pedigree.Affected:
		if male && r.affectedMale != "" {
			return r.affectedMale
		}
		return r.affected
	case pedigree.Unaffected:
		if male && r.unaffectedMale != "" {
			return r.unaffectedMale
		}
		return r.unaffected
	}
	return ""
}

func (r rule) applies(row *variant.Row) bool {
	return !r.xOnly || variant.IsXChrom(row.Chrom)
}

var (
	homozygousRecessive = rule{name: ModeHomozygousRecessive, affected: AltAlt, unaffected: HasRef}

	// Affected males are hemizygous on X, so a single alt allele qualifies.
	xLinkedRecessive = rule{
		name:           ModeXLinkedRecessive,
		affected:       AltAlt,
		affectedMale:   HasAlt,
		unaffected:     HasRef,
		unaffectedMale: RefRef,
		xOnly:          true,
	}

	compoundHet = rule{name: ModeCompoundHet, affected: RefAlt, unaffected: HasRef}
	deNovo      = rule{name: ModeDeNovo, affected: HasAlt, unaffected: RefRef}
)

// rulesFor returns the alternative rules of a mode. A row matches the mode
// when it matches any of them.
func rulesFor(mode string) ([]rule, bool) {
	switch mode {
	case ModeRecessive:
		return []rule{homozygousRecessive, xLinkedRecessive}, true
	case ModeHomozygousRecessive:
		return []rule{homozygousRecessive}, true
	case ModeXLinkedRecessive:
		return []rule{xLinkedRecessive}, true
	case ModeCompoundHet:
		return []rule{compoundHet}, true
	case ModeDeNovo, ModeDominant:
		return []rule{deNovo}, true
	case ModeAnyAffected:
		return nil, true
	}
	return nil, false
}

// IncludesCompoundHets reports whether mode searches for compound-het pairs.
func IncludesCompoundHets(mode string) bool {
	return mode == ModeRecessive || mode == ModeCompoundHet
}
