package filter

import (
	"sort"

	"github.com/inodb/vibe-search/internal/search"
	"github.com/inodb/vibe-search/internal/variant"
)

// Population describes which frequency fields a population provides.
type Population struct {
	FilterAF bool // pop-max style AF preferred for filtering
	Hom      bool
	Hemi     bool
	SortKey  string
}

// Populations known to the SNV/indel dataset.
var Populations = map[string]Population{
	"seqr":           {Hom: true, SortKey: "callset_af"},
	"topmed":         {Hom: true},
	"exac":           {FilterAF: true, Hom: true, Hemi: true},
	"gnomad_exomes":  {FilterAF: true, Hom: true, Hemi: true, SortKey: "gnomad_exomes"},
	"gnomad_genomes": {FilterAF: true, Hom: true, Hemi: true, SortKey: "gnomad"},
}

// FilterAF returns the allele frequency used for filtering a population.
func FilterAF(r *variant.Row, population string) *float64 {
	stats, ok := r.Populations[population]
	if !ok {
		return nil
	}
	if Populations[population].FilterAF && stats.FilterAF != nil {
		return stats.FilterAF
	}
	return stats.AF
}

func buildFrequency(c *search.Criteria) (Expr, error) {
	pops := make([]string, 0, len(c.Frequencies))
	for pop := range c.Frequencies {
		pops = append(pops, pop)
	}
	sort.Strings(pops)

	var members []Expr
	for _, pop := range pops {
		cfg, ok := Populations[pop]
		if !ok {
			return nil, search.NewInvalidSearchError("unknown population %q", pop)
		}
		f := c.Frequencies[pop]
		if f.AF == nil && f.AC == nil && f.HH == nil {
			continue
		}
		members = append(members, populationLeaf(pop, cfg, f))
	}
	if len(members) == 0 {
		return nil, nil
	}
	return And(members...), nil
}

func populationLeaf(pop string, cfg Population, f search.Frequency) Expr {
	return Leaf("freq:"+pop, func(r *variant.Row) bool {
		stats, ok := r.Populations[pop]
		if !ok {
			return true
		}
		switch {
		case f.AF != nil:
			if af := FilterAF(r, pop); af != nil && *af > *f.AF {
				return false
			}
		case f.AC != nil:
			if stats.AC != nil && *stats.AC > *f.AC {
				return false
			}
		}
		if f.HH != nil {
			if cfg.Hom && stats.Hom != nil && *stats.Hom > *f.HH {
				return false
			}
			if cfg.Hemi && stats.Hemi != nil && *stats.Hemi > *f.HH {
				return false
			}
		}
		return true
	})
}
