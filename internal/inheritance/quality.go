package inheritance

import (
	"github.com/inodb/vibe-search/internal/search"
	"github.com/inodb/vibe-search/internal/variant"
)

// Quality holds per-genotype thresholds. Missing metrics pass.
type Quality struct {
	MinGQ *int
	MinDP *int
	// MinAB is a percentage and only applies to heterozygous calls.
	MinAB        *int
	AffectedOnly bool
}

// NewQuality converts the request's quality filter.
func NewQuality(q search.QualityFilter) Quality {
	return Quality{MinGQ: q.MinGQ, MinDP: q.MinDP, MinAB: q.MinAB, AffectedOnly: q.AffectedOnly}
}

// IsEmpty reports whether no threshold is set.
func (q Quality) IsEmpty() bool {
	return q.MinGQ == nil && q.MinDP == nil && q.MinAB == nil
}

// Passes reports whether g meets every threshold.
func (q Quality) Passes(g variant.Genotype) bool {
	if q.MinGQ != nil && g.GQ != nil && *g.GQ < *q.MinGQ {
		return false
	}
	if q.MinDP != nil && g.DP != nil && *g.DP < *q.MinDP {
		return false
	}
	if q.MinAB != nil && g.IsHet() && g.AB != nil && *g.AB*100 < float64(*q.MinAB) {
		return false
	}
	return true
}
