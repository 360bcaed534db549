package filter

import (
	"sort"

	"github.com/inodb/vibe-search/internal/search"
	"github.com/inodb/vibe-search/internal/variant"
)

// location is the parsed location constraint of a request.
type location struct {
	expr      Expr
	intervals []variant.Interval // read pushdown, nil when not applicable
	geneIDs   map[string]bool
}

func buildLocation(c *search.Criteria) (*location, error) {
	loc := &location{}

	if len(c.VariantIDs) > 0 || len(c.RsIDs) > 0 {
		keys := make(map[variant.Key]bool, len(c.VariantIDs))
		for _, id := range c.VariantIDs {
			k, ok := variant.ParseVariantID(id)
			if !ok {
				return nil, search.NewInvalidSearchError("invalid variant id %q", id)
			}
			keys[k] = true
			loc.intervals = append(loc.intervals, variant.Interval{Chrom: k.Chrom, Start: k.Pos, End: k.Pos})
		}
		rsIDs := make(map[string]bool, len(c.RsIDs))
		for _, id := range c.RsIDs {
			rsIDs[id] = true
		}
		if len(rsIDs) > 0 {
			// rsIDs carry no position to push down.
			loc.intervals = nil
		}
		loc.expr = Leaf("variant_ids", func(r *variant.Row) bool {
			return keys[r.Key()] || (r.RsID != "" && rsIDs[r.RsID])
		})
		return loc, nil
	}

	intervals := append([]variant.Interval(nil), c.Intervals...)
	geneIDs := make([]string, 0, len(c.Genes))
	for id := range c.Genes {
		geneIDs = append(geneIDs, id)
	}
	sort.Strings(geneIDs)
	for _, id := range geneIDs {
		intervals = append(intervals, c.Genes[id].Interval(c.GenomeVersion))
	}
	if len(intervals) == 0 {
		return loc, nil
	}
	for i := range intervals {
		iv := &intervals[i]
		iv.Chrom = variant.NormalizeChrom(iv.Chrom)
		if iv.Chrom == "" || iv.Start < 1 || iv.End < iv.Start {
			return nil, search.NewInvalidSearchError("invalid interval %s", iv)
		}
	}

	idx := variant.BuildIntervalIndex(intervals)
	inIntervals := Leaf("intervals", func(r *variant.Row) bool {
		return idx.Contains(r.Chrom, r.Pos)
	})
	if c.ExcludeLocations {
		loc.expr = Not(inIntervals)
		return loc, nil
	}

	loc.expr = inIntervals
	loc.intervals = intervals
	if len(geneIDs) > 0 {
		loc.geneIDs = make(map[string]bool, len(geneIDs))
		for _, id := range geneIDs {
			loc.geneIDs[id] = true
		}
	}
	return loc, nil
}
