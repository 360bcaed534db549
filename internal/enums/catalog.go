package enums

import (
	"github.com/inodb/vibe-search/internal/search"
)

// Range is an inclusive [Low, High] id range.
type Range struct {
	Low  int
	High int
}

// Contains reports whether id falls inside the range.
func (r Range) Contains(id int) bool {
	return id >= r.Low && id <= r.High
}

// Catalog maps terms to compact integer ids and back.
// A Catalog is read-only once built.
type Catalog struct {
	terms  map[string][]string
	ids    map[string]map[string]int
	ranges map[string][]RangeConfig
}

// Default is the process-wide catalog.
var Default = newDefault()

func newDefault() *Catalog {
	c := &Catalog{
		terms:  make(map[string][]string),
		ids:    make(map[string]map[string]int),
		ranges: make(map[string][]RangeConfig),
	}
	c.add(CategoryConsequence, consequenceTerms, nil)
	c.add(CategoryClinVar, clinvarSignificances, clinvarRanges)
	c.add(CategoryHGMD, hgmdClasses, hgmdRanges)
	c.add(CategorySCREEN, screenRegionTypes, nil)
	return c
}

func (c *Catalog) add(category string, terms []string, ranges []RangeConfig) {
	ids := make(map[string]int, len(terms))
	for i, t := range terms {
		ids[t] = i
	}
	c.terms[category] = terms
	c.ids[category] = ids
	if ranges != nil {
		c.ranges[category] = ranges
	}
}

// Resolve returns the id of term within category.
func (c *Catalog) Resolve(category, term string) (int, error) {
	ids, ok := c.ids[category]
	if !ok {
		return 0, search.NewConfigurationError("unknown enum category %q", category)
	}
	id, ok := ids[term]
	if !ok {
		return 0, search.NewConfigurationError("unknown %s term %q", category, term)
	}
	return id, nil
}

// Has reports whether term is part of category.
func (c *Catalog) Has(category, term string) bool {
	_, ok := c.ids[category][term]
	return ok
}

// Label returns the term for id within category.
func (c *Catalog) Label(category string, id int) (string, bool) {
	terms := c.terms[category]
	if id < 0 || id >= len(terms) {
		return "", false
	}
	return terms[id], true
}

// Len returns the number of terms in category.
func (c *Catalog) Len(category string) int {
	return len(c.terms[category])
}

// HasRangeTerm reports whether term is a range filter term of category.
func (c *Catalog) HasRangeTerm(category, term string) bool {
	for _, rc := range c.ranges[category] {
		if rc.Term == term {
			return true
		}
	}
	return false
}

// ResolveRange converts a set of selected range filter terms into inclusive
// id ranges. Consecutive selected terms merge into one range; a gap in the
// selection starts a new one.
func (c *Catalog) ResolveRange(category string, selected []string) ([]Range, error) {
	configs, ok := c.ranges[category]
	if !ok {
		return nil, search.NewConfigurationError("category %q has no range configuration", category)
	}

	want := make(map[string]bool, len(selected))
	for _, t := range selected {
		if !c.HasRangeTerm(category, t) {
			return nil, search.NewConfigurationError("unknown %s filter term %q", category, t)
		}
		want[t] = true
	}

	var ranges []Range
	open := false
	for _, rc := range configs {
		if !want[rc.Term] {
			open = false
			continue
		}
		high := c.Len(category) - 1
		if rc.End != "" {
			id, err := c.Resolve(category, rc.End)
			if err != nil {
				return nil, err
			}
			high = id
		}
		if open {
			last := &ranges[len(ranges)-1]
			if high > last.High {
				last.High = high
			}
			continue
		}
		low, err := c.Resolve(category, rc.Start)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, Range{Low: low, High: high})
		open = true
	}
	return ranges, nil
}

// InRanges reports whether id falls in any of ranges.
func InRanges(id int, ranges []Range) bool {
	for _, r := range ranges {
		if r.Contains(id) {
			return true
		}
	}
	return false
}
