// Package inheritance applies per-family genotype requirements derived from
// an inheritance mode or a custom per-individual specification.
package inheritance

import (
	"github.com/inodb/vibe-search/internal/search"
	"github.com/inodb/vibe-search/internal/variant"
)

// Category is a genotype requirement for one individual.
type Category string

// Genotype categories. No-calls match none of them.
const (
	RefRef Category = "ref_ref"
	HasRef Category = "has_ref"
	RefAlt Category = "ref_alt"
	HasAlt Category = "has_alt"
	AltAlt Category = "alt_alt"
)

// ParseCategory validates a genotype category name from a request.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case RefRef, HasRef, RefAlt, HasAlt, AltAlt:
		return c, nil
	}
	return "", search.NewInvalidSearchError("unknown genotype %q", s)
}

// Matches reports whether g satisfies the category.
func (c Category) Matches(g variant.Genotype) bool {
	if !g.IsCalled() {
		return false
	}
	switch c {
	case RefRef:
		return g.IsHomRef()
	case HasRef:
		return g.IsHomRef() || g.IsHet()
	case RefAlt:
		return g.IsHet()
	case HasAlt:
		return g.HasAlt()
	case AltAlt:
		return g.IsHomAlt()
	}
	return false
}
