package variant

// NoCall marks a genotype without a call.
const NoCall = -1

// Genotype is a per (row, sample) call with its quality metrics.
// NumAlt counts alternate alleles: 0 hom-ref, 1 het, 2 hom-alt.
type Genotype struct {
	SampleID string   `json:"sample_id"`
	NumAlt   int      `json:"num_alt"`
	DP       *int     `json:"dp,omitempty"`
	GQ       *int     `json:"gq,omitempty"`
	AB       *float64 `json:"ab,omitempty"`
}

// IsCalled reports whether the genotype has a call.
func (g Genotype) IsCalled() bool { return g.NumAlt != NoCall }

// IsHomRef reports a reference/reference call.
func (g Genotype) IsHomRef() bool { return g.NumAlt == 0 }

// IsHet reports a reference/alternate call.
func (g Genotype) IsHet() bool { return g.NumAlt == 1 }

// IsHomAlt reports an alternate/alternate call.
func (g Genotype) IsHomAlt() bool { return g.NumAlt >= 2 }

// HasAlt reports a call carrying at least one alternate allele.
func (g Genotype) HasAlt() bool { return g.NumAlt >= 1 }

// HomRef returns the genotype implied for a loaded sample that has no stored
// entry at a row. Sample genotype tables are sparse and only hold non-reference
// or no-call entries.
func HomRef(sampleID string) Genotype {
	return Genotype{SampleID: sampleID, NumAlt: 0}
}
