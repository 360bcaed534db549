package output

import (
	"slices"
	"sort"

	"github.com/goccy/go-json"

	"github.com/inodb/vibe-search/internal/enums"
	"github.com/inodb/vibe-search/internal/filter"
	"github.com/inodb/vibe-search/internal/inheritance"
	"github.com/inodb/vibe-search/internal/variant"
)

// Variant is the external record of one matched variant.
type Variant struct {
	VariantID     string `json:"variantId"`
	Chrom         string `json:"chrom"`
	Pos           int64  `json:"pos"`
	Ref           string `json:"ref"`
	Alt           string `json:"alt"`
	Xpos          int64  `json:"xpos"`
	GenomeVersion string `json:"genomeVersion,omitempty"`
	RsID          string `json:"rsid,omitempty"`

	FamilyGuids []string            `json:"familyGuids"`
	Genotypes   map[string]Genotype `json:"genotypes"`

	Populations      map[string]variant.PopulationStats `json:"populations,omitempty"`
	Predictions      map[string]any                     `json:"predictions,omitempty"`
	ClinVar          *ClinVar                           `json:"clinvar,omitempty"`
	HGMD             *HGMD                              `json:"hgmd,omitempty"`
	ScreenRegionType string                             `json:"screenRegionType,omitempty"`

	Transcripts              map[string][]Transcript `json:"transcripts"`
	MainTranscriptID         string                  `json:"mainTranscriptId,omitempty"`
	SelectedMainTranscriptID string                  `json:"selectedMainTranscriptId,omitempty"`
}

// Genotype is one individual's call.
type Genotype struct {
	SampleID string   `json:"sampleId"`
	NumAlt   int      `json:"numAlt"`
	DP       *int     `json:"dp,omitempty"`
	GQ       *int     `json:"gq,omitempty"`
	AB       *float64 `json:"ab,omitempty"`
}

// ClinVar is the labeled ClinVar annotation.
type ClinVar struct {
	AlleleID                   int                        `json:"alleleId,omitempty"`
	ClinicalSignificance       string                     `json:"clinicalSignificance"`
	GoldStars                  *int                       `json:"goldStars,omitempty"`
	ConflictingPathogenicities []ConflictingPathogenicity `json:"conflictingPathogenicities,omitempty"`
}

// ConflictingPathogenicity is a labeled submission count.
type ConflictingPathogenicity struct {
	Pathogenicity string `json:"pathogenicity"`
	Count         int    `json:"count"`
}

// HGMD is the labeled HGMD annotation.
type HGMD struct {
	Accession string `json:"accession,omitempty"`
	Class     string `json:"class"`
}

// Transcript is a labeled transcript consequence.
type Transcript struct {
	TranscriptID     string   `json:"transcriptId"`
	GeneID           string   `json:"geneId"`
	Biotype          string   `json:"biotype,omitempty"`
	Canonical        bool     `json:"canonical,omitempty"`
	HGVSc            string   `json:"hgvsc,omitempty"`
	HGVSp            string   `json:"hgvsp,omitempty"`
	ConsequenceTerms []string `json:"consequenceTerms"`
	MajorConsequence string   `json:"majorConsequence,omitempty"`
	Impact           string   `json:"impact,omitempty"`
}

// Record is a single variant or a compound-het pair. A pair marshals as a
// two element array.
type Record struct {
	Variant *Variant
	Pair    []*Variant
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Pair != nil {
		return json.Marshal(r.Pair)
	}
	return json.Marshal(r.Variant)
}

// Variants returns the record's variants in order.
func (r Record) Variants() []*Variant {
	if r.Pair != nil {
		return r.Pair
	}
	return []*Variant{r.Variant}
}

// Formatter projects matches into external records.
type Formatter struct {
	catalog *enums.Catalog
	side    *filter.Side
}

// NewFormatter creates a formatter. side supplies the gene-scoping context
// and the allowed transcripts and may be nil.
func NewFormatter(side *filter.Side) *Formatter {
	return &Formatter{catalog: enums.Default, side: side}
}

// Single formats a single-variant match.
func (f *Formatter) Single(m *inheritance.Match) Record {
	var genes map[string]bool
	if f.side != nil {
		genes = f.side.GeneIDs
	}
	return Record{Variant: f.variant(m, genes, f.side.AllowedTranscripts(m.Row))}
}

// Pair formats a compound-het pair. The pair's gene is the gene context of
// both members.
func (f *Formatter) Pair(p *inheritance.Pair) Record {
	genes := map[string]bool{p.GeneID: true}
	allowed := func(r *variant.Row) []string {
		return append(f.side.AllowedTranscripts(r), f.side.AllowedTranscriptsSecondary(r)...)
	}
	return Record{Pair: []*Variant{
		f.variant(p.First, genes, allowed(p.First.Row)),
		f.variant(p.Second, genes, allowed(p.Second.Row)),
	}}
}

func (f *Formatter) variant(m *inheritance.Match, genes map[string]bool, allowed []string) *Variant {
	r := m.Row
	v := &Variant{
		VariantID:     r.VariantID(),
		Chrom:         r.Chrom,
		Pos:           r.Pos,
		Ref:           r.Ref,
		Alt:           r.Alt,
		Xpos:          r.Xpos(),
		GenomeVersion: r.GenomeVersion,
		RsID:          r.RsID,
		FamilyGuids:   slices.Clone(m.FamilyGuids),
		Genotypes:     make(map[string]Genotype, len(m.Genotypes)),
		Populations:   r.Populations,
		Transcripts:   make(map[string][]Transcript),
	}
	sort.Strings(v.FamilyGuids)
	for guid, g := range m.Genotypes {
		v.Genotypes[guid] = Genotype{SampleID: g.SampleID, NumAlt: g.NumAlt, DP: g.DP, GQ: g.GQ, AB: g.AB}
	}

	if len(r.Scores)+len(r.Calls) > 0 {
		v.Predictions = make(map[string]any, len(r.Scores)+len(r.Calls))
		for k, s := range r.Scores {
			v.Predictions[k] = s
		}
		for k, c := range r.Calls {
			v.Predictions[k] = c
		}
	}
	v.ClinVar = f.clinvar(r.ClinVar)
	if r.HGMD != nil {
		label, _ := f.catalog.Label(enums.CategoryHGMD, r.HGMD.ClassID)
		v.HGMD = &HGMD{Accession: r.HGMD.AccessionID, Class: label}
	}
	if len(r.ScreenIDs) > 0 {
		v.ScreenRegionType, _ = f.catalog.Label(enums.CategorySCREEN, r.ScreenIDs[0])
	}

	for _, t := range r.Transcripts {
		v.Transcripts[t.GeneID] = append(v.Transcripts[t.GeneID], f.transcript(t))
	}
	if main := r.MainTranscript(); main != nil {
		v.MainTranscriptID = main.TranscriptID
	}
	v.SelectedMainTranscriptID = SelectTranscript(r, genes, allowed)
	return v
}

func (f *Formatter) clinvar(c *variant.ClinVar) *ClinVar {
	if c == nil {
		return nil
	}
	label, _ := f.catalog.Label(enums.CategoryClinVar, c.PathogenicityID)
	out := &ClinVar{AlleleID: c.AlleleID, ClinicalSignificance: label, GoldStars: c.GoldStars}
	for _, cp := range c.ConflictingPathogenicities {
		label, _ := f.catalog.Label(enums.CategoryClinVar, cp.PathogenicityID)
		out.ConflictingPathogenicities = append(out.ConflictingPathogenicities,
			ConflictingPathogenicity{Pathogenicity: label, Count: cp.Count})
	}
	return out
}

func (f *Formatter) transcript(t variant.TranscriptConsequence) Transcript {
	out := Transcript{
		TranscriptID:     t.TranscriptID,
		GeneID:           t.GeneID,
		Biotype:          t.Biotype,
		Canonical:        t.IsCanonical,
		HGVSc:            t.HGVSc,
		HGVSp:            t.HGVSp,
		ConsequenceTerms: make([]string, 0, len(t.ConsequenceTermIDs)),
	}
	for _, id := range t.ConsequenceTermIDs {
		if term, ok := f.catalog.Label(enums.CategoryConsequence, id); ok {
			out.ConsequenceTerms = append(out.ConsequenceTerms, term)
		}
	}
	if len(t.ConsequenceTermIDs) > 0 {
		// Ids follow severity, so the smallest is the major consequence.
		out.MajorConsequence, _ = f.catalog.Label(enums.CategoryConsequence, slices.Min(t.ConsequenceTermIDs))
		out.Impact = enums.GetImpact(out.MajorConsequence)
	}
	return out
}

// SelectTranscript picks the representative transcript of r: a transcript in
// the gene context (an allowed one first), else the first allowed
// transcript, else the main transcript. It returns "" only when r has no
// transcripts.
func SelectTranscript(r *variant.Row, genes map[string]bool, allowed []string) string {
	isAllowed := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		isAllowed[id] = true
	}

	if len(genes) > 0 {
		inGene := ""
		for _, t := range r.Transcripts {
			if !genes[t.GeneID] {
				continue
			}
			if isAllowed[t.TranscriptID] {
				return t.TranscriptID
			}
			if inGene == "" {
				inGene = t.TranscriptID
			}
		}
		if inGene != "" {
			return inGene
		}
	}
	for _, t := range r.Transcripts {
		if isAllowed[t.TranscriptID] {
			return t.TranscriptID
		}
	}
	if main := r.MainTranscript(); main != nil {
		return main.TranscriptID
	}
	return ""
}
