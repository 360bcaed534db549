// Package variant defines the variant rows, transcript consequences and
// genotype entries that the query engine filters.
package variant

import (
	"strconv"
	"strings"
)

// Genome builds.
const (
	GRCh37 = "GRCh37"
	GRCh38 = "GRCh38"
)

// Row is an immutable per-(locus, alleles) record.
type Row struct {
	ID            uint32                     `json:"id"`
	Chrom         string                     `json:"chrom"`
	Pos           int64                      `json:"pos"`
	Ref           string                     `json:"ref"`
	Alt           string                     `json:"alt"`
	GenomeVersion string                     `json:"genome_version"`
	RsID          string                     `json:"rsid,omitempty"`
	Filters       []string                   `json:"filters,omitempty"`
	Transcripts   []TranscriptConsequence    `json:"sorted_transcript_consequences,omitempty"`
	Populations   map[string]PopulationStats `json:"populations,omitempty"`
	ClinVar       *ClinVar                   `json:"clinvar,omitempty"`
	HGMD          *HGMD                      `json:"hgmd,omitempty"`
	Scores        map[string]float64         `json:"scores,omitempty"`
	Calls         map[string]string          `json:"calls,omitempty"`
	ScreenIDs     []int                      `json:"screen_region_type_ids,omitempty"`
}

// TranscriptConsequence is the predicted effect of a variant on one transcript.
// ConsequenceTermIDs are enum ids, most severe first.
type TranscriptConsequence struct {
	TranscriptID       string `json:"transcript_id"`
	GeneID             string `json:"gene_id"`
	Biotype            string `json:"biotype,omitempty"`
	IsCanonical        bool   `json:"canonical,omitempty"`
	HGVSc              string `json:"hgvsc,omitempty"`
	HGVSp              string `json:"hgvsp,omitempty"`
	ConsequenceTermIDs []int  `json:"consequence_term_ids"`
}

// PopulationStats holds frequency statistics for one population. Nil fields
// are missing from the dataset.
type PopulationStats struct {
	AF       *float64 `json:"af,omitempty"`
	FilterAF *float64 `json:"filter_af,omitempty"`
	AC       *int     `json:"ac,omitempty"`
	AN       *int     `json:"an,omitempty"`
	Hom      *int     `json:"hom,omitempty"`
	Hemi     *int     `json:"hemi,omitempty"`
	Het      *int     `json:"het,omitempty"`
}

// ClinVar holds the ClinVar significance of a variant.
type ClinVar struct {
	AlleleID                   int                        `json:"allele_id,omitempty"`
	PathogenicityID            int                        `json:"pathogenicity_id"`
	GoldStars                  *int                       `json:"gold_stars,omitempty"`
	ConflictingPathogenicities []ConflictingPathogenicity `json:"conflicting_pathogenicities,omitempty"`
}

// ConflictingPathogenicity counts submissions for one significance id.
type ConflictingPathogenicity struct {
	PathogenicityID int `json:"pathogenicity_id"`
	Count           int `json:"count"`
}

// HGMD holds the HGMD classification of a variant.
type HGMD struct {
	AccessionID string `json:"accession,omitempty"`
	ClassID     int    `json:"class_id"`
}

// VariantID returns the chrom-pos-ref-alt identifier.
func (r *Row) VariantID() string {
	return FormatVariantID(r.Chrom, r.Pos, r.Ref, r.Alt)
}

// Xpos returns the genome-wide position used for ordering.
func (r *Row) Xpos() int64 {
	return Xpos(r.Chrom, r.Pos)
}

// GeneIDs returns the distinct gene ids of the row's transcripts in order.
func (r *Row) GeneIDs() []string {
	var genes []string
	seen := make(map[string]bool, len(r.Transcripts))
	for _, t := range r.Transcripts {
		if t.GeneID == "" || seen[t.GeneID] {
			continue
		}
		seen[t.GeneID] = true
		genes = append(genes, t.GeneID)
	}
	return genes
}

// MainTranscript returns the dataset's precomputed primary transcript.
func (r *Row) MainTranscript() *TranscriptConsequence {
	if len(r.Transcripts) == 0 {
		return nil
	}
	return &r.Transcripts[0]
}

// FormatVariantID creates a variant identifier from components.
func FormatVariantID(chrom string, pos int64, ref, alt string) string {
	return NormalizeChrom(chrom) + "-" + strconv.FormatInt(pos, 10) + "-" + ref + "-" + alt
}

// ParseVariantID splits a chrom-pos-ref-alt identifier.
func ParseVariantID(id string) (Key, bool) {
	parts := strings.Split(id, "-")
	if len(parts) != 4 {
		return Key{}, false
	}
	pos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || pos < 1 {
		return Key{}, false
	}
	return Key{Chrom: NormalizeChrom(parts[0]), Pos: pos, Ref: parts[2], Alt: parts[3]}, true
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && chrom[:3] == "chr" {
		return chrom[3:]
	}
	return chrom
}

// ChromIndex returns the 1-based ordinal of a chromosome: autosomes by number,
// then X, Y and M. Unknown contigs sort after all of these.
func ChromIndex(chrom string) int64 {
	c := NormalizeChrom(chrom)
	switch c {
	case "X":
		return 23
	case "Y":
		return 24
	case "M", "MT":
		return 25
	}
	n, err := strconv.Atoi(c)
	if err != nil || n < 1 || n > 22 {
		return 26
	}
	return int64(n)
}

// Xpos returns ChromIndex*1e9 + pos.
func Xpos(chrom string, pos int64) int64 {
	return ChromIndex(chrom)*1_000_000_000 + pos
}

// IsXChrom reports whether chrom is the X chromosome.
func IsXChrom(chrom string) bool {
	return NormalizeChrom(chrom) == "X"
}

// Key identifies a variant by locus and alleles.
type Key struct {
	Chrom string
	Pos   int64
	Ref   string
	Alt   string
}

// Key returns the row's locus and alleles.
func (r *Row) Key() Key {
	return Key{Chrom: NormalizeChrom(r.Chrom), Pos: r.Pos, Ref: r.Ref, Alt: r.Alt}
}

// Compare orders keys by genomic position then alleles.
func (k Key) Compare(o Key) int {
	kx, ox := Xpos(k.Chrom, k.Pos), Xpos(o.Chrom, o.Pos)
	switch {
	case kx < ox:
		return -1
	case kx > ox:
		return 1
	}
	if c := strings.Compare(k.Chrom, o.Chrom); c != 0 {
		return c
	}
	if c := strings.Compare(k.Ref, o.Ref); c != 0 {
		return c
	}
	return strings.Compare(k.Alt, o.Alt)
}
