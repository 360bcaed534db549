// Package search defines the search request payload and the typed errors a
// search can fail with.
package search

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/inodb/vibe-search/internal/variant"
)

// Dataset types.
const (
	DatasetSNVIndel = "SNV_INDEL"
	DatasetSV       = "SV"
	DatasetMito     = "MITO"
)

// Default paging.
const (
	DefaultPage       = 1
	DefaultNumResults = 100
)

// Criteria is the request-scoped filter configuration. It is read-only once
// decoded.
type Criteria struct {
	DatasetType   string `json:"dataset_type,omitempty"`
	GenomeVersion string `json:"genome_version,omitempty"`

	FamilyGuids      []string             `json:"family_guids,omitempty"`
	Genes            map[string]Gene      `json:"genes,omitempty"`
	Intervals        []variant.Interval   `json:"intervals,omitempty"`
	VariantIDs       []string             `json:"variant_ids,omitempty"`
	RsIDs            []string             `json:"rs_ids,omitempty"`
	ExcludeLocations bool                 `json:"exclude_locations,omitempty"`
	Frequencies      map[string]Frequency `json:"freqs,omitempty"`
	InSilico         InSilico             `json:"in_silico,omitempty"`
	Annotations      Annotations          `json:"annotations,omitempty"`
	AnnotationsSec   Annotations          `json:"annotations_secondary,omitempty"`
	Pathogenicity    map[string][]string  `json:"pathogenicity,omitempty"`
	QualityFilter    QualityFilter        `json:"qualityFilter,omitempty"`
	Inheritance      *Inheritance         `json:"inheritance,omitempty"`
	Sort             string               `json:"sort,omitempty"`
	OmimGeneIDs      []string             `json:"omim_gene_ids,omitempty"`
	GeneRanks        map[string]int       `json:"gene_ranks,omitempty"`
	Page             int                  `json:"page,omitempty"`
	NumResults       int                  `json:"num_results,omitempty"`
}

// Gene carries the coordinates of a gene in both builds.
type Gene struct {
	ID          string `json:"geneId"`
	ChromGrch37 string `json:"chromGrch37"`
	StartGrch37 int64  `json:"startGrch37"`
	EndGrch37   int64  `json:"endGrch37"`
	ChromGrch38 string `json:"chromGrch38"`
	StartGrch38 int64  `json:"startGrch38"`
	EndGrch38   int64  `json:"endGrch38"`
}

// Interval returns the gene's span in the given build.
func (g Gene) Interval(build string) variant.Interval {
	if build == variant.GRCh37 {
		return variant.Interval{Chrom: variant.NormalizeChrom(g.ChromGrch37), Start: g.StartGrch37, End: g.EndGrch37}
	}
	return variant.Interval{Chrom: variant.NormalizeChrom(g.ChromGrch38), Start: g.StartGrch38, End: g.EndGrch38}
}

// Frequency holds the cutoffs for one population. AF takes precedence over AC.
type Frequency struct {
	AF *float64 `json:"af,omitempty"`
	AC *int     `json:"ac,omitempty"`
	HH *int     `json:"hh,omitempty"`
}

// InSilico holds per-predictor thresholds. Numeric predictors use a minimum
// score; categorical ones an allowed value.
type InSilico struct {
	Thresholds   map[string]string
	RequireScore bool
}

// UnmarshalJSON accepts {"cadd": "20", "sift": "D", "requireScore": true}.
func (s *InSilico) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Thresholds = make(map[string]string, len(raw))
	for k, v := range raw {
		if k == "requireScore" {
			if err := json.Unmarshal(v, &s.RequireScore); err != nil {
				return fmt.Errorf("decode requireScore: %w", err)
			}
			continue
		}
		value, err := scalarString(v)
		if err != nil {
			return fmt.Errorf("decode in silico %q: %w", k, err)
		}
		if value != "" {
			s.Thresholds[k] = value
		}
	}
	return nil
}

// Annotations lists allowed terms per annotation category. SpliceAI holds
// the optional splice_ai score threshold.
type Annotations struct {
	Terms    map[string][]string
	SpliceAI string
}

// Annotation categories with special handling.
const (
	AnnotationSCREEN   = "SCREEN"
	AnnotationSpliceAI = "splice_ai"
)

// UnmarshalJSON accepts {"missense": [...], "SCREEN": [...], "splice_ai": "0.5"}.
func (a *Annotations) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Terms = make(map[string][]string, len(raw))
	for k, v := range raw {
		if k == AnnotationSpliceAI {
			value, err := scalarString(v)
			if err != nil {
				return fmt.Errorf("decode splice_ai: %w", err)
			}
			a.SpliceAI = value
			continue
		}
		var terms []string
		if err := json.Unmarshal(v, &terms); err != nil {
			return fmt.Errorf("decode annotation %q: %w", k, err)
		}
		if len(terms) > 0 {
			a.Terms[k] = terms
		}
	}
	return nil
}

// IsEmpty reports whether no annotation filter was requested.
func (a Annotations) IsEmpty() bool {
	return len(a.Terms) == 0 && a.SpliceAI == ""
}

// QualityFilter holds per-genotype-field thresholds.
type QualityFilter struct {
	MinGQ        *int   `json:"min_gq,omitempty"`
	MinDP        *int   `json:"min_dp,omitempty"`
	MinAB        *int   `json:"min_ab,omitempty"`
	VCFFilter    string `json:"vcf_filter,omitempty"`
	AffectedOnly bool   `json:"affected_only,omitempty"`
}

// IsEmpty reports whether no genotype threshold is set.
func (q QualityFilter) IsEmpty() bool {
	return q.MinGQ == nil && q.MinDP == nil && q.MinAB == nil
}

// Inheritance selects an inheritance mode or a custom per-individual filter.
type Inheritance struct {
	Mode   string            `json:"mode,omitempty"`
	Filter InheritanceFilter `json:"filter,omitempty"`
}

// InheritanceFilter is the custom inheritance specification. Genotype maps
// individual guid to a genotype category; Affected overrides affected status
// per individual guid with "A", "N" or "U".
type InheritanceFilter struct {
	Genotype map[string]string `json:"genotype,omitempty"`
	Affected map[string]string `json:"affected,omitempty"`
}

// Defaults are the values filled into unset request fields.
type Defaults struct {
	GenomeVersion string
	NumResults    int
}

// StandardDefaults is GRCh38 with DefaultNumResults per page.
var StandardDefaults = Defaults{GenomeVersion: variant.GRCh38, NumResults: DefaultNumResults}

// ParseCriteria decodes a JSON search request and applies StandardDefaults.
func ParseCriteria(data []byte) (*Criteria, error) {
	return ParseCriteriaWithDefaults(data, StandardDefaults)
}

// ParseCriteriaWithDefaults decodes a JSON search request and applies d.
func ParseCriteriaWithDefaults(data []byte, d Defaults) (*Criteria, error) {
	var c Criteria
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &InvalidSearchError{Message: "invalid search request: " + err.Error(), cause: err}
	}
	c.applyDefaults(d)
	return &c, nil
}

// ApplyDefaults fills unset paging, dataset and build fields.
func (c *Criteria) ApplyDefaults() {
	c.applyDefaults(StandardDefaults)
}

func (c *Criteria) applyDefaults(d Defaults) {
	if c.DatasetType == "" {
		c.DatasetType = DatasetSNVIndel
	}
	if c.GenomeVersion == "" {
		c.GenomeVersion = d.GenomeVersion
	}
	if c.GenomeVersion == "" {
		c.GenomeVersion = variant.GRCh38
	}
	if c.Page < 1 {
		c.Page = DefaultPage
	}
	if c.NumResults < 1 {
		c.NumResults = d.NumResults
	}
	if c.NumResults < 1 {
		c.NumResults = DefaultNumResults
	}
}

// InheritanceMode returns the requested mode, or "" when a custom genotype
// specification takes precedence.
func (c *Criteria) InheritanceMode() string {
	if c.Inheritance == nil || len(c.Inheritance.Filter.Genotype) > 0 {
		return ""
	}
	return c.Inheritance.Mode
}

// HasInheritance reports whether the request constrains genotypes by
// inheritance.
func (c *Criteria) HasInheritance() bool {
	if c.Inheritance == nil {
		return false
	}
	return c.Inheritance.Mode != "" || len(c.Inheritance.Filter.Genotype) > 0 || c.Inheritance.Filter.Affected != nil
}

func scalarString(v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}
