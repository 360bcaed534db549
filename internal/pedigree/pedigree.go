// Package pedigree models families, individuals and their loaded samples.
package pedigree

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-search/internal/search"
)

// AffectedStatus of an individual.
type AffectedStatus string

const (
	Affected   AffectedStatus = "A"
	Unaffected AffectedStatus = "N"
	Unknown    AffectedStatus = "U"
)

// Sex of an individual.
type Sex string

const (
	Male       Sex = "M"
	Female     Sex = "F"
	SexUnknown Sex = "U"
)

// Sample is one loaded sample of an individual.
type Sample struct {
	SampleID    string `yaml:"sample_id" json:"sampleId"`
	DatasetType string `yaml:"dataset_type" json:"datasetType"`
}

// Individual is a member of a family.
type Individual struct {
	Guid       string         `yaml:"guid" json:"individualGuid"`
	Affected   AffectedStatus `yaml:"affected" json:"affected"`
	Sex        Sex            `yaml:"sex" json:"sex"`
	MotherGuid string         `yaml:"mother,omitempty" json:"motherGuid,omitempty"`
	FatherGuid string         `yaml:"father,omitempty" json:"fatherGuid,omitempty"`
	Samples    []Sample       `yaml:"samples" json:"samples"`
}

// SampleID returns the individual's sample for datasetType.
func (i *Individual) SampleID(datasetType string) (string, bool) {
	for _, s := range i.Samples {
		if s.DatasetType == datasetType {
			return s.SampleID, true
		}
	}
	return "", false
}

// Family is a pedigree unit.
type Family struct {
	Guid        string        `yaml:"guid" json:"familyGuid"`
	Individuals []*Individual `yaml:"individuals" json:"individuals"`
}

// Individual returns the member with guid, or nil.
func (f *Family) Individual(guid string) *Individual {
	for _, ind := range f.Individuals {
		if ind.Guid == guid {
			return ind
		}
	}
	return nil
}

// WithData returns the members that have a sample for datasetType.
func (f *Family) WithData(datasetType string) []*Individual {
	var out []*Individual
	for _, ind := range f.Individuals {
		if _, ok := ind.SampleID(datasetType); ok {
			out = append(out, ind)
		}
	}
	return out
}

// AffectedStatus returns per-individual affected status for members with
// data, applying overrides keyed by individual guid.
func (f *Family) AffectedStatus(datasetType string, overrides map[string]string) map[string]AffectedStatus {
	status := make(map[string]AffectedStatus)
	for _, ind := range f.WithData(datasetType) {
		s := ind.Affected
		if o, ok := overrides[ind.Guid]; ok && o != "" {
			s = AffectedStatus(o)
		}
		status[ind.Guid] = s
	}
	return status
}

// Provider resolves family guids to pedigrees.
type Provider interface {
	Families(ctx context.Context, guids []string) ([]*Family, error)
}

// StaticProvider serves a fixed set of families.
type StaticProvider struct {
	families map[string]*Family
}

// NewStaticProvider creates a provider over families.
func NewStaticProvider(families []*Family) *StaticProvider {
	p := &StaticProvider{families: make(map[string]*Family, len(families))}
	for _, f := range families {
		p.families[f.Guid] = f
	}
	return p
}

// Families returns the requested families in guid order. An empty guid list
// selects every family.
func (p *StaticProvider) Families(_ context.Context, guids []string) ([]*Family, error) {
	if len(guids) == 0 {
		for g := range p.families {
			guids = append(guids, g)
		}
	}
	sorted := append([]string(nil), guids...)
	sort.Strings(sorted)

	families := make([]*Family, 0, len(sorted))
	for _, g := range sorted {
		f, ok := p.families[g]
		if !ok {
			return nil, search.NewInvalidSearchError("unknown family %q", g)
		}
		families = append(families, f)
	}
	return families, nil
}

type pedigreeFile struct {
	Families []*Family `yaml:"families"`
}

// LoadYAML reads a pedigree file of the form:
//
//	families:
//	  - guid: F1
//	    individuals:
//	      - guid: I1
//	        affected: A
//	        sex: F
//	        mother: I2
//	        samples: [{sample_id: S1, dataset_type: SNV_INDEL}]
func LoadYAML(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pedigree file: %w", err)
	}
	var pf pedigreeFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse pedigree file: %w", err)
	}
	for _, f := range pf.Families {
		for _, ind := range f.Individuals {
			if ind.Affected == "" {
				ind.Affected = Unknown
			}
			if ind.Sex == "" {
				ind.Sex = SexUnknown
			}
		}
	}
	return NewStaticProvider(pf.Families), nil
}
