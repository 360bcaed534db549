package prefilter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-search/internal/dataset"
	"github.com/inodb/vibe-search/internal/search"
	"github.com/inodb/vibe-search/internal/variant"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func gnomad(f search.Frequency) map[string]search.Frequency {
	return map[string]search.Frequency{dataset.PrefilterPopulation: f}
}

func TestGnomadAFDecision(t *testing.T) {
	tests := []struct {
		name     string
		criteria search.Criteria
		want     Decision
	}{
		{"no frequencies", search.Criteria{}, Decision{}},
		{"other population only", search.Criteria{Frequencies: map[string]search.Frequency{"exac": {AF: fp(0.001)}}}, Decision{}},
		{"hh only", search.Criteria{Frequencies: gnomad(search.Frequency{HH: ip(1)})}, Decision{}},
		{"rare af", search.Criteria{Frequencies: gnomad(search.Frequency{AF: fp(0.001)})}, Decision{Apply: true}},
		{"ac uses prefilter cutoff", search.Criteria{Frequencies: gnomad(search.Frequency{AC: ip(3)})}, Decision{Apply: true}},
		{"af above prefilter cutoff", search.Criteria{Frequencies: gnomad(search.Frequency{AF: fp(0.03)})}, Decision{Apply: true, Column: dataset.ColumnGT10Percent}},
		{"af too high for any table", search.Criteria{Frequencies: gnomad(search.Frequency{AF: fp(0.2)})}, Decision{}},
		{
			"clinvar override widens cutoff",
			search.Criteria{
				Frequencies:   gnomad(search.Frequency{AF: fp(0.001)}),
				Pathogenicity: map[string][]string{"clinvar": {"pathogenic"}},
			},
			Decision{Apply: true, Column: dataset.ColumnGT10Percent},
		},
		{
			"non clinvar override disables prefilter",
			search.Criteria{
				Frequencies:   gnomad(search.Frequency{AF: fp(0.001)}),
				Pathogenicity: map[string][]string{"hgmd": {"disease_causing"}},
			},
			Decision{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GnomadAFDecision(&tt.criteria))
		})
	}
}

func TestClinVarPathDecision(t *testing.T) {
	decide := func(terms ...string) Decision {
		return ClinVarPathDecision(&search.Criteria{Pathogenicity: map[string][]string{"clinvar": terms}})
	}
	assert.Equal(t, Decision{}, decide())
	assert.Equal(t, Decision{}, decide("benign"))
	assert.Equal(t, Decision{Apply: true, Column: dataset.ColumnPathogenic}, decide("pathogenic"))
	assert.Equal(t, Decision{Apply: true, Column: dataset.ColumnLikelyPathogen}, decide("likely_pathogenic", "benign"))
	assert.Equal(t, Decision{Apply: true}, decide("pathogenic", "likely_pathogenic"))
}

func TestSet_HighAFExclusionExemptsClinVar(t *testing.T) {
	rows := []*variant.Row{
		{ID: 1, Populations: map[string]variant.PopulationStats{dataset.PrefilterPopulation: {AF: fp(0.3)}}},
		{ID: 2, Populations: map[string]variant.PopulationStats{dataset.PrefilterPopulation: {AF: fp(0.4)}},
			ClinVar: &variant.ClinVar{PathogenicityID: 0}},
		{ID: 3, Populations: map[string]variant.PopulationStats{dataset.PrefilterPopulation: {AF: fp(0.02)}}},
	}
	reader := dataset.NewMemory(rows)
	ctx := context.Background()

	plain := NewSet(NewCache(), reader, &search.Criteria{Frequencies: gnomad(search.Frequency{AF: fp(0.001)})})
	excluded, err := plain.HighAFExclusion(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, excluded.ToArray())

	withPath := NewSet(NewCache(), reader, &search.Criteria{
		Frequencies:   gnomad(search.Frequency{AF: fp(0.001)}),
		Pathogenicity: map[string][]string{"clinvar": {"pathogenic"}},
	})
	excluded, err = withPath.HighAFExclusion(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, excluded.ToArray(), "pathogenic row exempt, 2 percent row not in the gt10 column")

	none := NewSet(NewCache(), reader, &search.Criteria{})
	excluded, err = none.HighAFExclusion(ctx)
	require.NoError(t, err)
	assert.Nil(t, excluded)
	path, err := none.ClinVarPath(ctx)
	require.NoError(t, err)
	assert.Nil(t, path)
}
