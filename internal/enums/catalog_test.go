package enums

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-search/internal/search"
)

func TestResolve(t *testing.T) {
	id, err := Default.Resolve(CategoryConsequence, ConsequenceMissenseVariant)
	require.NoError(t, err)
	label, ok := Default.Label(CategoryConsequence, id)
	assert.True(t, ok)
	assert.Equal(t, ConsequenceMissenseVariant, label)

	_, err = Default.Resolve(CategoryConsequence, "not_a_term")
	var cfgErr *search.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = Default.Resolve("nope", "Pathogenic")
	assert.True(t, errors.As(err, &cfgErr))
}

func TestConsequenceIDsFollowSeverity(t *testing.T) {
	stop, _ := Default.Resolve(CategoryConsequence, ConsequenceStopGained)
	missense, _ := Default.Resolve(CategoryConsequence, ConsequenceMissenseVariant)
	intron, _ := Default.Resolve(CategoryConsequence, ConsequenceIntronVariant)
	assert.Less(t, stop, missense)
	assert.Less(t, missense, intron)
}

func TestResolveRange_ClinVar(t *testing.T) {
	ranges, err := Default.ResolveRange(CategoryClinVar, []string{ClinVarPathogenic})
	require.NoError(t, err)
	assert.Equal(t, []Range{{Low: 0, High: 4}}, ranges)

	ranges, err = Default.ResolveRange(CategoryClinVar, []string{ClinVarPathogenic, ClinVarLikelyPathogenic})
	require.NoError(t, err)
	assert.Equal(t, []Range{{Low: 0, High: 8}}, ranges, "adjacent terms merge")

	ranges, err = Default.ResolveRange(CategoryClinVar, []string{ClinVarPathogenic, ClinVarVUSOrConflicting})
	require.NoError(t, err)
	assert.Equal(t, []Range{{Low: 0, High: 4}, {Low: 9, High: 13}}, ranges, "gap starts a new range")

	ranges, err = Default.ResolveRange(CategoryClinVar, []string{ClinVarBenign, ClinVarPathogenic})
	require.NoError(t, err)
	assert.Equal(t, []Range{{Low: 0, High: 4}, {Low: 15, High: 16}}, ranges, "selection order is irrelevant")

	ranges, err = Default.ResolveRange(CategoryClinVar, nil)
	require.NoError(t, err)
	assert.Empty(t, ranges)
}

func TestResolveRange_HGMDOpenEnd(t *testing.T) {
	ranges, err := Default.ResolveRange(CategoryHGMD, []string{HGMDOther})
	require.NoError(t, err)
	assert.Equal(t, []Range{{Low: 2, High: Default.Len(CategoryHGMD) - 1}}, ranges)

	ranges, err = Default.ResolveRange(CategoryHGMD, []string{HGMDDiseaseCausing, HGMDOther})
	require.NoError(t, err)
	assert.Equal(t, []Range{{Low: 0, High: 0}, {Low: 2, High: 5}}, ranges)
}

func TestResolveRange_ExactCoverage(t *testing.T) {
	terms := []string{ClinVarPathogenic, ClinVarLikelyPathogenic, ClinVarVUSOrConflicting, ClinVarLikelyBenign, ClinVarBenign}
	// every subset of the ClinVar filter terms
	for mask := 1; mask < 1<<len(terms); mask++ {
		var selected []string
		covered := map[int]bool{}
		for i, term := range terms {
			if mask&(1<<i) == 0 {
				continue
			}
			selected = append(selected, term)
			rc := clinvarRanges[i]
			lo, _ := Default.Resolve(CategoryClinVar, rc.Start)
			hi, _ := Default.Resolve(CategoryClinVar, rc.End)
			for id := lo; id <= hi; id++ {
				covered[id] = true
			}
		}

		ranges, err := Default.ResolveRange(CategoryClinVar, selected)
		require.NoError(t, err)
		for id := 0; id < Default.Len(CategoryClinVar); id++ {
			assert.Equal(t, covered[id], InRanges(id, ranges), "mask %b id %d", mask, id)
		}
		for i := 1; i < len(ranges); i++ {
			assert.Greater(t, ranges[i].Low, ranges[i-1].High+1, "mask %b: ranges must not touch", mask)
		}
	}
}

func TestResolveRange_UnknownTerm(t *testing.T) {
	_, err := Default.ResolveRange(CategoryClinVar, []string{"very_pathogenic"})
	var cfgErr *search.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = Default.ResolveRange(CategoryConsequence, []string{"x"})
	assert.True(t, errors.As(err, &cfgErr))
}

func TestGetImpact(t *testing.T) {
	assert.Equal(t, ImpactHigh, GetImpact(ConsequenceStopGained))
	assert.Equal(t, ImpactModerate, GetImpact(ConsequenceMissenseVariant))
	assert.Equal(t, ImpactLow, GetImpact(ConsequenceSynonymousVariant))
	assert.Equal(t, ImpactModifier, GetImpact(ConsequenceIntronVariant))
	assert.Greater(t, ImpactRank(ImpactHigh), ImpactRank(ImpactLow))
}
