package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-search/internal/enums"
	"github.com/inodb/vibe-search/internal/search"
	"github.com/inodb/vibe-search/internal/variant"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func enumID(t *testing.T, category, term string) int {
	t.Helper()
	id, err := enums.Default.Resolve(category, term)
	require.NoError(t, err)
	return id
}

func criteria(t *testing.T, body string) *search.Criteria {
	t.Helper()
	c, err := search.ParseCriteria([]byte(body))
	require.NoError(t, err)
	return c
}

func build(t *testing.T, body string) *Result {
	t.Helper()
	res, err := Build(criteria(t, body))
	require.NoError(t, err)
	return res
}

func requireInvalid(t *testing.T, body string) {
	t.Helper()
	_, err := Build(criteria(t, body))
	var invalid *search.InvalidSearchError
	require.True(t, errors.As(err, &invalid), "expected InvalidSearchError, got %v", err)
}

func pathogenicRow(t *testing.T) *variant.Row {
	return &variant.Row{
		Chrom: "1", Pos: 1000, Ref: "A", Alt: "G",
		Populations: map[string]variant.PopulationStats{
			"gnomad_genomes": {AF: fp(0.01)},
		},
		ClinVar: &variant.ClinVar{PathogenicityID: enumID(t, enums.CategoryClinVar, "Pathogenic")},
		Transcripts: []variant.TranscriptConsequence{{
			TranscriptID:       "ENST1",
			GeneID:             "ENSG1",
			ConsequenceTermIDs: []int{enumID(t, enums.CategoryConsequence, enums.ConsequenceSynonymousVariant)},
		}},
		Scores: map[string]float64{"cadd": 3},
	}
}

func TestBuild_PathogenicityOverridesFrequency(t *testing.T) {
	row := pathogenicRow(t)

	res := build(t, `{"freqs": {"gnomad_genomes": {"af": 0.001}}}`)
	assert.False(t, res.Primary.Eval(row))

	res = build(t, `{"freqs": {"gnomad_genomes": {"af": 0.001}}, "pathogenicity": {"clinvar": ["pathogenic"]}}`)
	assert.True(t, res.Primary.Eval(row))
}

func TestBuild_OverrideSurvivesMoreFilters(t *testing.T) {
	row := pathogenicRow(t)
	bodies := []string{
		`{"pathogenicity": {"clinvar": ["pathogenic"]}}`,
		`{"pathogenicity": {"clinvar": ["pathogenic"]}, "freqs": {"gnomad_genomes": {"af": 0.001}}}`,
		`{"pathogenicity": {"clinvar": ["pathogenic"]}, "freqs": {"gnomad_genomes": {"af": 0.001}}, "in_silico": {"cadd": 20, "requireScore": true}}`,
		`{"pathogenicity": {"clinvar": ["pathogenic"]}, "freqs": {"gnomad_genomes": {"af": 0.001}}, "in_silico": {"cadd": 20}, "annotations": {"missense": ["missense_variant"]}}`,
	}
	for _, body := range bodies {
		assert.True(t, build(t, body).Primary.Eval(row), body)
	}
}

func TestBuild_PathogenicityAloneFilters(t *testing.T) {
	res := build(t, `{"pathogenicity": {"clinvar": ["pathogenic"]}}`)
	assert.True(t, res.Primary.Eval(pathogenicRow(t)))
	assert.False(t, res.Primary.Eval(&variant.Row{Chrom: "1", Pos: 5}))

	benign := &variant.Row{Chrom: "1", Pos: 5, ClinVar: &variant.ClinVar{PathogenicityID: enumID(t, enums.CategoryClinVar, "Benign")}}
	assert.False(t, res.Primary.Eval(benign))
}

func TestBuild_HGMDRanges(t *testing.T) {
	res := build(t, `{"pathogenicity": {"hgmd": ["hgmd_other"]}}`)
	dm := &variant.Row{HGMD: &variant.HGMD{ClassID: enumID(t, enums.CategoryHGMD, "DM")}}
	fpRow := &variant.Row{HGMD: &variant.HGMD{ClassID: enumID(t, enums.CategoryHGMD, "FP")}}
	assert.False(t, res.Primary.Eval(dm))
	assert.True(t, res.Primary.Eval(fpRow))
}

func TestBuild_Frequency(t *testing.T) {
	res := build(t, `{"freqs": {"gnomad_exomes": {"af": 0.05, "hh": 1}, "seqr": {"ac": 10}}}`)

	assert.True(t, res.Primary.Eval(&variant.Row{}), "missing populations pass")
	assert.False(t, res.Primary.Eval(&variant.Row{Populations: map[string]variant.PopulationStats{
		"gnomad_exomes": {AF: fp(0.01), FilterAF: fp(0.2)},
	}}), "filter AF is preferred")
	assert.False(t, res.Primary.Eval(&variant.Row{Populations: map[string]variant.PopulationStats{
		"gnomad_exomes": {AF: fp(0.01), Hemi: ip(2)},
	}}))
	assert.False(t, res.Primary.Eval(&variant.Row{Populations: map[string]variant.PopulationStats{
		"seqr": {AC: ip(11)},
	}}))
	assert.True(t, res.Primary.Eval(&variant.Row{Populations: map[string]variant.PopulationStats{
		"seqr": {AC: ip(10)}, "gnomad_exomes": {AF: fp(0.05), Hom: ip(1)},
	}}))
}

func TestBuild_InSilico(t *testing.T) {
	res := build(t, `{"in_silico": {"cadd": "20", "sift": "D,T"}}`)
	assert.True(t, res.Primary.Eval(&variant.Row{}), "all scores missing")
	assert.True(t, res.Primary.Eval(&variant.Row{Scores: map[string]float64{"cadd": 25}}))
	assert.True(t, res.Primary.Eval(&variant.Row{Calls: map[string]string{"sift": "D"}}))
	assert.False(t, res.Primary.Eval(&variant.Row{Scores: map[string]float64{"cadd": 5}}))

	res = build(t, `{"in_silico": {"cadd": 20, "requireScore": true}}`)
	assert.False(t, res.Primary.Eval(&variant.Row{}))
}

func TestBuild_Annotations(t *testing.T) {
	missense := enumID(t, enums.CategoryConsequence, enums.ConsequenceMissenseVariant)
	intron := enumID(t, enums.CategoryConsequence, enums.ConsequenceIntronVariant)
	dels := enumID(t, enums.CategorySCREEN, "dELS")
	pls := enumID(t, enums.CategorySCREEN, "PLS")

	res := build(t, `{"annotations": {"missense": ["missense_variant"], "SCREEN": ["dELS"], "splice_ai": "0.5"}}`)

	row := &variant.Row{Transcripts: []variant.TranscriptConsequence{
		{TranscriptID: "T1", GeneID: "G1", ConsequenceTermIDs: []int{intron}},
		{TranscriptID: "T2", GeneID: "G2", ConsequenceTermIDs: []int{intron, missense}},
	}}
	assert.True(t, res.Primary.Eval(row))
	assert.Equal(t, []string{"T2"}, res.Side.AllowedTranscripts(row))
	assert.Nil(t, res.Side.AllowedTranscriptsSecondary(row))

	assert.True(t, res.Primary.Eval(&variant.Row{ScreenIDs: []int{dels, pls}}))
	assert.False(t, res.Primary.Eval(&variant.Row{ScreenIDs: []int{pls, dels}}), "only the first region type counts")
	assert.True(t, res.Primary.Eval(&variant.Row{Scores: map[string]float64{"splice_ai": 0.7}}))
	assert.False(t, res.Primary.Eval(&variant.Row{Scores: map[string]float64{"splice_ai": 0.2}}))
}

func TestBuild_GeneScoping(t *testing.T) {
	missense := enumID(t, enums.CategoryConsequence, enums.ConsequenceMissenseVariant)
	synonymous := enumID(t, enums.CategoryConsequence, enums.ConsequenceSynonymousVariant)
	res := build(t, `{
		"genes": {"G2": {"geneId": "G2", "chromGrch38": "1", "startGrch38": 100, "endGrch38": 200}},
		"annotations": {"missense": ["missense_variant"]}
	}`)
	require.Len(t, res.Intervals, 1)
	assert.Equal(t, map[string]bool{"G2": true}, res.Side.GeneIDs)

	row := &variant.Row{Chrom: "1", Pos: 150, Transcripts: []variant.TranscriptConsequence{
		{TranscriptID: "T1", GeneID: "G1", ConsequenceTermIDs: []int{missense}},
		{TranscriptID: "T2", GeneID: "G2", ConsequenceTermIDs: []int{missense}},
	}}
	assert.True(t, res.Primary.Eval(row))
	assert.Equal(t, []string{"T2"}, res.Side.AllowedTranscripts(row))

	// A missense call on an overlapping gene's transcript still passes.
	overlapping := &variant.Row{Chrom: "1", Pos: 150, Transcripts: []variant.TranscriptConsequence{
		{TranscriptID: "T1", GeneID: "G1", ConsequenceTermIDs: []int{missense}},
		{TranscriptID: "T2", GeneID: "G2", ConsequenceTermIDs: []int{synonymous}},
	}}
	assert.True(t, res.Primary.Eval(overlapping))
	assert.Equal(t, []string{"T1"}, res.Side.AllowedTranscripts(overlapping))

	row.Pos = 250
	assert.False(t, res.Primary.Eval(row))
}

func TestBuild_GenesAndIntervals(t *testing.T) {
	missense := enumID(t, enums.CategoryConsequence, enums.ConsequenceMissenseVariant)
	synonymous := enumID(t, enums.CategoryConsequence, enums.ConsequenceSynonymousVariant)
	res := build(t, `{
		"genes": {"G2": {"geneId": "G2", "chromGrch38": "1", "startGrch38": 100, "endGrch38": 200}},
		"intervals": [{"chrom": "chr3", "start": 1000, "end": 2000}],
		"annotations": {"missense": ["missense_variant"]}
	}`)
	require.Len(t, res.Intervals, 2)

	inInterval := &variant.Row{Chrom: "3", Pos: 1500, Transcripts: []variant.TranscriptConsequence{
		{TranscriptID: "T7", GeneID: "G7", ConsequenceTermIDs: []int{missense}},
	}}
	assert.True(t, res.Primary.Eval(inInterval))
	assert.Equal(t, []string{"T7"}, res.Side.AllowedTranscripts(inInterval))

	inInterval.Transcripts[0].ConsequenceTermIDs = []int{synonymous}
	assert.False(t, res.Primary.Eval(inInterval))

	outside := &variant.Row{Chrom: "3", Pos: 2500, Transcripts: []variant.TranscriptConsequence{
		{TranscriptID: "T7", GeneID: "G7", ConsequenceTermIDs: []int{missense}},
	}}
	assert.False(t, res.Primary.Eval(outside))
}

func TestBuild_Locations(t *testing.T) {
	res := build(t, `{"intervals": [{"chrom": "chr2", "start": 10, "end": 20}]}`)
	assert.Len(t, res.Intervals, 1)
	assert.True(t, res.Primary.Eval(&variant.Row{Chrom: "2", Pos: 10}))
	assert.False(t, res.Primary.Eval(&variant.Row{Chrom: "2", Pos: 21}))

	res = build(t, `{"intervals": [{"chrom": "2", "start": 10, "end": 20}], "exclude_locations": true}`)
	assert.Nil(t, res.Intervals)
	assert.False(t, res.Primary.Eval(&variant.Row{Chrom: "2", Pos: 15}))
	assert.True(t, res.Primary.Eval(&variant.Row{Chrom: "3", Pos: 15}))

	res = build(t, `{
		"intervals": [{"chrom": "5", "start": 1, "end": 2}],
		"variant_ids": ["1-100-A-G"],
		"rs_ids": ["rs42"]
	}`)
	assert.True(t, res.Primary.Eval(&variant.Row{Chrom: "1", Pos: 100, Ref: "A", Alt: "G"}))
	assert.True(t, res.Primary.Eval(&variant.Row{Chrom: "7", Pos: 9, RsID: "rs42"}))
	assert.False(t, res.Primary.Eval(&variant.Row{Chrom: "1", Pos: 100, Ref: "A", Alt: "T"}))
	assert.False(t, res.Primary.Eval(&variant.Row{Chrom: "5", Pos: 1}), "variant ids replace intervals")
}

func TestBuild_VCFFilter(t *testing.T) {
	res := build(t, `{"qualityFilter": {"vcf_filter": "pass"}}`)
	assert.True(t, res.Primary.Eval(&variant.Row{}))
	assert.False(t, res.Primary.Eval(&variant.Row{Filters: []string{"VQSRTrancheSNP99.90to100.00"}}))

	// vcf_filter is not bypassed by pathogenicity.
	res = build(t, `{"qualityFilter": {"vcf_filter": "pass"}, "pathogenicity": {"clinvar": ["pathogenic"]}}`)
	row := pathogenicRow(t)
	row.Filters = []string{"LowQual"}
	assert.False(t, res.Primary.Eval(row))
}

func TestBuild_Secondary(t *testing.T) {
	frameshift := enumID(t, enums.CategoryConsequence, enums.ConsequenceFrameshiftVariant)
	res := build(t, `{
		"annotations": {"missense": ["missense_variant"]},
		"annotations_secondary": {"frameshift": ["frameshift_variant"]}
	}`)
	require.NotNil(t, res.Secondary)
	row := &variant.Row{Transcripts: []variant.TranscriptConsequence{
		{TranscriptID: "T9", GeneID: "G1", ConsequenceTermIDs: []int{frameshift}},
	}}
	assert.False(t, res.Primary.Eval(row))
	assert.True(t, res.Secondary.Eval(row))
	assert.Equal(t, []string{"T9"}, res.Side.AllowedTranscriptsSecondary(row))

	assert.Nil(t, build(t, `{}`).Secondary)
}

func TestBuild_ClinVarPath(t *testing.T) {
	assert.Nil(t, build(t, `{"pathogenicity": {"clinvar": ["benign"]}}`).ClinVarPath)

	res := build(t, `{"pathogenicity": {"clinvar": ["likely_pathogenic", "benign"]}}`)
	require.NotNil(t, res.ClinVarPath)
	likely := &variant.Row{ClinVar: &variant.ClinVar{PathogenicityID: enumID(t, enums.CategoryClinVar, "Likely_pathogenic")}}
	assert.True(t, res.ClinVarPath.Eval(likely))
	assert.False(t, res.ClinVarPath.Eval(&variant.Row{}))
}

func TestBuild_String(t *testing.T) {
	res := build(t, `{"freqs": {"gnomad_genomes": {"af": 0.001}}, "pathogenicity": {"clinvar": ["pathogenic"]}}`)
	assert.Equal(t,
		"or(and(freq:gnomad_genomes, pathogenicity:clinvar), pathogenicity:clinvar)",
		res.Primary.String())
	assert.Equal(t, "true", build(t, `{}`).Primary.String())
}

func TestBuild_InvalidCriteria(t *testing.T) {
	for _, body := range []string{
		`{"freqs": {"1kg": {"af": 0.1}}}`,
		`{"annotations": {"missense": ["not_a_consequence"]}}`,
		`{"annotations": {"SCREEN": ["enhancer"]}}`,
		`{"annotations": {"splice_ai": "high"}}`,
		`{"pathogenicity": {"clinvar": ["very_bad"]}}`,
		`{"pathogenicity": {"omim": ["pathogenic"]}}`,
		`{"in_silico": {"made_up": 1}}`,
		`{"in_silico": {"cadd": "high"}}`,
		`{"intervals": [{"chrom": "1", "start": 20, "end": 10}]}`,
		`{"variant_ids": ["1-100-A"]}`,
		`{"qualityFilter": {"vcf_filter": "fail"}}`,
	} {
		t.Run(body, func(t *testing.T) {
			requireInvalid(t, body)
		})
	}
}
