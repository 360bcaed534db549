package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-search/internal/dataset"
	"github.com/inodb/vibe-search/internal/variant"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func testRows() []*variant.Row {
	return []*variant.Row{
		{
			ID: 1, Chrom: "1", Pos: 100, Ref: "A", Alt: "G", GenomeVersion: variant.GRCh38,
			Populations: map[string]variant.PopulationStats{"gnomad_genomes": {AF: fp(0.2), Hom: ip(3)}},
			Transcripts: []variant.TranscriptConsequence{{TranscriptID: "T1", GeneID: "G1", ConsequenceTermIDs: []int{9}}},
		},
		{
			ID: 2, Chrom: "chr1", Pos: 5000, Ref: "C", Alt: "T", GenomeVersion: variant.GRCh38,
			Populations: map[string]variant.PopulationStats{"gnomad_genomes": {AF: fp(0.02)}},
			ClinVar:     &variant.ClinVar{PathogenicityID: 0},
		},
		{
			ID: 3, Chrom: "X", Pos: 700, Ref: "G", Alt: "A", GenomeVersion: variant.GRCh38,
			ClinVar: &variant.ClinVar{PathogenicityID: 5},
			Scores:  map[string]float64{"cadd": 30},
		},
		{ID: 4, Chrom: "1", Pos: 100, Ref: "A", Alt: "G", GenomeVersion: variant.GRCh37},
	}
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestWriteAndReadRows(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()
	rows := testRows()
	require.NoError(t, s.WriteRows(ctx, append(rows, rows[0])))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	got, err := s.Rows(ctx, variant.GRCh38, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1-100-A-G", got[0].VariantID())
	assert.Equal(t, "1-5000-C-T", got[1].VariantID())
	assert.Equal(t, "X-700-G-A", got[2].VariantID())
	assert.Equal(t, 30.0, got[2].Scores["cadd"])
	require.Len(t, got[0].Transcripts, 1)
	assert.Equal(t, []int{9}, got[0].Transcripts[0].ConsequenceTermIDs)
	assert.Equal(t, 3, *got[0].Populations["gnomad_genomes"].Hom)

	got, err = s.Rows(ctx, variant.GRCh38, []variant.Interval{{Chrom: "chr1", Start: 4000, End: 6000}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(2), got[0].ID)
}

func TestFilterTables(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRows(ctx, testRows()))

	cases := []struct {
		table, column string
		want          []uint32
	}{
		{dataset.TableHighAF, "", []uint32{1, 2}},
		{dataset.TableHighAF, dataset.ColumnGT10Percent, []uint32{1}},
		{dataset.TableClinVarPath, "", []uint32{2, 3}},
		{dataset.TableClinVarPath, dataset.ColumnPathogenic, []uint32{2}},
		{dataset.TableClinVarPath, dataset.ColumnLikelyPathogen, []uint32{3}},
	}
	for _, tc := range cases {
		bm, err := s.FilterTable(ctx, tc.table, tc.column)
		require.NoError(t, err)
		assert.Equal(t, tc.want, bm.ToArray(), "%s %s", tc.table, tc.column)
	}

	_, err := s.FilterTable(ctx, "variants", "")
	assert.Error(t, err)
	_, err = s.FilterTable(ctx, dataset.TableHighAF, "id; DROP TABLE variants")
	assert.Error(t, err)
}

func TestSampleGenotypes(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()
	require.NoError(t, s.WriteGenotypes(ctx,
		[]uint32{1, 2, 3},
		[]variant.Genotype{
			{SampleID: "S1", NumAlt: 1, DP: ip(30), GQ: ip(99), AB: fp(0.45)},
			{SampleID: "S1", NumAlt: 2},
			{SampleID: "S2", NumAlt: variant.NoCall},
		}))

	table, err := s.SampleGenotypes(ctx, "S1", nil)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, 1, table[1].NumAlt)
	assert.Equal(t, 99, *table[1].GQ)
	assert.InDelta(t, 0.45, *table[1].AB, 1e-9)
	assert.Nil(t, table[2].DP)

	table, err = s.SampleGenotypes(ctx, "S1", roaring.BitmapOf(2))
	require.NoError(t, err)
	assert.Len(t, table, 1)

	table, err = s.SampleGenotypes(ctx, "S2", nil)
	require.NoError(t, err)
	assert.False(t, table[3].IsCalled())

	assert.Error(t, s.WriteGenotypes(ctx, []uint32{1}, nil))
}

func TestImport(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()
	dir := t.TempDir()

	variants := filepath.Join(dir, "variants.ndjson")
	require.NoError(t, os.WriteFile(variants, []byte(strings.Join([]string{
		`{"id": 1, "chrom": "1", "pos": 100, "ref": "A", "alt": "G", "genome_version": "GRCh38", "populations": {"gnomad_genomes": {"af": 0.5}}}`,
		`{"id": 2, "chrom": "2", "pos": 200, "ref": "C", "alt": "T", "genome_version": "GRCh38", "clinvar": {"pathogenicity_id": 0}}`,
	}, "\n")+"\n"), 0644))

	genotypes := filepath.Join(dir, "genotypes.ndjson")
	require.NoError(t, os.WriteFile(genotypes, []byte(strings.Join([]string{
		`{"sample_id": "S1", "variant_id": 1, "num_alt": 1, "gq": 40}`,
		`{"sample_id": "S1", "variant_id": 2, "num_alt": 2, "dp": 12, "ab": 1.0}`,
	}, "\n")+"\n"), 0644))

	n, err := s.ImportVariants(ctx, variants)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Unchanged files are skipped.
	n, err = s.ImportVariants(ctx, variants)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	loaded, err := s.ImportGenotypes(ctx, genotypes)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded)

	table, err := s.SampleGenotypes(ctx, "S1", nil)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, 40, *table[1].GQ)
	assert.Equal(t, 12, *table[2].DP)

	high, err := s.FilterTable(ctx, dataset.TableHighAF, dataset.ColumnGT10Percent)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, high.ToArray())
	path, err := s.FilterTable(ctx, dataset.TableClinVarPath, "")
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, path.ToArray())
}

func TestImportMissingFile(t *testing.T) {
	s := openInMemory(t)
	_, err := s.ImportVariants(context.Background(), filepath.Join(t.TempDir(), "missing.ndjson"))
	assert.Error(t, err)
}

// Store satisfies the dataset reader used by the query engine.
var _ dataset.Reader = (*Store)(nil)

const testAlphaMissense = `# Copyright 2023 DeepMind Technologies Limited
#
# Licensed under CC BY-NC-SA 4.0 license
#CHROM	POS	REF	ALT	genome	uniprot_id	transcript_id	protein_variant	am_pathogenicity	am_class
chrX	700	G	A	hg38	P1	ENST1.1	V2L	0.9	likely_pathogenic
chrX	700	G	A	hg38	P1	ENST2.1	V2L	0.9	likely_pathogenic
chr1	100	A	G	hg38	P2	ENST3.1	M1T	0.1	likely_benign
`

func TestImportAlphaMissense(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()
	rows := testRows()
	rows[2].Scores = nil
	require.NoError(t, s.WriteRows(ctx, rows))

	path := filepath.Join(t.TempDir(), "AlphaMissense_hg38.tsv")
	require.NoError(t, os.WriteFile(path, []byte(testAlphaMissense), 0o644))

	n, err := s.ImportAlphaMissense(ctx, path)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "transcript duplicates collapse")

	got, err := s.Rows(ctx, variant.GRCh38, nil)
	require.NoError(t, err)
	scores := make(map[uint32]map[string]float64)
	for _, r := range got {
		scores[r.ID] = r.Scores
	}
	assert.InDelta(t, 0.1, scores[1][ScoreAlphaMissense], 1e-6)
	assert.NotContains(t, scores[2], ScoreAlphaMissense)
	assert.InDelta(t, 0.9, scores[3][ScoreAlphaMissense], 1e-6)

	got, err = s.Rows(ctx, variant.GRCh37, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotContains(t, got[0].Scores, ScoreAlphaMissense, "scores apply to their own build")

	class, err := s.AlphaMissenseClass(ctx, variant.GRCh38, "X", 700, "G", "A")
	require.NoError(t, err)
	assert.Equal(t, "likely_pathogenic", class)
	class, err = s.AlphaMissenseClass(ctx, variant.GRCh38, "2", 1, "A", "C")
	require.NoError(t, err)
	assert.Empty(t, class)

	n, err = s.ImportAlphaMissense(ctx, path)
	require.NoError(t, err)
	assert.Zero(t, n, "unchanged file is skipped")
}
