package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testVariants = `{"id": 1, "chrom": "chr1", "pos": 100, "ref": "A", "alt": "G", "genome_version": "GRCh38"}
{"id": 2, "chrom": "2", "pos": 200, "ref": "C", "alt": "T", "genome_version": "GRCh38"}
`
	testGenotypes = `{"sample_id": "S1", "variant_id": 1, "num_alt": 1, "gq": 99}
`
	testPedigree = `families:
  - guid: F1
    individuals:
      - guid: I1
        affected: A
        samples: [{sample_id: S1, dataset_type: SNV_INDEL}]
`
)

func setup(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("HOME", dir)
	t.Cleanup(viper.Reset)
	for name, content := range map[string]string{
		"variants.ndjson":  testVariants,
		"genotypes.ndjson": testGenotypes,
		"pedigree.yaml":    testPedigree,
		"request.json":     `{"family_guids": ["F1"]}`,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestImportAndSearch(t *testing.T) {
	dir := setup(t)
	db := filepath.Join(dir, "callset.duckdb")

	code := run([]string{"import", "--db", db,
		"--variants", filepath.Join(dir, "variants.ndjson"),
		"--genotypes", filepath.Join(dir, "genotypes.ndjson")})
	require.Equal(t, ExitSuccess, code)

	out := filepath.Join(dir, "results.json")
	code = run([]string{"search", "--db", db, "--pedigree", filepath.Join(dir, "pedigree.yaml"),
		"-o", out, filepath.Join(dir, "request.json")})
	require.Equal(t, ExitSuccess, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var res struct {
		Total    int `json:"totalResults"`
		Variants []struct {
			VariantID string `json:"variantId"`
		} `json:"searchedVariants"`
	}
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Variants, 1)
	assert.Equal(t, "1-100-A-G", res.Variants[0].VariantID)
}

func TestSearchUsageErrors(t *testing.T) {
	dir := setup(t)
	request := filepath.Join(dir, "request.json")

	assert.Equal(t, ExitUsage, run([]string{"search", request}), "no database configured")
	assert.Equal(t, ExitUsage, run([]string{"search", "--db", filepath.Join(dir, "x.duckdb"), "-f", "xml", request}))
	assert.Equal(t, ExitUsage, run([]string{"search", "--no-such-flag"}))
	assert.Equal(t, ExitUsage, run([]string{"import", "--db", filepath.Join(dir, "x.duckdb")}))
}

func TestSearchInvalidRequest(t *testing.T) {
	dir := setup(t)
	request := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(request, []byte(`{"sort": "bogus"}`), 0o644))

	code := run([]string{"search", "--db", filepath.Join(dir, "callset.duckdb"),
		"--pedigree", filepath.Join(dir, "pedigree.yaml"), request})
	assert.Equal(t, ExitError, code)
}

func TestConfigSet(t *testing.T) {
	dir := setup(t)

	require.Equal(t, ExitSuccess, run([]string{"config", "set", "search.num_results", "7"}))
	data, err := os.ReadFile(filepath.Join(dir, ".vibe-search.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "num_results: 7")

	viper.Reset()
	require.Equal(t, ExitSuccess, run([]string{"config", "get", "search.num_results"}))
	assert.Equal(t, 7, searchDefaults().NumResults)
	assert.Equal(t, ExitUsage, run([]string{"config", "get", "no.such.key"}))
}

func TestConfigSetValidatesKeys(t *testing.T) {
	dir := setup(t)

	for _, args := range [][]string{
		{"config", "set", "no.such.key", "1"},
		{"config", "set", "search.num_results", "0"},
		{"config", "set", "search.num_results", "many"},
		{"config", "set", "genome_version", "hg19"},
		{"config", "set", "log.level", "loud"},
	} {
		assert.Equal(t, ExitUsage, run(args), args)
	}
	_, err := os.Stat(filepath.Join(dir, ".vibe-search.yaml"))
	assert.True(t, os.IsNotExist(err), "rejected values are not written")

	require.Equal(t, ExitSuccess, run([]string{"config", "set", "genome_version", "GRCh37"}))
	require.Equal(t, ExitSuccess, run([]string{"config", "set", "log.level", "DEBUG"}))
	assert.Equal(t, "GRCh37", searchDefaults().GenomeVersion)
	assert.Equal(t, "debug", viper.GetString("log.level"))
}

func TestVersion(t *testing.T) {
	setup(t)
	assert.Equal(t, ExitSuccess, run([]string{"version"}))
}
