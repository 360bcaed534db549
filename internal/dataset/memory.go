package dataset

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/inodb/vibe-search/internal/variant"
)

// Memory is an in-memory Reader. It ignores the interval hint.
type Memory struct {
	rows      []*variant.Row
	genotypes map[string]GenotypeTable
	tables    map[string]map[uint32]map[string]bool
}

// NewMemory creates a Memory reader over rows and derives the prefilter
// tables from them. Row ids must be unique.
func NewMemory(rows []*variant.Row) *Memory {
	m := &Memory{
		rows:      rows,
		genotypes: make(map[string]GenotypeTable),
		tables: map[string]map[uint32]map[string]bool{
			TableHighAF:      {},
			TableClinVarPath: {},
		},
	}
	for _, r := range rows {
		if cols, ok := HighAFColumns(r); ok {
			m.tables[TableHighAF][r.ID] = cols
		}
		if cols, ok := ClinVarPathColumns(r); ok {
			m.tables[TableClinVarPath][r.ID] = cols
		}
	}
	return m
}

// SetGenotype stores a sample genotype for a row.
func (m *Memory) SetGenotype(rowID uint32, g variant.Genotype) {
	t, ok := m.genotypes[g.SampleID]
	if !ok {
		t = make(GenotypeTable)
		m.genotypes[g.SampleID] = t
	}
	t[rowID] = g
}

// Rows returns the rows of build.
func (m *Memory) Rows(_ context.Context, build string, _ []variant.Interval) ([]*variant.Row, error) {
	var out []*variant.Row
	for _, r := range m.rows {
		if r.GenomeVersion == "" || r.GenomeVersion == build {
			out = append(out, r)
		}
	}
	return out, nil
}

// SampleGenotypes returns the sample's stored entries.
func (m *Memory) SampleGenotypes(_ context.Context, sampleID string, rows *roaring.Bitmap) (GenotypeTable, error) {
	out := make(GenotypeTable)
	for id, g := range m.genotypes[sampleID] {
		if rows == nil || rows.Contains(id) {
			out[id] = g
		}
	}
	return out, nil
}

// FilterTable returns the row ids of an auxiliary table.
func (m *Memory) FilterTable(_ context.Context, table, column string) (*roaring.Bitmap, error) {
	t, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("unknown filter table %q", table)
	}
	bm := roaring.New()
	for id, cols := range t {
		if column == "" || cols[column] {
			bm.Add(id)
		}
	}
	return bm, nil
}
