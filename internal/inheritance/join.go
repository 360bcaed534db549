package inheritance

import (
	"context"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-search/internal/dataset"
	"github.com/inodb/vibe-search/internal/variant"
)

// joinConcurrency bounds parallel sample genotype reads.
const joinConcurrency = 8

// Genotypes is the outer join of per-sample genotype tables on row id.
type Genotypes struct {
	tables map[string]dataset.GenotypeTable
}

// NewGenotypes wraps already loaded sample tables.
func NewGenotypes(tables map[string]dataset.GenotypeTable) *Genotypes {
	return &Genotypes{tables: tables}
}

// Get returns the genotype of sampleID at rowID. Loaded samples without an
// entry are homozygous reference.
func (g *Genotypes) Get(sampleID string, rowID uint32) variant.Genotype {
	if gt, ok := g.tables[sampleID][rowID]; ok {
		return gt
	}
	return variant.HomRef(sampleID)
}

// Join loads the genotype tables of every sample in scope, restricted to
// rows. A nil rows bitmap loads every stored entry.
func (p *Plan) Join(ctx context.Context, reader dataset.Reader, rows *roaring.Bitmap) (*Genotypes, error) {
	sampleIDs := p.SampleIDs()
	tables := make(map[string]dataset.GenotypeTable, len(sampleIDs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(joinConcurrency)
	for _, id := range sampleIDs {
		g.Go(func() error {
			t, err := reader.SampleGenotypes(ctx, id, rows)
			if err != nil {
				return fmt.Errorf("load genotypes for %s: %w", id, err)
			}
			mu.Lock()
			tables[id] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.logger.Debug("joined sample genotypes", zap.Int("samples", len(sampleIDs)))
	return NewGenotypes(tables), nil
}
