// Package query runs variant searches: location, prefilter, annotation
// filter, genotype filter, compound-het pairing, sort and pagination.
package query

import (
	"context"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inodb/vibe-search/internal/dataset"
	"github.com/inodb/vibe-search/internal/filter"
	"github.com/inodb/vibe-search/internal/inheritance"
	"github.com/inodb/vibe-search/internal/output"
	"github.com/inodb/vibe-search/internal/pedigree"
	"github.com/inodb/vibe-search/internal/prefilter"
	"github.com/inodb/vibe-search/internal/search"
	"github.com/inodb/vibe-search/internal/sortkey"
	"github.com/inodb/vibe-search/internal/variant"
)

// Engine serves searches over one dataset. It is safe for concurrent use;
// every search gets its own prefilter cache.
type Engine struct {
	reader   dataset.Reader
	pedigree pedigree.Provider
	logger   *zap.Logger
}

// NewEngine creates an engine reading variants from reader and families from
// provider.
func NewEngine(reader dataset.Reader, provider pedigree.Provider) *Engine {
	return &Engine{reader: reader, pedigree: provider, logger: zap.NewNop()}
}

// SetLogger sets the logger for searches.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Search runs c and returns one page of results. Invalid criteria fail with
// a typed error before any rows are read; on error no results are returned.
func (e *Engine) Search(ctx context.Context, c *search.Criteria) (*output.Results, error) {
	q, err := e.newQuery(ctx, c)
	if err != nil {
		return nil, err
	}
	return q.run(ctx)
}

// query is the state of one search.
type query struct {
	id       string
	criteria *search.Criteria
	reader   dataset.Reader
	filters  *filter.Result
	plan     *inheritance.Plan
	sorter   *sortkey.Composer
	cache    *prefilter.Cache
	logger   *zap.Logger
}

// newQuery validates c and builds every filter stage.
func (e *Engine) newQuery(ctx context.Context, c *search.Criteria) (*query, error) {
	id := uuid.NewString()
	logger := e.logger.With(zap.String("query_id", id))

	if c.DatasetType != search.DatasetSNVIndel {
		return nil, search.NewUnsupportedOperationError("search of %s datasets", c.DatasetType)
	}
	if c.GenomeVersion != variant.GRCh37 && c.GenomeVersion != variant.GRCh38 {
		return nil, search.NewInvalidSearchError("unsupported genome version %q", c.GenomeVersion)
	}

	filters, err := filter.Build(c)
	if err != nil {
		return nil, err
	}
	families, err := e.pedigree.Families(ctx, c.FamilyGuids)
	if err != nil {
		return nil, err
	}
	plan, err := inheritance.NewPlan(c, families, filters.ClinVarPath)
	if err != nil {
		return nil, err
	}
	plan.SetLogger(logger)

	omim := make(map[string]bool, len(c.OmimGeneIDs))
	for _, g := range c.OmimGeneIDs {
		omim[g] = true
	}
	sorter, err := sortkey.New(c.Sort, sortkey.Context{
		OmimGeneIDs: omim,
		GeneRanks:   c.GeneRanks,
		FamilyRanks: sortkey.FamilyRanks(plan.FamilyGuids()),
	})
	if err != nil {
		return nil, err
	}

	cache := prefilter.NewCache()
	cache.SetLogger(logger)
	logger.Debug("built search filters",
		zap.String("predicate", filters.Primary.String()),
		zap.String("mode", plan.Mode),
		zap.Strings("families", plan.FamilyGuids()))

	return &query{
		id:       id,
		criteria: c,
		reader:   e.reader,
		filters:  filters,
		plan:     plan,
		sorter:   sorter,
		cache:    cache,
		logger:   logger,
	}, nil
}

// entry is a sortable result before formatting.
type entry struct {
	key    sortkey.Key
	single *inheritance.Match
	pair   *inheritance.Pair
}

func (q *query) run(ctx context.Context) (*output.Results, error) {
	c := q.criteria

	rows, err := q.reader.Rows(ctx, c.GenomeVersion, q.filters.Intervals)
	if err != nil {
		return nil, fmt.Errorf("read variants: %w", err)
	}
	q.logger.Debug("location", zap.Int("rows", len(rows)))

	rows, err = q.prefilter(ctx, rows)
	if err != nil {
		return nil, err
	}
	q.logger.Debug("prefilter", zap.Int("rows", len(rows)))

	// Annotation filter
	comphet := q.plan.IncludesCompoundHets()
	var singles []*variant.Row
	var candidates []inheritance.Candidate
	ids := roaring.New()
	for _, r := range rows {
		primary := q.filters.Primary.Eval(r)
		secondary := primary
		if comphet && q.filters.Secondary != nil {
			secondary = q.filters.Secondary.Eval(r)
		}
		if primary {
			singles = append(singles, r)
		}
		if comphet && (primary || secondary) {
			candidates = append(candidates, inheritance.Candidate{Row: r, Primary: primary, Secondary: secondary})
		} else if !primary {
			continue
		}
		ids.Add(r.ID)
	}
	q.logger.Debug("annotation filter", zap.Uint64("rows", ids.GetCardinality()))

	// Genotype filter
	gts, err := q.plan.Join(ctx, q.reader, ids)
	if err != nil {
		return nil, err
	}
	var entries []entry
	if q.plan.IncludesSingles() {
		for _, m := range q.plan.Filter(singles, gts) {
			entries = append(entries, entry{key: q.sorter.KeyFor(m.Row, m.FamilyGuids), single: m})
		}
	}
	if comphet {
		var geneScope map[string]bool
		if q.filters.Side != nil {
			geneScope = q.filters.Side.GeneIDs
		}
		for _, p := range q.plan.CompoundHets(candidates, gts, geneScope) {
			key := sortkey.Pair(
				q.sorter.KeyFor(p.First.Row, p.First.FamilyGuids),
				q.sorter.KeyFor(p.Second.Row, p.Second.FamilyGuids),
			)
			entries = append(entries, entry{key: key, pair: p})
		}
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		return sortkey.Compare(a.key, b.key)
	})

	res := &output.Results{
		QueryID:      q.id,
		TotalResults: len(entries),
		Page:         c.Page,
		NumResults:   c.NumResults,
		Records:      []output.Record{},
	}
	formatter := output.NewFormatter(q.filters.Side)
	for _, e := range paginate(entries, c.Page, c.NumResults) {
		if e.pair != nil {
			res.Records = append(res.Records, formatter.Pair(e.pair))
			continue
		}
		res.Records = append(res.Records, formatter.Single(e.single))
	}

	q.logger.Info("search complete",
		zap.Int("families", len(q.plan.Families)),
		zap.String("sort", q.sorter.Sort()),
		zap.Int("total", res.TotalResults),
		zap.Int("returned", len(res.Records)))
	return res, nil
}

// prefilter drops rows in the high allele frequency exclusion set.
func (q *query) prefilter(ctx context.Context, rows []*variant.Row) ([]*variant.Row, error) {
	set := prefilter.NewSet(q.cache, q.reader, q.criteria)
	excluded, err := set.HighAFExclusion(ctx)
	if err != nil {
		return nil, fmt.Errorf("build prefilter: %w", err)
	}
	if excluded == nil || excluded.IsEmpty() {
		return rows, nil
	}
	kept := rows[:0:0]
	for _, r := range rows {
		if !excluded.Contains(r.ID) {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

func paginate(entries []entry, page, numResults int) []entry {
	start := (page - 1) * numResults
	if start >= len(entries) {
		return nil
	}
	end := min(start+numResults, len(entries))
	return entries[start:end]
}
