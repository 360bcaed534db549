package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/goccy/go-json"
	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/inodb/vibe-search/internal/dataset"
	"github.com/inodb/vibe-search/internal/variant"
)

// maxPushdownIntervals bounds the number of intervals turned into a WHERE
// clause. Larger sets read the whole build.
const maxPushdownIntervals = 200

// filterColumns lists the boolean columns of each prefilter table.
var filterColumns = map[string][]string{
	dataset.TableHighAF:      {dataset.ColumnGT10Percent},
	dataset.TableClinVarPath: {dataset.ColumnPathogenic, dataset.ColumnLikelyPathogen},
}

// withAppender runs fn with an Appender on table.
func (s *Store) withAppender(ctx context.Context, table string, fn func(a *goduckdb.Appender) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	if err := fn(appender); err != nil {
		return err
	}
	return appender.Flush()
}

// WriteRows batch-inserts variant rows and derives their prefilter table
// entries. Duplicate row ids within the batch keep the first row.
func (s *Store) WriteRows(ctx context.Context, rows []*variant.Row) error {
	if len(rows) == 0 {
		return nil
	}

	seen := make(map[uint32]bool, len(rows))
	deduped := make([]*variant.Row, 0, len(rows))
	for _, r := range rows {
		if !seen[r.ID] {
			seen[r.ID] = true
			deduped = append(deduped, r)
		}
	}

	err := s.withAppender(ctx, "variants", func(a *goduckdb.Appender) error {
		for _, r := range deduped {
			blob, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encode variant %s: %w", r.VariantID(), err)
			}
			if err := a.AppendRow(
				r.ID, variant.NormalizeChrom(r.Chrom), r.Pos, r.Ref, r.Alt,
				r.GenomeVersion, r.Xpos(), string(blob),
			); err != nil {
				return fmt.Errorf("append variant: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = s.withAppender(ctx, dataset.TableHighAF, func(a *goduckdb.Appender) error {
		for _, r := range deduped {
			cols, ok := dataset.HighAFColumns(r)
			if !ok {
				continue
			}
			if err := a.AppendRow(r.ID, cols[dataset.ColumnGT10Percent]); err != nil {
				return fmt.Errorf("append high af row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.withAppender(ctx, dataset.TableClinVarPath, func(a *goduckdb.Appender) error {
		for _, r := range deduped {
			cols, ok := dataset.ClinVarPathColumns(r)
			if !ok {
				continue
			}
			if err := a.AppendRow(r.ID, cols[dataset.ColumnPathogenic], cols[dataset.ColumnLikelyPathogen]); err != nil {
				return fmt.Errorf("append clinvar path row: %w", err)
			}
		}
		return nil
	})
}

// WriteGenotypes batch-inserts sample genotypes for row ids.
func (s *Store) WriteGenotypes(ctx context.Context, rowIDs []uint32, genotypes []variant.Genotype) error {
	if len(rowIDs) != len(genotypes) {
		return fmt.Errorf("write genotypes: %d row ids for %d genotypes", len(rowIDs), len(genotypes))
	}
	if len(genotypes) == 0 {
		return nil
	}
	return s.withAppender(ctx, "genotypes", func(a *goduckdb.Appender) error {
		for i, g := range genotypes {
			if err := a.AppendRow(
				g.SampleID, rowIDs[i], int8(g.NumAlt),
				nullInt(g.DP), nullInt(g.GQ), nullFloat(g.AB),
			); err != nil {
				return fmt.Errorf("append genotype: %w", err)
			}
		}
		return nil
	})
}

// Count returns the number of variant rows.
func (s *Store) Count() (int64, error) {
	var count int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM variants").Scan(&count); err != nil {
		return 0, fmt.Errorf("count variants: %w", err)
	}
	return count, nil
}

// Rows implements dataset.Reader. Up to maxPushdownIntervals intervals are
// pushed into the query; rows outside them may still be returned.
func (s *Store) Rows(ctx context.Context, build string, intervals []variant.Interval) ([]*variant.Row, error) {
	query := `SELECT v.annotations, am.score
		FROM variants v
		LEFT JOIN (
			SELECT chrom, pos, ref, alt, max(am_pathogenicity) AS score
			FROM alphamissense WHERE genome_version = ?
			GROUP BY chrom, pos, ref, alt
		) am ON v.chrom = am.chrom AND v.pos = am.pos AND v.ref = am.ref AND v.alt = am.alt
		WHERE (v.genome_version = ? OR v.genome_version = '')`
	args := []any{build, build}
	if n := len(intervals); n > 0 && n <= maxPushdownIntervals {
		clauses := make([]string, n)
		for i, iv := range intervals {
			clauses[i] = "(v.chrom = ? AND v.pos BETWEEN ? AND ?)"
			args = append(args, variant.NormalizeChrom(iv.Chrom), iv.Start, iv.End)
		}
		query += " AND (" + strings.Join(clauses, " OR ") + ")"
	}
	query += " ORDER BY v.xpos, v.ref, v.alt"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	var out []*variant.Row
	for rows.Next() {
		var blob string
		var am sql.NullFloat64
		if err := rows.Scan(&blob, &am); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		var r variant.Row
		if err := json.Unmarshal([]byte(blob), &r); err != nil {
			return nil, fmt.Errorf("decode variant: %w", err)
		}
		if _, ok := r.Scores[ScoreAlphaMissense]; am.Valid && !ok {
			if r.Scores == nil {
				r.Scores = make(map[string]float64)
			}
			r.Scores[ScoreAlphaMissense] = am.Float64
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}
	s.logger.Debug("read variants",
		zap.String("genome_version", build),
		zap.Int("intervals", len(intervals)),
		zap.Int("rows", len(out)))
	return out, nil
}

// SampleGenotypes implements dataset.Reader.
func (s *Store) SampleGenotypes(ctx context.Context, sampleID string, rowIDs *roaring.Bitmap) (dataset.GenotypeTable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT variant_id, num_alt, dp, gq, ab FROM genotypes WHERE sample_id = ?`, sampleID)
	if err != nil {
		return nil, fmt.Errorf("query genotypes: %w", err)
	}
	defer rows.Close()

	table := make(dataset.GenotypeTable)
	for rows.Next() {
		var id uint32
		var numAlt int
		var dp, gq sql.NullInt64
		var ab sql.NullFloat64
		if err := rows.Scan(&id, &numAlt, &dp, &gq, &ab); err != nil {
			return nil, fmt.Errorf("scan genotype: %w", err)
		}
		if rowIDs != nil && !rowIDs.Contains(id) {
			continue
		}
		g := variant.Genotype{SampleID: sampleID, NumAlt: numAlt}
		if dp.Valid {
			v := int(dp.Int64)
			g.DP = &v
		}
		if gq.Valid {
			v := int(gq.Int64)
			g.GQ = &v
		}
		if ab.Valid {
			v := ab.Float64
			g.AB = &v
		}
		table[id] = g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genotypes: %w", err)
	}
	return table, nil
}

// FilterTable implements dataset.Reader.
func (s *Store) FilterTable(ctx context.Context, table, column string) (*roaring.Bitmap, error) {
	columns, ok := filterColumns[table]
	if !ok {
		return nil, fmt.Errorf("unknown filter table %q", table)
	}
	query := "SELECT variant_id FROM " + table
	if column != "" {
		known := false
		for _, c := range columns {
			known = known || c == column
		}
		if !known {
			return nil, fmt.Errorf("unknown column %q of %s", column, table)
		}
		query += " WHERE " + column
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	bm := roaring.New()
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		bm.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return bm, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int32(*v)
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
