package duckdb

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/inodb/vibe-search/internal/variant"
)

const importBatchSize = 10000

// ImportVariants loads newline-delimited JSON variant rows from path. A file
// whose fingerprint matches an earlier import is skipped. It returns the
// number of rows written.
func (s *Store) ImportVariants(ctx context.Context, path string) (int, error) {
	fp, err := StatFile(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	done, err := s.imported(fp)
	if err != nil {
		return 0, err
	}
	if done {
		s.logger.Info("variants already imported", zap.String("path", path))
		return 0, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReader(f))
	batch := make([]*variant.Row, 0, importBatchSize)
	total := 0
	for dec.More() {
		var r variant.Row
		if err := dec.Decode(&r); err != nil {
			return total, fmt.Errorf("decode variant %d: %w", total+len(batch)+1, err)
		}
		if r.ID == 0 {
			return total, fmt.Errorf("variant %s: missing id", r.VariantID())
		}
		batch = append(batch, &r)
		if len(batch) == importBatchSize {
			if err := s.WriteRows(ctx, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := s.WriteRows(ctx, batch); err != nil {
		return total, err
	}
	total += len(batch)

	if err := s.recordImport(fp); err != nil {
		return total, err
	}
	s.logger.Info("imported variants", zap.String("path", path), zap.Int("rows", total))
	return total, nil
}

// ImportGenotypes bulk-loads newline-delimited JSON genotypes from path using
// DuckDB's read_json. Each line holds sample_id, variant_id, num_alt and the
// optional dp, gq and ab fields.
func (s *Store) ImportGenotypes(ctx context.Context, path string) (int64, error) {
	fp, err := StatFile(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	done, err := s.imported(fp)
	if err != nil {
		return 0, err
	}
	if done {
		s.logger.Info("genotypes already imported", zap.String("path", path))
		return 0, nil
	}

	query := fmt.Sprintf(`INSERT OR REPLACE INTO genotypes
		SELECT sample_id, variant_id, num_alt, dp, gq, ab
		FROM read_json('%s', format='newline_delimited',
			columns={
				'sample_id': 'VARCHAR',
				'variant_id': 'UINTEGER',
				'num_alt': 'TINYINT',
				'dp': 'INTEGER',
				'gq': 'INTEGER',
				'ab': 'DOUBLE'
			})`, strings.ReplaceAll(path, "'", "''"))

	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("loading genotypes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count loaded genotypes: %w", err)
	}
	if err := s.recordImport(fp); err != nil {
		return n, err
	}
	s.logger.Info("imported genotypes", zap.String("path", path), zap.Int64("rows", n))
	return n, nil
}
