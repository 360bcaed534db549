package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ScoreAlphaMissense is the row score filled from the alphamissense table.
const ScoreAlphaMissense = "alphamissense"

// ImportAlphaMissense replaces the alphamissense table with the official
// AlphaMissense TSV at path (gzipped or plain). The file has 3 comment lines,
// then a header:
//
//	#CHROM  POS  REF  ALT  genome  uniprot_id  transcript_id  protein_variant  am_pathogenicity  am_class
//
// Rows read afterwards carry the score unless their own annotations set one.
func (s *Store) ImportAlphaMissense(ctx context.Context, path string) (int64, error) {
	fp, err := StatFile(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	done, err := s.imported(fp)
	if err != nil {
		return 0, err
	}
	if done {
		s.logger.Info("alphamissense already imported", zap.String("path", path))
		return 0, nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM alphamissense`); err != nil {
		return 0, fmt.Errorf("clear alphamissense: %w", err)
	}
	// One line per transcript; scores are identical across them.
	query := fmt.Sprintf(`INSERT INTO alphamissense
		SELECT DISTINCT
			CASE column4 WHEN 'hg19' THEN 'GRCh37' ELSE 'GRCh38' END,
			regexp_replace(column0, '^chr', ''),
			column1, column2, column3,
			CAST(column8 AS FLOAT), column9
		FROM read_csv('%s', delim='\t', header=false, skip=4,
			columns={
				'column0': 'VARCHAR',
				'column1': 'BIGINT',
				'column2': 'VARCHAR',
				'column3': 'VARCHAR',
				'column4': 'VARCHAR',
				'column5': 'VARCHAR',
				'column6': 'VARCHAR',
				'column7': 'VARCHAR',
				'column8': 'VARCHAR',
				'column9': 'VARCHAR'
			})`, strings.ReplaceAll(path, "'", "''"))
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("load alphamissense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count alphamissense rows: %w", err)
	}

	if err := s.recordImport(fp); err != nil {
		return n, err
	}
	s.logger.Info("imported alphamissense", zap.String("path", path), zap.Int64("rows", n))
	return n, nil
}

// AlphaMissenseClass returns the class of a scored variant, or "" when the
// variant is not in the table.
func (s *Store) AlphaMissenseClass(ctx context.Context, build, chrom string, pos int64, ref, alt string) (string, error) {
	var class string
	err := s.db.QueryRowContext(ctx,
		`SELECT am_class FROM alphamissense
		WHERE genome_version = ? AND chrom = ? AND pos = ? AND ref = ? AND alt = ?
		LIMIT 1`, build, chrom, pos, ref, alt).Scan(&class)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("lookup alphamissense: %w", err)
	}
	return class, nil
}
