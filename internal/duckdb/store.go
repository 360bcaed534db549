// Package duckdb stores variant rows, sparse sample genotypes and the
// prefilter tables in DuckDB. Row annotations are kept as a JSON blob next to
// the key columns used for location pushdown.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// Store manages a DuckDB connection holding one variant dataset.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, logger: zap.NewNop()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// SetLogger sets the logger for import and read operations.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS variants (
			id UINTEGER PRIMARY KEY,
			chrom VARCHAR,
			pos BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			genome_version VARCHAR,
			xpos BIGINT,
			annotations VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS genotypes (
			sample_id VARCHAR,
			variant_id UINTEGER,
			num_alt TINYINT,
			dp INTEGER,
			gq INTEGER,
			ab DOUBLE,
			PRIMARY KEY (sample_id, variant_id)
		)`,
		`CREATE TABLE IF NOT EXISTS high_af_variants (
			variant_id UINTEGER PRIMARY KEY,
			is_gt_10_percent BOOLEAN
		)`,
		`CREATE TABLE IF NOT EXISTS clinvar_path_variants (
			variant_id UINTEGER PRIMARY KEY,
			is_pathogenic BOOLEAN,
			is_likely_pathogenic BOOLEAN
		)`,
		`CREATE TABLE IF NOT EXISTS alphamissense (
			genome_version VARCHAR,
			chrom VARCHAR,
			pos BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			am_pathogenicity FLOAT,
			am_class VARCHAR
		)`,
		`CREATE INDEX IF NOT EXISTS idx_am_lookup ON alphamissense (chrom, pos, ref, alt)`,
		`CREATE TABLE IF NOT EXISTS imports (
			path VARCHAR PRIMARY KEY,
			size BIGINT,
			mod_time TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
