package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// imported reports whether a file with the same fingerprint was already
// imported.
func (s *Store) imported(fp FileFingerprint) (bool, error) {
	var size int64
	var modTime time.Time
	err := s.db.QueryRow(`SELECT size, mod_time FROM imports WHERE path = ?`, fp.Path).Scan(&size, &modTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query import record: %w", err)
	}
	return size == fp.Size && modTime.Equal(fp.ModTime.UTC().Truncate(time.Microsecond)), nil
}

// recordImport stores the fingerprint of an imported file.
func (s *Store) recordImport(fp FileFingerprint) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO imports VALUES (?, ?, ?)`,
		fp.Path, fp.Size, fp.ModTime.UTC().Truncate(time.Microsecond))
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}
