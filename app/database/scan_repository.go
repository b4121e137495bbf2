package database

import (
	"database/sql"
	"fmt"
)

// ScanRepository handles database operations for document scans
type ScanRepository struct {
	db *DB
}

// NewScanRepository creates a new scan repository
func NewScanRepository(db *DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// nullable maps an empty string to NULL so that absent change categories are
// stored as absent, not as empty text
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateScan inserts a scan record and returns it with its generated id and
// creation timestamp
func (r *ScanRepository) CreateScan(scan Scan) (Scan, error) {
	err := r.db.QueryRow(`
		INSERT INTO document_scans (
			document_id, changed, severity, change_summary, current_summary,
			additions, deletions, modifications, raw_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, scan.DocumentID, scan.Changed, scan.Severity,
		nullable(scan.ChangeSummary), nullable(scan.CurrentSummary),
		nullable(scan.Additions), nullable(scan.Deletions), nullable(scan.Modifications),
		nullable(scan.RawData)).Scan(&scan.ID, &scan.CreatedAt)
	if err != nil {
		return Scan{}, fmt.Errorf("failed to create scan: %w", err)
	}

	return scan, nil
}

const scanColumns = `
	id, document_id, created_at, changed, severity,
	COALESCE(change_summary, ''), COALESCE(current_summary, ''),
	COALESCE(additions, ''), COALESCE(deletions, ''), COALESCE(modifications, ''),
	COALESCE(raw_data, '')`

func scanRow(row interface{ Scan(...any) error }) (Scan, error) {
	var s Scan
	err := row.Scan(&s.ID, &s.DocumentID, &s.CreatedAt, &s.Changed, &s.Severity,
		&s.ChangeSummary, &s.CurrentSummary,
		&s.Additions, &s.Deletions, &s.Modifications, &s.RawData)
	return s, err
}

// GetLatestScan returns the most recent scan for a document, or nil when the
// document has never been scanned. Ties on created_at break on id, so the
// result is deterministic.
func (r *ScanRepository) GetLatestScan(documentID int64) (*Scan, error) {
	row := r.db.QueryRow(`
		SELECT `+scanColumns+`
		FROM document_scans
		WHERE document_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, documentID)

	s, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest scan: %w", err)
	}

	return &s, nil
}

// GetScans returns all scans for a document, newest first
func (r *ScanRepository) GetScans(documentID int64) ([]Scan, error) {
	rows, err := r.db.Query(`
		SELECT `+scanColumns+`
		FROM document_scans
		WHERE document_id = $1
		ORDER BY created_at DESC, id DESC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scans: %w", err)
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		s, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan rows: %w", err)
	}

	return scans, nil
}

// GetScanCount returns the number of scans recorded for a document
func (r *ScanRepository) GetScanCount(documentID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM document_scans WHERE document_id = $1`, documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count scans: %w", err)
	}
	return count, nil
}
