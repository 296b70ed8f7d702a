// Package ledger keeps a local record of what this machine submitted and downloaded.
// The remote service stays the source of truth for job state.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
	path string
}

type Submission struct {
	ID          int64
	JobID       string
	Name        string
	Comment     string
	Query       string
	Expiration  string
	StatusCode  int
	Response    string
	SubmittedAt time.Time
}

type Download struct {
	ID           int64
	JobID        string
	Name         string
	URL          string
	Path         string
	SizeBytes    int64
	DownloadedAt time.Time
}

func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// One writer keeps ":memory:" databases on a single connection.
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return sqlDB, nil
}

// Open opens or creates the ledger at path.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger dir: %w", err)
		}
	}
	sqlDB, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &DB{DB: sqlDB, path: path}, nil
}

func (db *DB) Path() string {
	return db.path
}

func (db *DB) RecordSubmission(s Submission) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO submissions (job_id, name, comment, query, expiration, status_code, response, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, nullable(s.JobID), s.Name, s.Comment, s.Query, s.Expiration, s.StatusCode, s.Response, stamp(s.SubmittedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to record submission: %w", err)
	}
	return res.LastInsertId()
}

func (db *DB) RecordDownload(d Download) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO downloads (job_id, name, url, path, size_bytes, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.JobID, d.Name, d.URL, d.Path, d.SizeBytes, stamp(d.DownloadedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to record download: %w", err)
	}
	return res.LastInsertId()
}

// Submissions returns the newest submissions first. limit <= 0 means all.
func (db *DB) Submissions(limit int) ([]Submission, error) {
	q := `
		SELECT submission_id, COALESCE(job_id, ''), name, COALESCE(comment, ''), query,
		       COALESCE(expiration, ''), COALESCE(status_code, 0), COALESCE(response, ''), submitted_at
		FROM submissions
		ORDER BY submitted_at DESC, submission_id DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.JobID, &s.Name, &s.Comment, &s.Query, &s.Expiration, &s.StatusCode, &s.Response, &s.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Downloads returns the downloads recorded for jobID, newest first.
func (db *DB) Downloads(jobID string) ([]Download, error) {
	rows, err := db.Query(`
		SELECT download_id, job_id, COALESCE(name, ''), url, path, size_bytes, downloaded_at
		FROM downloads
		WHERE job_id = ?
		ORDER BY downloaded_at DESC, download_id DESC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	defer rows.Close()

	var out []Download
	for rows.Next() {
		var d Download
		if err := rows.Scan(&d.ID, &d.JobID, &d.Name, &d.URL, &d.Path, &d.SizeBytes, &d.DownloadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
