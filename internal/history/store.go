package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"scenegate/internal/finding"
)

const driverName = "sqlite"

// Run is one recorded gate run.
type Run struct {
	ID          string
	Timestamp   time.Time
	FileCount   int
	ErrorCount  int
	WarnCount   int
	Disposition string
}

// Store persists gate runs and their findings so operators can audit
// what was rejected and why. Single writer; watch mode reuses one open
// store across re-runs.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun records a run and its findings, returning the new run id.
func (s *Store) SaveRun(fileCount int, result finding.RunResult, disposition string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	ts := time.Now().UTC().Format(time.RFC3339Nano)

	errorCount, warnCount := 0, 0
	for _, f := range result.Findings {
		switch f.Level {
		case finding.LevelError:
			errorCount++
		case finding.LevelWarn:
			warnCount++
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin run insert: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO runs (id, ts_utc, file_count, error_count, warn_count, disposition) VALUES (?, ?, ?, ?, ?, ?)`,
		id, ts, fileCount, errorCount, warnCount, disposition,
	); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("insert run: %w", err)
	}

	for seq, f := range result.Findings {
		if _, err := tx.Exec(
			`INSERT INTO run_findings (run_id, seq, file, line, col, level, code, message) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, seq, f.File, f.Line, f.Col, string(f.Level), f.Code, f.Message,
		); err != nil {
			_ = tx.Rollback()
			return "", fmt.Errorf("insert finding %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run insert: %w", err)
	}
	return id, nil
}

// RecentRuns returns the newest runs first, up to limit.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, ts_utc, file_count, error_count, warn_count, disposition FROM runs ORDER BY ts_utc DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ts string
		if err := rows.Scan(&r.ID, &ts, &r.FileCount, &r.ErrorCount, &r.WarnCount, &r.Disposition); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			r.Timestamp = parsed
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunFindings returns one run's findings in their original order.
func (s *Store) RunFindings(runID string) ([]finding.Finding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT file, line, col, level, code, message FROM run_findings WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run findings: %w", err)
	}
	defer rows.Close()

	var findings []finding.Finding
	for rows.Next() {
		var f finding.Finding
		var level string
		if err := rows.Scan(&f.File, &f.Line, &f.Col, &level, &f.Code, &f.Message); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		f.Level = finding.Level(level)
		findings = append(findings, f)
	}
	return findings, rows.Err()
}
