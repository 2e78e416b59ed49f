package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitescan/internal/model"
)

// CrawlDB provides SQLite-based storage for crawl run history.
// It manages connection pooling and provides methods for recording
// finished runs and reading them back for history and comparison.
//
// Design decision: We use a single database file for all targets rather
// than one file per target. This keeps cross-target listings a single
// query and simplifies backup/restore operations.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "sitescan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection sidesteps
	// SQLITE_BUSY between the run upsert and the report upsert.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Crawl runs store per-run metadata for history listings
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		target TEXT NOT NULL,
		state TEXT NOT NULL,
		pages_visited INTEGER DEFAULT 0,
		pages_failed INTEGER DEFAULT 0,
		pages_skipped INTEGER DEFAULT 0,
		started_at DATETIME,
		finished_at DATETIME,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_target ON crawl_runs(target);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- Crawl reports store the complete run result as JSON
	CREATE TABLE IF NOT EXISTS crawl_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		target TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_target ON crawl_reports(target);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is the per-run metadata row. It is what history listings
// display without loading the full JSON report.
type RunRecord struct {
	// ID is the row's database identifier.
	ID int64

	// RunID uniquely identifies the crawl run.
	RunID string

	// Target is the configured target name the run crawled.
	Target string

	// State is the run's terminal lifecycle state.
	State model.State

	// PagesVisited is the number of pages successfully fetched and parsed.
	PagesVisited int

	// PagesFailed is the number of URLs whose fetch or parse failed.
	PagesFailed int

	// PagesSkipped is the number of dequeued URLs rejected before fetching.
	PagesSkipped int

	// StartedAt is when the run was created.
	StartedAt time.Time

	// FinishedAt is when the run reached a terminal state.
	FinishedAt time.Time

	// Error is the message of the error that ended the run, if any.
	Error string
}

// Duration returns how long the run took, zero when the run never finished.
func (r *RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SaveReport records a finished run: the metadata row and the full JSON
// report, in one transaction. Saving the same run ID again updates both,
// so retried saves after a transient failure are safe.
func (cdb *CrawlDB) SaveReport(ctx context.Context, report *model.CrawlReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	runQuery := `
	INSERT INTO crawl_runs (run_id, target, state, pages_visited, pages_failed, pages_skipped, started_at, finished_at, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		state = excluded.state,
		pages_visited = excluded.pages_visited,
		pages_failed = excluded.pages_failed,
		pages_skipped = excluded.pages_skipped,
		started_at = excluded.started_at,
		finished_at = excluded.finished_at,
		error = excluded.error
	`
	if _, err := tx.ExecContext(ctx, runQuery,
		report.RunID,
		report.Target,
		report.State.String(),
		report.PagesVisited,
		report.PagesFailed,
		report.PagesSkipped,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		report.ErrorMessage,
	); err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}

	reportQuery := `
	INSERT INTO crawl_reports (run_id, target, report_json)
	VALUES (?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		target = excluded.target,
		report_json = excluded.report_json,
		timestamp = CURRENT_TIMESTAMP
	`
	if _, err := tx.ExecContext(ctx, reportQuery,
		report.RunID,
		report.Target,
		string(reportJSON),
	); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

// ListRuns returns run records, newest first. An empty target lists runs
// for every target; a limit of zero or less returns all matching runs.
func (cdb *CrawlDB) ListRuns(ctx context.Context, target string, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, run_id, target, state, pages_visited, pages_failed, pages_skipped, started_at, finished_at, error
	FROM crawl_runs
	`
	args := make([]interface{}, 0)

	if target != "" {
		query += " WHERE target = ?"
		args = append(args, target)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		rec, err := scanRunRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}

// GetRun retrieves one run record by its run ID.
// Returns nil if the run is not recorded.
func (cdb *CrawlDB) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	query := `
	SELECT id, run_id, target, state, pages_visited, pages_failed, pages_skipped, started_at, finished_at, error
	FROM crawl_runs
	WHERE run_id = ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rec, err := scanRunRecord(rows)
	if err != nil {
		return nil, err
	}
	return &rec, rows.Err()
}

// GetReport retrieves the full report for a run ID.
// Returns nil if the run is not recorded.
func (cdb *CrawlDB) GetReport(ctx context.Context, runID string) (*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_reports
	WHERE run_id = ?
	`

	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, runID).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetReportByID retrieves a report by its database row ID, the short
// identifier history listings display. Returns nil if no run has that ID.
func (cdb *CrawlDB) GetReportByID(ctx context.Context, id int64) (*model.CrawlReport, error) {
	query := `
	SELECT run_id FROM crawl_runs
	WHERE id = ?
	`

	var runID string
	err := cdb.db.QueryRowContext(ctx, query, id).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up run %d: %w", id, err)
	}

	return cdb.GetReport(ctx, runID)
}

// LatestReport retrieves the most recent report for a target.
// Returns nil if the target has no recorded runs.
func (cdb *CrawlDB) LatestReport(ctx context.Context, target string) (*model.CrawlReport, error) {
	runs, err := cdb.ListRuns(ctx, target, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return cdb.GetReport(ctx, runs[0].RunID)
}

// ListTargets returns every target with at least one recorded run.
func (cdb *CrawlDB) ListTargets(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT target FROM crawl_runs
	ORDER BY target
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// scanRunRecord reads one crawl_runs row from the current cursor position.
func scanRunRecord(rows *sql.Rows) (RunRecord, error) {
	var rec RunRecord
	var state string
	var started, finished, errMsg sql.NullString

	if err := rows.Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Target,
		&state,
		&rec.PagesVisited,
		&rec.PagesFailed,
		&rec.PagesSkipped,
		&started,
		&finished,
		&errMsg,
	); err != nil {
		return RunRecord{}, fmt.Errorf("failed to scan run record: %w", err)
	}

	rec.State = model.ParseState(state)
	if started.Valid {
		rec.StartedAt = parseTimestamp(started.String)
	}
	if finished.Valid {
		rec.FinishedAt = parseTimestamp(finished.String)
	}
	if errMsg.Valid {
		rec.Error = errMsg.String
	}
	return rec, nil
}

// formatTimestamp renders a time for storage. Zero times become NULL so
// unfinished runs read back with a zero FinishedAt.
func formatTimestamp(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
