package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/linkrot/internal/model"
)

// ErrRunNotFound is returned when a run ID does not exist in the database.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB provides SQLite-based storage for check runs.
// It manages connection pooling and provides methods for saving and
// querying historical results.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are
// created; otherwise a missing database is an error.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "linkrot.db")

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

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
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

	// SQLite only supports one writer; multiple connections buy nothing
	// for this write-mostly workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		root           TEXT NOT NULL,
		started_at     TIMESTAMP NOT NULL,
		elapsed_ms     INTEGER NOT NULL,
		document_count INTEGER NOT NULL,
		used_links     INTEGER NOT NULL,
		defined_links  INTEGER NOT NULL,
		broken_count   INTEGER NOT NULL,
		error_count    INTEGER NOT NULL,
		report_json    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root, started_at);

	CREATE TABLE IF NOT EXISTS broken_links (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id    INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		href      TEXT NOT NULL,
		path      TEXT NOT NULL,
		paragraph TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_broken_links_run ON broken_links(run_id);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary is one row of check history.
type RunSummary struct {
	// ID is the run's database identifier.
	ID int64 `json:"id"`

	// Root is the site root that was checked.
	Root string `json:"root"`

	// StartedAt is when the check began.
	StartedAt time.Time `json:"started_at"`

	// DocumentCount is the number of documents scanned.
	DocumentCount int `json:"document_count"`

	// BrokenCount is the number of unresolved targets.
	BrokenCount int `json:"broken_count"`

	// ErrorCount is the number of documents that failed to scan.
	ErrorCount int `json:"error_count"`
}

// SaveCheckReport persists one finished check as a run and returns its ID.
func (hdb *HistoryDB) SaveCheckReport(ctx context.Context, report *model.CheckReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (root, started_at, elapsed_ms, document_count,
			used_links, defined_links, broken_count, error_count, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Root,
		report.StartedAt.UTC(),
		report.Elapsed.Milliseconds(),
		report.DocumentCount,
		report.UsedLinks,
		report.DefinedLinks,
		len(report.Broken),
		len(report.DocumentErrors),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for _, broken := range report.Broken {
		for _, src := range broken.Sources {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO broken_links (run_id, href, path, paragraph)
				VALUES (?, ?, ?, ?)`,
				runID, string(broken.Href), src.Path, src.Paragraph,
			); err != nil {
				return 0, fmt.Errorf("failed to insert broken link: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// ListRuns returns the check history for one site root, newest first.
func (hdb *HistoryDB) ListRuns(ctx context.Context, root string) ([]RunSummary, error) {
	rows, err := hdb.db.QueryContext(ctx, `
		SELECT id, root, started_at, document_count, broken_count, error_count
		FROM runs WHERE root = ? ORDER BY started_at DESC, id DESC`, root)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	return scanRunSummaries(rows)
}

// LatestRuns returns up to n most recent runs for a site root, newest
// first.
func (hdb *HistoryDB) LatestRuns(ctx context.Context, root string, n int) ([]RunSummary, error) {
	rows, err := hdb.db.QueryContext(ctx, `
		SELECT id, root, started_at, document_count, broken_count, error_count
		FROM runs WHERE root = ? ORDER BY started_at DESC, id DESC LIMIT ?`, root, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	return scanRunSummaries(rows)
}

// ListRoots returns every site root that has at least one saved run.
func (hdb *HistoryDB) ListRoots(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx,
		`SELECT DISTINCT root FROM runs ORDER BY root`)
	if err != nil {
		return nil, fmt.Errorf("failed to query roots: %w", err)
	}
	defer rows.Close()

	var roots []string
	for rows.Next() {
		var root string
		if err := rows.Scan(&root); err != nil {
			return nil, fmt.Errorf("failed to scan root: %w", err)
		}
		roots = append(roots, root)
	}
	return roots, rows.Err()
}

// GetRun loads the full report of one run.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*model.CheckReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx,
		`SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	var report model.CheckReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// BrokenHrefs returns the distinct broken targets recorded for one run.
func (hdb *HistoryDB) BrokenHrefs(ctx context.Context, runID int64) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx,
		`SELECT DISTINCT href FROM broken_links WHERE run_id = ? ORDER BY href`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query broken links: %w", err)
	}
	defer rows.Close()

	var hrefs []string
	for rows.Next() {
		var href string
		if err := rows.Scan(&href); err != nil {
			return nil, fmt.Errorf("failed to scan href: %w", err)
		}
		hrefs = append(hrefs, href)
	}
	return hrefs, rows.Err()
}

// scanRunSummaries reads RunSummary rows.
func scanRunSummaries(rows *sql.Rows) ([]RunSummary, error) {
	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Root, &r.StartedAt,
			&r.DocumentCount, &r.BrokenCount, &r.ErrorCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
