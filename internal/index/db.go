package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS runs (
    run_id      TEXT PRIMARY KEY,
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL DEFAULT '',
    stats       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS files (
    file_key     TEXT PRIMARY KEY,
    gz_path      TEXT NOT NULL,
    output_dir   TEXT NOT NULL,
    status       TEXT NOT NULL,
    error        TEXT NOT NULL DEFAULT '',
    mtime        INTEGER NOT NULL DEFAULT 0,
    size         INTEGER NOT NULL DEFAULT 0,
    run_id       TEXT NOT NULL DEFAULT '',
    processed_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS outputs (
    file_key     TEXT NOT NULL,
    seq          INTEGER NOT NULL,
    name         TEXT NOT NULL,
    path         TEXT NOT NULL,
    row_count    INTEGER NOT NULL DEFAULT 0,
    column_count INTEGER NOT NULL DEFAULT 0,
    has_header   INTEGER NOT NULL DEFAULT 0,
    truncated    INTEGER NOT NULL DEFAULT 0,
    warnings     INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (file_key, name)
);

CREATE TABLE IF NOT EXISTS output_columns (
    file_key    TEXT NOT NULL,
    name        TEXT NOT NULL,
    position    INTEGER NOT NULL,
    column_name TEXT NOT NULL,
    PRIMARY KEY (file_key, name, position)
);

CREATE INDEX IF NOT EXISTS output_columns_name ON output_columns(column_name);
`

const timeLayout = time.RFC3339

const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

func (d *DB) BeginRun(runID string, started time.Time) error {
	_, err := d.db.Exec(
		"INSERT INTO runs (run_id, started_at) VALUES (?, ?)",
		runID, started.UTC().Format(timeLayout),
	)
	return err
}

func (d *DB) FinishRun(runID string, finished time.Time, stats string) error {
	_, err := d.db.Exec(
		"UPDATE runs SET finished_at = ?, stats = ? WHERE run_id = ?",
		finished.UTC().Format(timeLayout), stats, runID,
	)
	return err
}

type RunRow struct {
	RunID      string
	StartedAt  string
	FinishedAt string
	Stats      string
}

// LastRun returns the most recently started run, or nil if there is none.
func (d *DB) LastRun() (*RunRow, error) {
	var r RunRow
	err := d.db.QueryRow(
		"SELECT run_id, started_at, finished_at, stats FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1",
	).Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.Stats)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type FileInfo struct {
	Status string
	Mtime  int64
	Size   int64
}

func (d *DB) GetFileInfo(fileKey string) (*FileInfo, error) {
	var info FileInfo
	err := d.db.QueryRow(
		"SELECT status, mtime, size FROM files WHERE file_key = ?",
		fileKey,
	).Scan(&info.Status, &info.Mtime, &info.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

type FileRow struct {
	FileKey     string
	GzPath      string
	OutputDir   string
	Status      string
	Error       string
	Mtime       int64
	Size        int64
	RunID       string
	ProcessedAt time.Time
	Outputs     []OutputRow
}

type OutputRow struct {
	FileKey     string
	Name        string
	Path        string
	Rows        int
	Columns     int
	HasHeader   bool
	Truncated   bool
	Warnings    int
	ColumnNames []string
}

// RecordFile replaces everything stored for f.FileKey with f and its outputs.
func (d *DB) RecordFile(f *FileRow) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM output_columns WHERE file_key = ?", f.FileKey); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM outputs WHERE file_key = ?", f.FileKey); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO files (file_key, gz_path, output_dir, status, error, mtime, size, run_id, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.FileKey, f.GzPath, f.OutputDir, f.Status, f.Error,
		f.Mtime, f.Size, f.RunID, f.ProcessedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return err
	}

	outStmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO outputs (file_key, seq, name, path, row_count, column_count, has_header, truncated, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer outStmt.Close()

	colStmt, err := tx.Prepare(
		"INSERT INTO output_columns (file_key, name, position, column_name) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return err
	}
	defer colStmt.Close()

	for i, o := range f.Outputs {
		if _, err := outStmt.Exec(
			f.FileKey, i, o.Name, o.Path, o.Rows, o.Columns,
			o.HasHeader, o.Truncated, o.Warnings,
		); err != nil {
			return fmt.Errorf("insert output %s: %w", o.Name, err)
		}
		// a later output may reuse a name; its columns replace the earlier ones
		if _, err := tx.Exec("DELETE FROM output_columns WHERE file_key = ? AND name = ?", f.FileKey, o.Name); err != nil {
			return err
		}
		for pos, c := range o.ColumnNames {
			if _, err := colStmt.Exec(f.FileKey, o.Name, pos, c); err != nil {
				return fmt.Errorf("insert column %s.%s: %w", o.Name, c, err)
			}
		}
	}

	return tx.Commit()
}

// OutputColumns is the select list ScanOutputs expects, against "outputs o".
const OutputColumns = "o.file_key, o.name, o.path, o.row_count, o.column_count, o.has_header, o.truncated, o.warnings"

// ListOutputs returns outputs for fileKey, or for all files when fileKey is
// empty, in the order they were written.
func (d *DB) ListOutputs(fileKey string) ([]OutputRow, error) {
	query := "SELECT " + OutputColumns + " FROM outputs o"
	var args []interface{}
	if fileKey != "" {
		query += " WHERE o.file_key = ?"
		args = append(args, fileKey)
	}
	query += " ORDER BY o.file_key, o.seq"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return ScanOutputs(rows)
}

// GetOutput returns one output with its column names, or nil if not found.
func (d *DB) GetOutput(fileKey, name string) (*OutputRow, error) {
	rows, err := d.db.Query(
		"SELECT "+OutputColumns+" FROM outputs o WHERE o.file_key = ? AND o.name = ?",
		fileKey, name,
	)
	if err != nil {
		return nil, err
	}
	outs, err := ScanOutputs(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(outs) == 0 {
		return nil, nil
	}

	o := outs[0]
	o.ColumnNames, err = d.columnNames(fileKey, name)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (d *DB) columnNames(fileKey, name string) ([]string, error) {
	rows, err := d.db.Query(
		"SELECT column_name FROM output_columns WHERE file_key = ? AND name = ? ORDER BY position",
		fileKey, name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// ScanOutputs reads rows selected with OutputColumns.
func ScanOutputs(rows *sql.Rows) ([]OutputRow, error) {
	var outs []OutputRow
	for rows.Next() {
		var o OutputRow
		if err := rows.Scan(
			&o.FileKey, &o.Name, &o.Path, &o.Rows, &o.Columns,
			&o.HasHeader, &o.Truncated, &o.Warnings,
		); err != nil {
			return nil, err
		}
		outs = append(outs, o)
	}
	return outs, rows.Err()
}

func (d *DB) FileCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&n)
	return n, err
}

func (d *DB) OutputCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM outputs").Scan(&n)
	return n, err
}

// FailedFiles lists files whose last processing attempt failed.
func (d *DB) FailedFiles() ([]FileRow, error) {
	rows, err := d.db.Query(
		"SELECT file_key, gz_path, output_dir, error, run_id, processed_at FROM files WHERE status = ? ORDER BY file_key",
		StatusFailed,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []FileRow
	for rows.Next() {
		f := FileRow{Status: StatusFailed}
		var ts string
		if err := rows.Scan(&f.FileKey, &f.GzPath, &f.OutputDir, &f.Error, &f.RunID, &ts); err != nil {
			return nil, err
		}
		f.ProcessedAt, _ = time.Parse(timeLayout, ts)
		files = append(files, f)
	}
	return files, rows.Err()
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// LikePattern wraps s for a case-insensitive substring LIKE ... ESCAPE '\'.
func LikePattern(s string) string {
	return "%" + escapeLike(s) + "%"
}
