// Package sqliteio persists cleaned frames and run history to SQLite.
package sqliteio

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
	iox "github.com/wdm0006/admitprep/pkg/io/ioutils"
)

// DefaultTable receives the cleaned rows when no table is configured.
const DefaultTable = "admissions_clean"

type Store struct {
	conn *sql.DB
}

func Open(path string) (*Store, error) {
	if err := iox.EnsureDir(path); err != nil {
		return nil, err
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	s := &Store{conn: conn}
	if err := s.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) init() error {
	_, err := s.conn.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  started_at TEXT NOT NULL,
  input TEXT NOT NULL,
  output TEXT NOT NULL,
  raw_rows INTEGER NOT NULL,
  final_rows INTEGER NOT NULL,
  retention REAL NOT NULL,
  summary_json TEXT
);`)
	return err
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlType(k ap.Kind) string {
	switch k {
	case ap.KindInt:
		return "INTEGER"
	case ap.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// WriteFrame replaces table with the contents of f in one transaction.
func (s *Store) WriteFrame(ctx context.Context, table string, f *ap.Frame) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := f.Schema()
	defs := make([]string, len(schema.Columns))
	idents := make([]string, len(schema.Columns))
	marks := make([]string, len(schema.Columns))
	for i, cs := range schema.Columns {
		idents[i] = quoteIdent(cs.Name)
		defs[i] = idents[i] + " " + sqlType(cs.Type)
		marks[i] = "?"
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdent(table)); err != nil {
		return err
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(idents, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	cols := make([]ap.Column, len(schema.Columns))
	for i, cs := range schema.Columns {
		cols[i], _ = f.ColumnByName(cs.Name)
	}
	args := make([]any, len(cols))
	for r := 0; r < f.Rows(); r++ {
		for i, c := range cols {
			args[i] = c.Value(r)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", r, err)
		}
	}
	return tx.Commit()
}

// CountRows returns the number of rows in table.
func (s *Store) CountRows(ctx context.Context, table string) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+quoteIdent(table)).Scan(&n)
	return n, err
}

// Run is one row of the run history.
type Run struct {
	ID          int64
	StartedAt   time.Time
	Input       string
	Output      string
	RawRows     int
	FinalRows   int
	Retention   float64
	SummaryJSON string
}

// RecordRun appends r to the run history and returns its id.
func (s *Store) RecordRun(ctx context.Context, r Run) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `
INSERT INTO runs (started_at, input, output, raw_rows, final_rows, retention, summary_json)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339Nano), r.Input, r.Output, r.RawRows, r.FinalRows, r.Retention, r.SummaryJSON)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Runs lists the run history, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT id, started_at, input, output, raw_rows, final_rows, retention, COALESCE(summary_json, '')
FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &started, &r.Input, &r.Output, &r.RawRows, &r.FinalRows, &r.Retention, &r.SummaryJSON); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TableSink adapts a Store to admitprep.Sink.
type TableSink struct {
	Store *Store
	Table string
	Ctx   context.Context
}

func (t *TableSink) Write(f *ap.Frame) error {
	ctx := t.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	table := t.Table
	if table == "" {
		table = DefaultTable
	}
	return t.Store.WriteFrame(ctx, table, f)
}

func (t *TableSink) Close() error { return nil }
