package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
)

// FileName is the name of the state database inside the data directory.
const FileName = "pdfharvest.db"

// StateDB records documents, files and extracted tables, and tracks the
// downloaded/processed flags that make the pipeline resumable.
//
// Every method runs as one autocommitted statement (or a read followed by
// one), so a crash never leaves a half-written record behind.
type StateDB struct {
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Open opens or creates the state database in dbDir and ensures the schema.
func Open(dbDir string, opts Options) (*StateDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	db, err := OpenSQLite(dbPath, opts)
	if err != nil {
		return nil, err
	}

	sdb := &StateDB{
		db:     db,
		dbPath: dbPath,
	}

	if err := sdb.EnsureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sdb, nil
}

// Close closes the database connection.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *StateDB) Path() string {
	return s.dbPath
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT,
	url TEXT UNIQUE NOT NULL,
	date_published TEXT,
	summary TEXT,
	category TEXT,
	doc_hash TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_url TEXT UNIQUE NOT NULL,
	file_path TEXT,
	file_hash TEXT,
	downloaded INTEGER NOT NULL DEFAULT 0,
	processed INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS "tables" (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id INTEGER NOT NULL REFERENCES documents(id),
	source_file_id INTEGER NOT NULL REFERENCES files(id),
	table_json TEXT NOT NULL,
	n_rows INTEGER NOT NULL,
	n_cols INTEGER NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_files_processed ON files(processed, id);
CREATE INDEX IF NOT EXISTS idx_files_hash ON files(file_hash);
CREATE INDEX IF NOT EXISTS idx_tables_document ON "tables"(document_id);
`

// fileMigrations are columns added to files after the first release.
// Older databases gain them on open.
var fileMigrations = []struct {
	column string
	ddl    string
}{
	{column: "document_id", ddl: `ALTER TABLE files ADD COLUMN document_id INTEGER REFERENCES documents(id)`},
	{column: "file_type", ddl: `ALTER TABLE files ADD COLUMN file_type TEXT`},
	{column: "pages", ddl: `ALTER TABLE files ADD COLUMN pages INTEGER`},
}

// EnsureSchema creates missing tables and columns. It is idempotent.
func (s *StateDB) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return wrap("create schema", err)
	}

	columns, err := s.columns(ctx, "files")
	if err != nil {
		return wrap("inspect schema", err)
	}

	for _, m := range fileMigrations {
		if columns[m.column] {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.ddl); err != nil {
			return wrap(fmt.Sprintf("add column files.%s", m.column), err)
		}
	}

	return nil
}

// columns returns the column names of table.
func (s *StateDB) columns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns[strings.ToLower(name)] = true
	}
	return columns, rows.Err()
}
