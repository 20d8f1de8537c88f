package database

import (
	"context"
	"encoding/json"

	"github.com/nao1215/pdfharvest/internal/model"
)

// InsertTable stores a table extracted from a file. An empty table is a
// no-op and returns id 0. n_cols is the width of the widest row; rows are
// stored as-is, never padded.
func (s *StateDB) InsertTable(ctx context.Context, documentID, fileID int64, rows model.Table) (int64, error) {
	if rows.IsEmpty() {
		return 0, nil
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return 0, wrap("serialize table", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO "tables" (document_id, source_file_id, table_json, n_rows, n_cols) VALUES (?, ?, ?, ?, ?)`,
		documentID, fileID, string(data), rows.NumRows(), rows.NumCols(),
	)
	if err != nil {
		return 0, wrap("insert table", err)
	}

	id, err := result.LastInsertId()
	return id, wrap("insert table", err)
}

// ListTables returns the tables stored for a document in insertion order.
func (s *StateDB) ListTables(ctx context.Context, documentID int64) ([]model.ExtractedTable, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, document_id, source_file_id, table_json, n_rows, n_cols, created_at
	FROM "tables"
	WHERE document_id = ?
	ORDER BY id ASC
	`, documentID)
	if err != nil {
		return nil, wrap("list tables", err)
	}
	defer rows.Close()

	tables := make([]model.ExtractedTable, 0)
	for rows.Next() {
		var (
			t         model.ExtractedTable
			data      string
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.DocumentID, &t.FileID, &data, &t.NRows, &t.NCols, &createdAt); err != nil {
			return nil, wrap("scan table", err)
		}
		if err := json.Unmarshal([]byte(data), &t.Rows); err != nil {
			return nil, wrap("parse table", err)
		}
		t.CreatedAt = parseTimestamp(createdAt)
		tables = append(tables, t)
	}

	return tables, wrap("list tables", rows.Err())
}

// Stats returns row counts of the store.
func (s *StateDB) Stats(ctx context.Context) (model.StoreStats, error) {
	var stats model.StoreStats

	err := s.db.QueryRowContext(ctx, `
	SELECT
		(SELECT COUNT(*) FROM documents),
		(SELECT COUNT(*) FROM files),
		(SELECT COUNT(*) FROM files WHERE downloaded = 1),
		(SELECT COUNT(*) FROM files WHERE processed = 1),
		(SELECT COUNT(*) FROM "tables")
	`).Scan(&stats.Documents, &stats.Files, &stats.Downloaded, &stats.Processed, &stats.Tables)
	if err != nil {
		return model.StoreStats{}, wrap("count records", err)
	}

	return stats, nil
}
