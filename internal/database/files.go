package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nao1215/pdfharvest/internal/model"
)

const fileColumns = `id, file_url, file_path, file_hash, document_id, downloaded, processed, file_type, pages, created_at`

// RegisterFile inserts a file keyed by URL, or leaves an existing one
// untouched, and returns its id. The document association is only written on
// first insertion; registering a known URL again never attaches a document.
func (s *StateDB) RegisterFile(ctx context.Context, documentID *int64, url string) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (file_url, document_id) VALUES (?, ?) ON CONFLICT(file_url) DO NOTHING`,
		url, documentID,
	)
	if err != nil {
		return 0, wrap("register file", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM files WHERE file_url = ?`, url).Scan(&id); err != nil {
		return 0, wrap("register file", err)
	}
	return id, nil
}

// ListUnprocessed returns up to limit files with processed=false, oldest
// first (ascending id). A limit of zero or less returns all of them.
func (s *StateDB) ListUnprocessed(ctx context.Context, limit int) ([]model.File, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryFiles(ctx, "list unprocessed files",
		`SELECT `+fileColumns+` FROM files WHERE processed = 0 ORDER BY id ASC LIMIT ?`, limit)
}

// ListFiles returns every file in ascending id order.
func (s *StateDB) ListFiles(ctx context.Context) ([]model.File, error) {
	return s.queryFiles(ctx, "list files", `SELECT `+fileColumns+` FROM files ORDER BY id ASC`)
}

// GetFile returns the file with the given id, or ErrNotFound.
func (s *StateDB) GetFile(ctx context.Context, id int64) (*model.File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)

	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrap("get file", ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get file", err)
	}
	return f, nil
}

// FindFileByHash returns another downloaded file with the same content hash,
// or nil when there is none. The file with id excludeID is ignored.
func (s *StateDB) FindFileByHash(ctx context.Context, hash string, excludeID int64) (*model.File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE file_hash = ? AND id != ? ORDER BY id ASC LIMIT 1`,
		hash, excludeID,
	)

	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("find file by hash", err)
	}
	return f, nil
}

// FindFileByPath returns another file whose download was recorded at path,
// or nil when there is none. The file with id excludeID is ignored.
func (s *StateDB) FindFileByPath(ctx context.Context, path string, excludeID int64) (*model.File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE file_path = ? AND id != ? ORDER BY id ASC LIMIT 1`,
		path, excludeID,
	)

	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("find file by path", err)
	}
	return f, nil
}

// FileDocumentID returns the document a file belongs to, or nil when the
// file was registered without one.
func (s *StateDB) FileDocumentID(ctx context.Context, fileID int64) (*int64, error) {
	var docID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT document_id FROM files WHERE id = ?`, fileID).Scan(&docID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrap("get file document", ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get file document", err)
	}
	return fromNullInt64(docID), nil
}

// RecordDownload stores the local path and content hash and sets
// downloaded=true. Repeating it with the same values changes nothing.
func (s *StateDB) RecordDownload(ctx context.Context, fileID int64, path, hash string) error {
	return s.updateOne(ctx, "record download",
		`UPDATE files SET file_path = ?, file_hash = ?, downloaded = 1 WHERE id = ?`,
		path, hash, fileID,
	)
}

// UpdateFilePath replaces the stored local path.
func (s *StateDB) UpdateFilePath(ctx context.Context, fileID int64, path string) error {
	return s.updateOne(ctx, "update file path",
		`UPDATE files SET file_path = ? WHERE id = ?`,
		path, fileID,
	)
}

// RecordFileMetadata merges the file type and page count. Absent (nil)
// values keep what is stored.
func (s *StateDB) RecordFileMetadata(ctx context.Context, fileID int64, fileType *string, pages *int) error {
	return s.updateOne(ctx, "record file metadata",
		`UPDATE files SET file_type = COALESCE(?, file_type), pages = COALESCE(?, pages) WHERE id = ?`,
		fileType, pages, fileID,
	)
}

// MarkProcessed sets processed=true. The flag is never cleared.
// It fails with ErrNotDownloaded when the file has not been downloaded.
func (s *StateDB) MarkProcessed(ctx context.Context, fileID int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE files SET processed = 1 WHERE id = ? AND downloaded = 1`, fileID)
	if err != nil {
		return wrap("mark processed", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return wrap("mark processed", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.GetFile(ctx, fileID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return wrap("mark processed", ErrNotFound)
		}
		return wrap("mark processed", err)
	}
	return wrap("mark processed", ErrNotDownloaded)
}

// updateOne runs an UPDATE that must touch exactly one row.
func (s *StateDB) updateOne(ctx context.Context, op, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrap(op, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return wrap(op, ErrNotFound)
	}
	return nil
}

func (s *StateDB) queryFiles(ctx context.Context, op, query string, args ...any) ([]model.File, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	files := make([]model.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, wrap("scan file", err)
		}
		files = append(files, *f)
	}

	return files, wrap(op, rows.Err())
}

func scanFile(row scanner) (*model.File, error) {
	var (
		f               model.File
		path, hash, typ sql.NullString
		docID, pages    sql.NullInt64
		createdAt       string
	)

	err := row.Scan(
		&f.ID,
		&f.URL,
		&path,
		&hash,
		&docID,
		&f.Downloaded,
		&f.Processed,
		&typ,
		&pages,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	f.Path = fromNullString(path)
	f.Hash = fromNullString(hash)
	f.DocumentID = fromNullInt64(docID)
	f.FileType = fromNullString(typ)
	if pages.Valid {
		f.Pages = model.Ptr(int(pages.Int64))
	}
	f.CreatedAt = parseTimestamp(createdAt)

	return &f, nil
}
