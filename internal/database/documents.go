package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nao1215/pdfharvest/internal/model"
)

// UpsertDocument inserts a document keyed by URL, or merges into the stored
// one. On conflict each field is replaced only when the new value is present;
// absent (nil) fields keep the stored value. It returns the document id.
func (s *StateDB) UpsertDocument(ctx context.Context, rec model.DocumentRecord) (int64, error) {
	query := `
	INSERT INTO documents (url, title, date_published, summary, category)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		title = COALESCE(excluded.title, documents.title),
		date_published = COALESCE(excluded.date_published, documents.date_published),
		summary = COALESCE(excluded.summary, documents.summary),
		category = COALESCE(excluded.category, documents.category)
	RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		rec.URL,
		rec.Title,
		rec.DatePublished,
		rec.Summary,
		rec.Category,
	).Scan(&id)
	if err != nil {
		return 0, wrap("upsert document", err)
	}

	return id, nil
}

const documentColumns = `id, url, title, date_published, summary, category, doc_hash, created_at`

// GetDocument returns the document with the given id, or ErrNotFound.
func (s *StateDB) GetDocument(ctx context.Context, id int64) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrap("get document", ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get document", err)
	}
	return doc, nil
}

// ListDocuments returns the most recently inserted documents first.
// A limit of zero or less returns all documents.
func (s *StateDB) ListDocuments(ctx context.Context, limit int) ([]model.Document, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, wrap("list documents", err)
	}
	defer rows.Close()

	docs := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, wrap("scan document", err)
		}
		docs = append(docs, *doc)
	}

	return docs, wrap("list documents", rows.Err())
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*model.Document, error) {
	var (
		doc                                      model.Document
		title, date, summary, category, docHash sql.NullString
		createdAt                                string
	)

	err := row.Scan(
		&doc.ID,
		&doc.URL,
		&title,
		&date,
		&summary,
		&category,
		&docHash,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Title = fromNullString(title)
	doc.DatePublished = fromNullString(date)
	doc.Summary = fromNullString(summary)
	doc.Category = fromNullString(category)
	doc.DocHash = fromNullString(docHash)
	doc.CreatedAt = parseTimestamp(createdAt)

	return &doc, nil
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return model.Ptr(ns.String)
}

func fromNullInt64(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	return model.Ptr(ni.Int64)
}
