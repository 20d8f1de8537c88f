package index

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nao1215/pdfharvest/internal/database"
)

// FileName is the name of the local index inside the data directory.
const FileName = "index.db"

// Indexer ingests extracted text for later retrieval.
type Indexer interface {
	// Index stores text under source. Blank text is a no-op.
	Index(ctx context.Context, text, source string) error
}

// Retriever returns the passages most relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]Passage, error)
}

// Passage is a retrieved chunk.
type Passage struct {
	// Source identifies the text the chunk came from.
	Source string `json:"source"`

	// Seq is the position of the chunk within its source.
	Seq int `json:"seq"`

	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Nop is an Indexer that discards everything.
type Nop struct{}

// Index implements Indexer.
func (Nop) Index(context.Context, string, string) error { return nil }

// LocalIndex is a lexical TF-IDF index over chunked text, stored in its own
// SQLite file.
type LocalIndex struct {
	db      *sql.DB
	chunker *Chunker
	logger  *slog.Logger
}

// Option configures a LocalIndex.
type Option func(*LocalIndex)

// WithChunking sets chunk size and overlap in runes.
func WithChunking(size, overlap int) Option {
	return func(l *LocalIndex) {
		l.chunker = NewChunker(size, overlap)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *LocalIndex) {
		l.logger = logger
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	seq INTEGER NOT NULL,
	content TEXT NOT NULL,
	n_terms INTEGER NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);

CREATE TABLE IF NOT EXISTS postings (
	term TEXT NOT NULL,
	chunk_id INTEGER NOT NULL REFERENCES chunks(id),
	tf INTEGER NOT NULL,
	PRIMARY KEY (term, chunk_id)
);
CREATE INDEX IF NOT EXISTS idx_postings_chunk ON postings(chunk_id);
`

// Open opens or creates the index in dir.
func Open(dir string, opts ...Option) (*LocalIndex, error) {
	db, err := database.OpenSQLite(filepath.Join(dir, FileName), database.DefaultOptions())
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create index schema: %w", err)
	}

	l := &LocalIndex{
		db:      db,
		chunker: NewChunker(DefaultChunkSize, DefaultChunkOverlap),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = slog.Default()
	}

	return l, nil
}

// Close closes the index.
func (l *LocalIndex) Close() error {
	return l.db.Close()
}

// Index chunks text and stores the chunks under source, replacing any chunks
// stored for the same source before. Blank text is a no-op.
func (l *LocalIndex) Index(ctx context.Context, text, source string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	chunks := l.chunker.Split(text)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteSource(ctx, tx, source); err != nil {
		return err
	}

	for seq, chunk := range chunks {
		tokens := Tokenize(chunk)

		result, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (source, seq, content, n_terms) VALUES (?, ?, ?, ?)`,
			source, seq, chunk, len(tokens))
		if err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
		chunkID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}

		for term, tf := range termFrequencies(tokens) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO postings (term, chunk_id, tf) VALUES (?, ?, ?)`,
				term, chunkID, tf); err != nil {
				return fmt.Errorf("failed to insert posting: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index transaction: %w", err)
	}

	l.logger.Debug("indexed", "source", source, "chunks", len(chunks))
	return nil
}

func deleteSource(ctx context.Context, tx *sql.Tx, source string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM postings WHERE chunk_id IN (SELECT id FROM chunks WHERE source = ?)`, source); err != nil {
		return fmt.Errorf("failed to delete postings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source = ?`, source); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// Retrieve ranks chunks by TF-IDF against the question's terms and returns
// the k best. A question without index terms returns nothing.
func (l *LocalIndex) Retrieve(ctx context.Context, question string, k int) ([]Passage, error) {
	terms := slices.Compact(slices.Sorted(slices.Values(Tokenize(question))))
	if len(terms) == 0 || k <= 0 {
		return []Passage{}, nil
	}

	var total int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if total == 0 {
		return []Passage{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(terms)), ",")
	args := make([]any, len(terms))
	for i, t := range terms {
		args[i] = t
	}

	rows, err := l.db.QueryContext(ctx, `
	SELECT p.term, p.chunk_id, p.tf, c.n_terms,
		(SELECT COUNT(*) FROM postings d WHERE d.term = p.term)
	FROM postings p JOIN chunks c ON c.id = p.chunk_id
	WHERE p.term IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query postings: %w", err)
	}
	defer rows.Close()

	scores := make(map[int64]float64)
	for rows.Next() {
		var (
			term          string
			chunkID       int64
			tf, n, docFrq int
		)
		if err := rows.Scan(&term, &chunkID, &tf, &n, &docFrq); err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		scores[chunkID] += tfidf(tf, n, docFrq, total)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query postings: %w", err)
	}

	ids := make([]int64, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b int64) int {
		switch {
		case scores[a] > scores[b]:
			return -1
		case scores[a] < scores[b]:
			return 1
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	if len(ids) > k {
		ids = ids[:k]
	}

	passages := make([]Passage, 0, len(ids))
	for _, id := range ids {
		p := Passage{Score: scores[id]}
		err := l.db.QueryRowContext(ctx,
			`SELECT source, seq, content FROM chunks WHERE id = ?`, id,
		).Scan(&p.Source, &p.Seq, &p.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to load chunk: %w", err)
		}
		passages = append(passages, p)
	}

	return passages, nil
}

// Sources returns the number of indexed sources and chunks.
func (l *LocalIndex) Sources(ctx context.Context) (sources, chunks int, err error) {
	err = l.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT source), COUNT(*) FROM chunks`).Scan(&sources, &chunks)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return sources, chunks, nil
}

// tfidf weighs a term by its frequency in the chunk, normalized by chunk
// length, times a smoothed inverse chunk frequency.
func tfidf(tf, chunkTerms, chunkFreq, totalChunks int) float64 {
	if tf == 0 || chunkTerms == 0 || chunkFreq == 0 {
		return 0
	}
	return float64(tf) / float64(chunkTerms) * math.Log(1+float64(totalChunks)/float64(chunkFreq))
}
