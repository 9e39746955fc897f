// Package store persists corpus chunks in SQLite. The database is the
// durable form of an ingested corpus; the in-memory Corpus and its indices
// are rebuilt from it (or from the source JSONL) at load time.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/veridoc-labs/docsearch/internal/corpus"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id          INTEGER PRIMARY KEY,
	doc_id      TEXT NOT NULL,
	article_no  TEXT NOT NULL DEFAULT '',
	page_start  INTEGER NOT NULL,
	page_end    INTEGER NOT NULL,
	text        TEXT NOT NULL,
	norm_text   TEXT NOT NULL,
	roles       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id);
`

// ChunkStore persists chunks in a SQLite database.
type ChunkStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) a chunk store at the given path.
func Open(path string) (*ChunkStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open chunk store %s: %w", path, err)
	}
	// The store is read-mostly; a single writer during ingest is enough.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply chunk store schema: %w", err)
	}
	return &ChunkStore{db: db}, nil
}

// SaveChunks replaces the stored corpus with the given chunks in one
// transaction. Partial ingests must never be observable.
func (s *ChunkStore) SaveChunks(ctx context.Context, chunks []*corpus.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, doc_id, article_no, page_start, page_end, text, norm_text, roles)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range chunks {
		roles, err := json.Marshal(c.Roles.Sorted())
		if err != nil {
			return fmt.Errorf("chunk %d: marshal roles: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.DocID, c.ArticleNo, c.PageStart, c.PageEnd, c.Text, c.NormText, string(roles)); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// LoadChunks reads all chunks in corpus order and returns a validated
// Corpus.
func (s *ChunkStore) LoadChunks(ctx context.Context) (*corpus.Corpus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, doc_id, article_no, page_start, page_end, text, norm_text, roles
		FROM chunks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []*corpus.Chunk
	for rows.Next() {
		var (
			c        corpus.Chunk
			rolesRaw string
		)
		if err := rows.Scan(&c.ID, &c.DocID, &c.ArticleNo, &c.PageStart, &c.PageEnd, &c.Text, &c.NormText, &rolesRaw); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		var roleNames []string
		if err := json.Unmarshal([]byte(rolesRaw), &roleNames); err != nil {
			return nil, fmt.Errorf("chunk %d: unmarshal roles: %w", c.ID, err)
		}
		c.Roles = corpus.NewRoleSet(roleNames...)
		chunks = append(chunks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	return corpus.New(chunks)
}

// Count returns the number of stored chunks.
func (s *ChunkStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *ChunkStore) Close() error {
	return s.db.Close()
}
