package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

// SQLiteIndex is a durable content index. A document and all of its chunks are
// written in one transaction, so readers never see a partial document.
type SQLiteIndex struct {
	db       *sql.DB
	dataPath string
	scorer   ports.Scorer
	logger   *zap.Logger
}

// NewSQLiteIndex opens (or creates) index.db under dataPath.
func NewSQLiteIndex(dataPath string, scorer ports.Scorer, logger *zap.Logger) (*SQLiteIndex, error) {
	if dataPath == "" {
		dataPath = "./data"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dsn := filepath.Join(dataPath, "index.db") + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &SQLiteIndex{
		db:       db,
		dataPath: dataPath,
		scorer:   scorer,
		logger:   logger,
	}

	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return idx, nil
}

func (s *SQLiteIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		doc_id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		filename TEXT NOT NULL,
		file_size INTEGER NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL,
		chunk_count INTEGER NOT NULL,
		chunk_size INTEGER NOT NULL,
		chunk_overlap INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		doc_id TEXT NOT NULL REFERENCES documents(doc_id),
		seq INTEGER NOT NULL,
		content TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		filename TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add stores doc and its chunks atomically.
func (s *SQLiteIndex) Add(ctx context.Context, doc entities.Document, chunks []entities.Chunk) error {
	if err := validateBatch(doc, chunks); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return entities.NewIndexUnavailableError("starting transaction", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE doc_id = ?", doc.ID).Scan(&exists)
	switch {
	case err == nil:
		return alreadyIndexed(doc.ID)
	case !errors.Is(err, sql.ErrNoRows):
		return entities.NewIndexUnavailableError("checking document", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (doc_id, content_hash, filename, file_size, page_count, chunk_count, chunk_size, chunk_overlap, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.ContentHash, doc.Filename, doc.FileSize, doc.PageCount, doc.ChunkCount, doc.ChunkSize, doc.ChunkOverlap, doc.CreatedAt.UTC())
	if err != nil {
		return entities.NewIndexUnavailableError("inserting document", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, doc_id, seq, content, content_hash, filename)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return entities.NewIndexUnavailableError("preparing statement", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		_, err = stmt.ExecContext(ctx,
			c.ID,
			c.Metadata.DocID,
			c.Metadata.SequenceIndex,
			c.Content,
			c.Metadata.ContentHash,
			c.Metadata.Filename,
		)
		if err != nil {
			return entities.NewIndexUnavailableError("inserting chunk "+c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return entities.NewIndexUnavailableError("committing document", err)
	}
	s.logger.Debug("chunks added", zap.String("doc_id", doc.ID), zap.Int("chunks", len(chunks)))
	return nil
}

// Search loads the candidate chunks and ranks them in process.
func (s *SQLiteIndex) Search(ctx context.Context, query string, k int, scopeDocID string) ([]entities.ScoredChunk, error) {
	if k <= 0 {
		return []entities.ScoredChunk{}, nil
	}

	q := "SELECT id, doc_id, seq, content, content_hash, filename FROM chunks"
	var args []any
	if scopeDocID != "" {
		q += " WHERE doc_id = ?"
		args = append(args, scopeDocID)
	}
	q += " ORDER BY doc_id, seq"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, entities.NewIndexUnavailableError("querying chunks", err)
	}
	defer rows.Close()

	var candidates []entities.Chunk
	for rows.Next() {
		var c entities.Chunk
		err := rows.Scan(&c.ID, &c.Metadata.DocID, &c.Metadata.SequenceIndex, &c.Content, &c.Metadata.ContentHash, &c.Metadata.Filename)
		if err != nil {
			return nil, entities.NewIndexUnavailableError("scanning chunk", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, entities.NewIndexUnavailableError("reading chunks", err)
	}

	return rank(ctx, s.scorer, query, candidates, k)
}

// FindByContentHash returns the earliest document indexed with hash.
func (s *SQLiteIndex) FindByContentHash(ctx context.Context, hash string) (string, bool, error) {
	var docID string
	err := s.db.QueryRowContext(ctx,
		"SELECT doc_id FROM documents WHERE content_hash = ? ORDER BY created_at LIMIT 1", hash).Scan(&docID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, entities.NewIndexUnavailableError("looking up content hash", err)
	}
	return docID, true, nil
}

// Stats returns document and chunk counts.
func (s *SQLiteIndex) Stats(ctx context.Context) (entities.IndexStats, error) {
	var st entities.IndexStats
	err := s.db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM documents), (SELECT COUNT(*) FROM chunks)").Scan(&st.Documents, &st.Chunks)
	if err != nil {
		return st, entities.NewIndexUnavailableError("counting", err)
	}
	return st, nil
}

// Close closes the database connection.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteIndex) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}
