// Package audit records ingestion and query history outside the core index.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

// Supported database/sql drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var _ ports.AuditStore = (*SQLStore)(nil)

// SQLStore keeps history in SQLite or PostgreSQL.
type SQLStore struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

// OpenSQL connects to dsn with driver and creates the tables if needed.
// For sqlite3 a bare file path is accepted as dsn.
func OpenSQL(ctx context.Context, driver, dsn string, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = filepath.Join("data", "audit.db")
		}
		if !strings.Contains(dsn, "?") && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("creating audit directory: %w", err)
			}
			dsn += "?_journal_mode=WAL&_busy_timeout=5000"
		}
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres audit store needs a DSN")
		}
	default:
		return nil, fmt.Errorf("unsupported audit driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging audit database: %w", err)
	}

	s := &SQLStore{db: db, driver: driver, logger: logger.Named("audit")}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing audit schema: %w", err)
	}
	s.logger.Info("audit store ready", zap.String("driver", driver))
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	serial, ts, float := "INTEGER PRIMARY KEY AUTOINCREMENT", "DATETIME", "REAL"
	if s.driver == DriverPostgres {
		serial, ts, float = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ", "DOUBLE PRECISION"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id ` + serial + `,
			doc_id VARCHAR(36) NOT NULL UNIQUE,
			filename VARCHAR(255) NOT NULL,
			content_hash VARCHAR(64) NOT NULL,
			file_size BIGINT NOT NULL,
			pages INTEGER NOT NULL DEFAULT 0,
			chunks INTEGER NOT NULL DEFAULT 0,
			chunk_size INTEGER NOT NULL DEFAULT 0,
			chunk_overlap INTEGER NOT NULL DEFAULT 0,
			processing_time ` + float + `,
			status VARCHAR(20) NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_documents_hash ON documents(content_hash)`,
		`CREATE TABLE IF NOT EXISTS queries (
			id ` + serial + `,
			question TEXT NOT NULL,
			answer TEXT NOT NULL DEFAULT '',
			doc_id VARCHAR(36) NOT NULL DEFAULT '',
			k_value INTEGER NOT NULL,
			response_time ` + float + `,
			chunks_used INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_queries_doc ON queries(doc_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $1, $2... for postgres.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) q(query string) string { return rebind(s.driver, query) }

// RecordDocument stores one ingestion attempt.
func (s *SQLStore) RecordDocument(ctx context.Context, rec ports.DocumentRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO documents (doc_id, filename, content_hash, file_size, pages, chunks, chunk_size, chunk_overlap, processing_time, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.DocID, rec.Filename, rec.ContentHash, rec.FileSize, rec.Pages, rec.Chunks,
		rec.ChunkSize, rec.ChunkOverlap, rec.ProcessingTime, rec.Status, rec.ErrorMessage, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording document %s: %w", rec.DocID, err)
	}
	return nil
}

// RecordQuery stores one question and its outcome.
func (s *SQLStore) RecordQuery(ctx context.Context, rec ports.QueryRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO queries (question, answer, doc_id, k_value, response_time, chunks_used, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.Question, rec.Answer, rec.DocID, rec.K, rec.ResponseTime, rec.ChunksUsed,
		rec.Status, rec.ErrorMessage, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording query: %w", err)
	}
	return nil
}

// ListDocuments returns documents newest first.
func (s *SQLStore) ListDocuments(ctx context.Context, limit, offset int) ([]ports.DocumentRecord, error) {
	limit, offset = page(limit, offset)
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT doc_id, filename, content_hash, file_size, pages, chunks, chunk_size, chunk_overlap,
			COALESCE(processing_time, 0), status, error_message, created_at
		FROM documents ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	records := []ports.DocumentRecord{}
	for rows.Next() {
		var r ports.DocumentRecord
		if err := rows.Scan(&r.DocID, &r.Filename, &r.ContentHash, &r.FileSize, &r.Pages, &r.Chunks,
			&r.ChunkSize, &r.ChunkOverlap, &r.ProcessingTime, &r.Status, &r.ErrorMessage, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListQueries returns queries newest first.
func (s *SQLStore) ListQueries(ctx context.Context, limit, offset int) ([]ports.QueryRecord, error) {
	limit, offset = page(limit, offset)
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, question, answer, doc_id, k_value, COALESCE(response_time, 0), chunks_used, status, error_message, created_at
		FROM queries ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing queries: %w", err)
	}
	defer rows.Close()

	records := []ports.QueryRecord{}
	for rows.Next() {
		var r ports.QueryRecord
		if err := rows.Scan(&r.ID, &r.Question, &r.Answer, &r.DocID, &r.K, &r.ResponseTime,
			&r.ChunksUsed, &r.Status, &r.ErrorMessage, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning query: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Stats aggregates both tables.
func (s *SQLStore) Stats(ctx context.Context) (ports.AuditStats, error) {
	var st ports.AuditStats
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM queries),
			(SELECT COALESCE(SUM(chunks), 0) FROM documents),
			(SELECT AVG(response_time) FROM queries WHERE response_time IS NOT NULL)`,
	).Scan(&st.TotalDocuments, &st.TotalQueries, &st.TotalChunks, &avg)
	if err != nil {
		return st, fmt.Errorf("computing audit stats: %w", err)
	}
	if avg.Valid {
		st.AvgResponseTime = &avg.Float64
	}
	return st, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// page clamps paging arguments to 1..100 and >= 0.
func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	limit = min(limit, 100)
	return limit, max(offset, 0)
}
