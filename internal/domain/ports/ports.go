// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"
	"time"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
)

// TextExtractor pulls per-page text out of a PDF byte stream.
type TextExtractor interface {
	// Extract parses data and returns a lazy page sequence. Pages without
	// extractable text are skipped. Unparsable input fails with an extraction error.
	Extract(ctx context.Context, data []byte) (*entities.ExtractedDocument, error)
}

// ContentIndex stores chunks and answers ranked lookups.
type ContentIndex interface {
	// Add makes all chunks of doc searchable at once, or none of them.
	Add(ctx context.Context, doc entities.Document, chunks []entities.Chunk) error

	// Search returns up to k chunks ranked by relevance to query.
	// A non-empty scopeDocID restricts candidates to that document.
	Search(ctx context.Context, query string, k int, scopeDocID string) ([]entities.ScoredChunk, error)

	// FindByContentHash reports the document already indexed with this fingerprint.
	FindByContentHash(ctx context.Context, hash string) (string, bool, error)

	Stats(ctx context.Context) (entities.IndexStats, error)
}

// Scorer assigns a relevance score to each candidate chunk.
// Scores <= 0 mean "not relevant"; ranking and tie-breaking belong to the index.
type Scorer interface {
	Name() string
	Score(ctx context.Context, query string, candidates []entities.Chunk) ([]float64, error)
}

// Completer is the answer-synthesis collaborator.
type Completer interface {
	// Availability is checked before every call to Complete.
	Availability() entities.Availability

	// Complete returns the model's completion for prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentLoader reads a document from disk for ingestion.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (entities.IngestInput, error)
	SupportedExtensions() []string
}

// AuditStore persists ingestion and query history outside the core.
type AuditStore interface {
	RecordDocument(ctx context.Context, rec DocumentRecord) error
	RecordQuery(ctx context.Context, rec QueryRecord) error
	ListDocuments(ctx context.Context, limit, offset int) ([]DocumentRecord, error)
	ListQueries(ctx context.Context, limit, offset int) ([]QueryRecord, error)
	Stats(ctx context.Context) (AuditStats, error)
	Close() error
}

// Ingestion outcomes stored in DocumentRecord.Status.
const (
	DocumentCompleted = "completed"
	DocumentFailed    = "failed"
)

// DocumentRecord is one row of ingestion history.
type DocumentRecord struct {
	DocID          string    `json:"doc_id"`
	Filename       string    `json:"filename"`
	ContentHash    string    `json:"content_hash"`
	FileSize       int64     `json:"file_size"`
	Pages          int       `json:"pages"`
	Chunks         int       `json:"chunks"`
	ChunkSize      int       `json:"chunk_size"`
	ChunkOverlap   int       `json:"chunk_overlap"`
	ProcessingTime float64   `json:"processing_time"`
	Status         string    `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// QueryRecord is one row of query history.
type QueryRecord struct {
	ID           int64     `json:"id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer,omitempty"`
	DocID        string    `json:"doc_id,omitempty"`
	K            int       `json:"k_value"`
	ResponseTime float64   `json:"response_time"`
	ChunksUsed   int       `json:"chunks_used"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditStats aggregates the audit history.
type AuditStats struct {
	TotalDocuments  int      `json:"total_documents"`
	TotalQueries    int      `json:"total_queries"`
	TotalChunks     int      `json:"total_chunks"`
	AvgResponseTime *float64 `json:"avg_response_time"`
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
