// Package entities contains core business entities.
// These are pure domain objects with no knowledge of storage, transport or LLM vendors.
package entities

import (
	"fmt"
	"iter"
	"strings"
	"time"
)

// Document represents one ingested PDF.
// It is created once ingestion succeeds and never mutated afterwards.
type Document struct {
	ID           string    `json:"doc_id"`
	ContentHash  string    `json:"content_hash"`
	Filename     string    `json:"filename"`
	FileSize     int64     `json:"file_size"`
	PageCount    int       `json:"page_count"`
	ChunkCount   int       `json:"chunk_count"`
	ChunkSize    int       `json:"chunk_size"`
	ChunkOverlap int       `json:"chunk_overlap"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChunkMetadata is the fixed set of keys carried by every chunk.
type ChunkMetadata struct {
	DocID         string `json:"doc_id"`
	ContentHash   string `json:"content_hash"`
	Filename      string `json:"filename"`
	SequenceIndex int    `json:"sequence_index"`
}

// Chunk is one retrievable unit of text.
type Chunk struct {
	ID       string        `json:"chunk_id"`
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkID derives the identity of a chunk from its document and position.
func ChunkID(docID string, seq int) string {
	return fmt.Sprintf("%s_%d", docID, seq)
}

// NewChunk builds a validated chunk. Content must contain non-whitespace text
// and the metadata must name a document and a non-negative position.
func NewChunk(content string, meta ChunkMetadata) (Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return Chunk{}, NewValidationError("chunk content is empty", nil)
	}
	if meta.DocID == "" {
		return Chunk{}, NewValidationError("chunk metadata has no doc_id", nil)
	}
	if meta.SequenceIndex < 0 {
		return Chunk{}, NewValidationError("chunk sequence index is negative", nil).
			WithDetail("sequence_index", meta.SequenceIndex)
	}
	return Chunk{
		ID:       ChunkID(meta.DocID, meta.SequenceIndex),
		Content:  content,
		Metadata: meta,
	}, nil
}

// ScoredChunk is a search hit.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Page is the text of one PDF page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// ExtractedDocument is the output of a text extractor. Pages is consumed lazily
// and yields only pages that produced text, in page order.
type ExtractedDocument struct {
	PageCount int
	Pages     iter.Seq[Page]
}

// IngestInput is raw document bytes plus a display filename.
type IngestInput struct {
	Filename string
	Data     []byte
}

// AnswerRequest asks a question against the index.
type AnswerRequest struct {
	Question   string
	K          int
	ScopeDocID string
}

// AnswerStatus is the outcome of a query.
type AnswerStatus string

const (
	StatusSuccess   AnswerStatus = "success"
	StatusNoResults AnswerStatus = "no_results"
	StatusError     AnswerStatus = "error"
)

// AnswerResult is what the orchestrator returns for a question.
type AnswerResult struct {
	Status   AnswerStatus  `json:"status"`
	Question string        `json:"question"`
	Answer   string        `json:"answer,omitempty"`
	Sources  []ScoredChunk `json:"sources"`
	Prompt   string        `json:"-"`
	Context  string        `json:"-"`
	// Degraded is set when the answer is a placeholder because no completion
	// service was available.
	Degraded bool `json:"degraded,omitempty"`
}

// Availability describes whether a completion service can be called.
type Availability struct {
	Available bool
	Reason    string
}

// Available reports a usable collaborator.
func Available() Availability { return Availability{Available: true} }

// Unavailable reports a collaborator that must not be called.
func Unavailable(reason string) Availability {
	return Availability{Available: false, Reason: reason}
}

// IndexStats summarizes the contents of a content index.
type IndexStats struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}
