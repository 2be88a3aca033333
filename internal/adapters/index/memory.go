package index

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

// snapshot is an immutable view of the index. A published snapshot is never
// modified; writers build a new one and swap the pointer.
type snapshot struct {
	docs   map[string]entities.Document
	chunks map[string][]entities.Chunk // docID -> chunks in sequence order
	order  []string                    // docIDs in insertion order
	hashes map[string]string           // content hash -> first docID
	total  int
}

func emptySnapshot() *snapshot {
	return &snapshot{
		docs:   make(map[string]entities.Document),
		chunks: make(map[string][]entities.Chunk),
		hashes: make(map[string]string),
	}
}

// MemoryIndex is a copy-on-write in-memory content index.
// Readers load the current snapshot without locking, so a search sees either
// all chunks of a document or none of them.
type MemoryIndex struct {
	writeMu sync.Mutex
	current atomic.Pointer[snapshot]
	scorer  ports.Scorer
	logger  *zap.Logger
}

// NewMemoryIndex creates an empty in-memory index using scorer for ranking.
func NewMemoryIndex(scorer ports.Scorer, logger *zap.Logger) *MemoryIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	idx := &MemoryIndex{scorer: scorer, logger: logger}
	idx.current.Store(emptySnapshot())
	return idx
}

// Add publishes all chunks of doc in a single snapshot swap.
func (m *MemoryIndex) Add(ctx context.Context, doc entities.Document, chunks []entities.Chunk) error {
	if err := validateBatch(doc, chunks); err != nil {
		return err
	}
	batch := slices.Clone(chunks)
	slices.SortFunc(batch, func(a, b entities.Chunk) int {
		return a.Metadata.SequenceIndex - b.Metadata.SequenceIndex
	})

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	prev := m.current.Load()
	if _, exists := prev.docs[doc.ID]; exists {
		return alreadyIndexed(doc.ID)
	}

	next := &snapshot{
		docs:   maps.Clone(prev.docs),
		chunks: maps.Clone(prev.chunks),
		order:  append(slices.Clip(prev.order), doc.ID),
		hashes: maps.Clone(prev.hashes),
		total:  prev.total + len(batch),
	}
	next.docs[doc.ID] = doc
	next.chunks[doc.ID] = batch
	if _, seen := next.hashes[doc.ContentHash]; !seen && doc.ContentHash != "" {
		next.hashes[doc.ContentHash] = doc.ID
	}
	m.current.Store(next)

	m.logger.Debug("chunks added", zap.String("doc_id", doc.ID), zap.Int("chunks", len(batch)))
	return nil
}

// Search ranks the chunks of the current snapshot.
func (m *MemoryIndex) Search(ctx context.Context, query string, k int, scopeDocID string) ([]entities.ScoredChunk, error) {
	snap := m.current.Load()

	var candidates []entities.Chunk
	if scopeDocID != "" {
		candidates = snap.chunks[scopeDocID]
	} else {
		candidates = make([]entities.Chunk, 0, snap.total)
		for _, id := range snap.order {
			candidates = append(candidates, snap.chunks[id]...)
		}
	}
	return rank(ctx, m.scorer, query, candidates, k)
}

// FindByContentHash returns the first document indexed with hash.
func (m *MemoryIndex) FindByContentHash(ctx context.Context, hash string) (string, bool, error) {
	id, ok := m.current.Load().hashes[hash]
	return id, ok, nil
}

// Stats returns document and chunk counts.
func (m *MemoryIndex) Stats(ctx context.Context) (entities.IndexStats, error) {
	snap := m.current.Load()
	return entities.IndexStats{Documents: len(snap.docs), Chunks: snap.total}, nil
}
