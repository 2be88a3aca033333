package audit

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

var _ ports.AuditStore = (*MemoryStore)(nil)

// MemoryStore keeps history for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    []ports.DocumentRecord
	queries []ports.QueryRecord
	nextID  int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) RecordDocument(ctx context.Context, rec ports.DocumentRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.mu.Lock()
	m.docs = append(m.docs, rec)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) RecordQuery(ctx context.Context, rec ports.QueryRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.mu.Lock()
	m.nextID++
	rec.ID = m.nextID
	m.queries = append(m.queries, rec)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ListDocuments(ctx context.Context, limit, offset int) ([]ports.DocumentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.docs, limit, offset), nil
}

func (m *MemoryStore) ListQueries(ctx context.Context, limit, offset int) ([]ports.QueryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.queries, limit, offset), nil
}

func (m *MemoryStore) Stats(ctx context.Context) (ports.AuditStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := ports.AuditStats{TotalDocuments: len(m.docs), TotalQueries: len(m.queries)}
	for _, d := range m.docs {
		st.TotalChunks += d.Chunks
	}
	if len(m.queries) > 0 {
		var sum float64
		for _, q := range m.queries {
			sum += q.ResponseTime
		}
		avg := sum / float64(len(m.queries))
		st.AvgResponseTime = &avg
	}
	return st, nil
}

func (m *MemoryStore) Close() error { return nil }

// newestFirst pages over records stored oldest first.
func newestFirst[T any](records []T, limit, offset int) []T {
	limit, offset = page(limit, offset)
	out := make([]T, 0, limit)
	for i := len(records) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, records[i])
	}
	return slices.Clip(out)
}
