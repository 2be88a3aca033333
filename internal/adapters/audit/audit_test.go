package audit

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

func stores(t *testing.T) map[string]ports.AuditStore {
	sqlite, err := OpenSQL(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "audit.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]ports.AuditStore{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestAuditStore_DocumentsNewestFirst(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			for i := 0; i < 3; i++ {
				require.NoError(t, store.RecordDocument(ctx, ports.DocumentRecord{
					DocID:       fmt.Sprintf("doc-%d", i),
					Filename:    fmt.Sprintf("f%d.pdf", i),
					ContentHash: "hash",
					FileSize:    1024,
					Pages:       2,
					Chunks:      10,
					ChunkSize:   300,
					Status:      ports.DocumentCompleted,
					CreatedAt:   base.Add(time.Duration(i) * time.Minute),
				}))
			}

			docs, err := store.ListDocuments(ctx, 2, 0)
			require.NoError(t, err)
			require.Len(t, docs, 2)
			assert.Equal(t, "doc-2", docs[0].DocID)
			assert.Equal(t, "doc-1", docs[1].DocID)
			assert.Equal(t, 10, docs[0].Chunks)
			assert.True(t, docs[0].CreatedAt.Equal(base.Add(2*time.Minute)))

			rest, err := store.ListDocuments(ctx, 2, 2)
			require.NoError(t, err)
			require.Len(t, rest, 1)
			assert.Equal(t, "doc-0", rest[0].DocID)
		})
	}
}

func TestAuditStore_QueriesAndStats(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			st, err := store.Stats(ctx)
			require.NoError(t, err)
			assert.Nil(t, st.AvgResponseTime)

			require.NoError(t, store.RecordDocument(ctx, ports.DocumentRecord{DocID: "d1", Filename: "a.pdf", ContentHash: "h", Chunks: 7, Status: ports.DocumentCompleted}))
			require.NoError(t, store.RecordDocument(ctx, ports.DocumentRecord{DocID: "d2", Filename: "b.pdf", ContentHash: "h2", Status: ports.DocumentFailed, ErrorMessage: "broken xref"}))
			require.NoError(t, store.RecordQuery(ctx, ports.QueryRecord{Question: "first?", K: 5, ResponseTime: 1.0, Status: "success", ChunksUsed: 3}))
			require.NoError(t, store.RecordQuery(ctx, ports.QueryRecord{Question: "second?", K: 3, DocID: "d1", ResponseTime: 2.0, Status: "no_results"}))

			queries, err := store.ListQueries(ctx, 10, 0)
			require.NoError(t, err)
			require.Len(t, queries, 2)
			assert.Equal(t, "second?", queries[0].Question)
			assert.Equal(t, "d1", queries[0].DocID)
			assert.NotZero(t, queries[0].ID)

			st, err = store.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, st.TotalDocuments)
			assert.Equal(t, 2, st.TotalQueries)
			assert.Equal(t, 7, st.TotalChunks)
			require.NotNil(t, st.AvgResponseTime)
			assert.InDelta(t, 1.5, *st.AvgResponseTime, 1e-9)

			docs, err := store.ListDocuments(ctx, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, "broken xref", docs[0].ErrorMessage)
		})
	}
}

func TestRebind(t *testing.T) {
	q := "INSERT INTO t (a, b) VALUES (?, ?)"
	assert.Equal(t, q, rebind(DriverSQLite, q))
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", rebind(DriverPostgres, q))
}

func TestPage(t *testing.T) {
	l, o := page(0, -3)
	assert.Equal(t, 50, l)
	assert.Equal(t, 0, o)

	l, _ = page(1000, 0)
	assert.Equal(t, 100, l)
}

func TestOpenSQL_UnknownDriver(t *testing.T) {
	_, err := OpenSQL(context.Background(), "mysql", "x", nil)
	assert.Error(t, err)

	_, err = OpenSQL(context.Background(), DriverPostgres, "", nil)
	assert.Error(t, err)
}
