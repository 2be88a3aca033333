package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xcro3dile/pdfrag-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/pdfrag-go/internal/adapters/llm"
	"github.com/0xcro3dile/pdfrag-go/internal/config"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
	"github.com/0xcro3dile/pdfrag-go/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Index.Backend = "memory"
	cfg.Audit.Driver = "none"
	cfg.LLM.Provider = "none"
	cfg.Ingest.SettleDelay = 50 * time.Millisecond
	require.NoError(t, cfg.Validate())
	return cfg
}

func newApp(t *testing.T, cfg *config.Config) *App {
	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestApp_IngestAndAskDegraded(t *testing.T) {
	a := newApp(t, testConfig(t))
	ctx := context.Background()

	doc, err := a.IngestDocument(ctx, entities.IngestInput{
		Filename: "annual.pdf",
		Data:     testutil.MinimalPDF("Revenue growth in 2023 was strong", "Weather was mild"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount)
	assert.Equal(t, 300, doc.ChunkSize)

	res, err := a.Ask(ctx, entities.AnswerRequest{Question: "what was revenue growth?"})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusSuccess, res.Status)
	assert.True(t, res.Degraded)
	assert.Equal(t, "LLM is disabled (no LLM provider configured)", res.Answer)
	require.NotEmpty(t, res.Sources)
	assert.Equal(t, doc.ID, res.Sources[0].Chunk.Metadata.DocID)

	st, err := a.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalDocuments)
	assert.Equal(t, 1, st.TotalQueries)
	assert.Equal(t, 1, st.IndexedDocuments)
	assert.Equal(t, doc.ChunkCount, st.IndexedChunks)

	queries, err := a.Audit.ListQueries(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, 5, queries[0].K)
	assert.Equal(t, "success", queries[0].Status)
}

func TestApp_DuplicatePolicy(t *testing.T) {
	data := testutil.MinimalPDF("same content")

	t.Run("reject", func(t *testing.T) {
		a := newApp(t, testConfig(t))
		first, err := a.IngestDocument(context.Background(), entities.IngestInput{Filename: "a.pdf", Data: data})
		require.NoError(t, err)

		_, err = a.IngestDocument(context.Background(), entities.IngestInput{Filename: "b.pdf", Data: data})
		require.True(t, entities.IsDuplicateError(err))

		var de *entities.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, first.ID, de.Details["doc_id"])
	})

	t.Run("allow", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Ingest.DuplicatePolicy = config.DuplicateAllow
		a := newApp(t, cfg)

		first, err := a.IngestDocument(context.Background(), entities.IngestInput{Filename: "a.pdf", Data: data})
		require.NoError(t, err)
		second, err := a.IngestDocument(context.Background(), entities.IngestInput{Filename: "a.pdf", Data: data})
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, first.ContentHash, second.ContentHash)
	})
}

func TestApp_FailedIngestionIsAudited(t *testing.T) {
	a := newApp(t, testConfig(t))
	ctx := context.Background()

	_, err := a.IngestDocument(ctx, entities.IngestInput{Filename: "blank.pdf", Data: testutil.MinimalPDF("", "")})
	require.True(t, entities.IsEmptyContentError(err))

	docs, err := a.Audit.ListDocuments(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, ports.DocumentFailed, docs[0].Status)
	assert.NotEmpty(t, docs[0].ErrorMessage)

	st, err := a.Index.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Documents)
}

func TestApp_CanceledIngestionNotAudited(t *testing.T) {
	a := newApp(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.IngestDocument(ctx, entities.IngestInput{
		Filename: "report.pdf",
		Data:     testutil.MinimalPDF("Revenue growth in 2023 was strong"),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, entities.IsExtractionError(err))

	docs, err := a.Audit.ListDocuments(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestApp_InvalidQuestionNotAudited(t *testing.T) {
	a := newApp(t, testConfig(t))

	_, err := a.Ask(context.Background(), entities.AnswerRequest{Question: "?"})
	require.True(t, entities.IsValidationError(err))

	st, err := a.Audit.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.TotalQueries)
}

func TestApp_SQLiteBackends(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.Index.Backend = "sqlite"
	cfg.Index.Path = dir
	cfg.Audit.Driver = "sqlite3"
	cfg.Audit.DSN = filepath.Join(dir, "app.db")

	a := newApp(t, cfg)
	doc, err := a.IngestDocument(context.Background(), entities.IngestInput{Filename: "a.pdf", Data: testutil.MinimalPDF("durable text")})
	require.NoError(t, err)
	h := a.Health(context.Background())
	assert.True(t, h.Healthy())
	assert.Equal(t, "ok", h.Checks["index"])
	require.NoError(t, a.Close())

	h = a.Health(context.Background())
	assert.Equal(t, "degraded", h.Status)
	assert.NotEqual(t, "ok", h.Checks["index"])

	reopened := newApp(t, cfg)
	results, err := reopened.Search(context.Background(), entities.AnswerRequest{Question: "durable text"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, doc.ID, results[0].Chunk.Metadata.DocID)
}

func TestApp_HealthProbesExtractor(t *testing.T) {
	sidecar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	cfg := testConfig(t)
	cfg.Extractor.Kind = "sidecar"
	cfg.Extractor.URL = sidecar.URL
	a := newApp(t, cfg)

	h := a.Health(context.Background())
	assert.True(t, h.Healthy())
	assert.Equal(t, map[string]string{"index": "ok", "extractor": "ok"}, h.Checks)

	sidecar.Close()
	h = a.Health(context.Background())
	assert.False(t, h.Healthy())
	assert.Equal(t, "unreachable", h.Checks["extractor"])
	assert.Equal(t, "ok", h.Checks["index"])
}

func TestApp_CompleterSelection(t *testing.T) {
	tests := []struct {
		provider  string
		available bool
	}{
		{"none", false},
		{"groq", false}, // no key
		{"ollama", true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.LLM.Provider = tt.provider
			cfg.LLM.APIKey = ""
			a := newApp(t, cfg)
			assert.Equal(t, tt.available, a.Completer.Availability().Available)
			assert.Equal(t, tt.available, a.Health(context.Background()).LLMAvailable)
		})
	}

	cfg := testConfig(t)
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "sk"
	a := newApp(t, cfg)
	assert.IsType(t, &llm.OpenAICompleter{}, a.Completer)
	assert.True(t, a.Completer.Availability().Available)
}

func TestApp_WatchInbox(t *testing.T) {
	a := newApp(t, testConfig(t))
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.pdf"), testutil.MinimalPDF("already here"), 0644))

	watcher, err := filewatcher.NewFSNotifyWatcher(nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.WatchInbox(ctx, dir, watcher) }()

	countDocs := func() int {
		st, err := a.Index.Stats(context.Background())
		require.NoError(t, err)
		return st.Documents
	}
	require.Eventually(t, func() bool { return countDocs() == 1 }, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dropped.pdf"), testutil.MinimalPDF("freshly dropped"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.Eventually(t, func() bool { return countDocs() == 2 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	results, err := a.Search(context.Background(), entities.AnswerRequest{Question: "freshly dropped"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "dropped.pdf", results[0].Chunk.Metadata.Filename)
}
