package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/pdfrag-go/internal/app"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/testutil"
)

// writeConfig points every store at dir so state survives between commands.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := `
index:
  backend: sqlite
  path: ` + filepath.Join(dir, "data") + `
audit:
  driver: sqlite3
  dsn: ` + filepath.Join(dir, "data", "app.db") + `
llm:
  provider: none
log:
  level: error
`
	path := filepath.Join(dir, "pdfrag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_HasCommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"serve", "ingest", "ask", "search", "watch", "chat", "stats", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "pdfrag version "+app.Version+"\n", out)
}

func TestCLI_IngestSearchAskStats(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(filepath.Join(docs, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "revenue.pdf"), testutil.MinimalPDF("Revenue growth in 2023 was strong"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "nested", "weather.pdf"), testutil.MinimalPDF("Weather was mild all year"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "notes.txt"), []byte("ignored"), 0644))

	out, err := run(t, "--config", cfg, "ingest", docs)
	require.NoError(t, err, out)
	assert.Contains(t, out, "ok      "+filepath.Join(docs, "revenue.pdf"))
	assert.Contains(t, out, "weather.pdf")
	assert.NotContains(t, out, "notes.txt")

	out, err = run(t, "--config", cfg, "ingest", filepath.Join(docs, "revenue.pdf"))
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")

	out, err = run(t, "--config", cfg, "search", "--json", "revenue", "growth")
	require.NoError(t, err)
	var results []entities.ScoredChunk
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)
	require.Len(t, results, 1)
	assert.Equal(t, "revenue.pdf", results[0].Chunk.Metadata.Filename)

	out, err = run(t, "--config", cfg, "ask", "-k", "2", "how was the weather?")
	require.NoError(t, err)
	assert.Contains(t, out, "LLM is disabled")
	assert.Contains(t, out, "weather.pdf #0")

	out, err = run(t, "--config", cfg, "stats", "--json")
	require.NoError(t, err)
	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &st), out)
	assert.EqualValues(t, 2, st["indexed_documents"])
	assert.EqualValues(t, 1, st["total_queries"])

	out, err = run(t, "--config", cfg, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "unavailable (no LLM provider configured)")
}

func TestCLI_IngestReportsFailures(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	bad := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("not really a pdf"), 0644))

	out, err := run(t, "--config", cfg, "ingest", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 files failed")
	assert.Contains(t, out, "failed  "+bad)

	_, err = run(t, "--config", cfg, "ingest", filepath.Join(dir, "empty-dir-does-not-exist"))
	assert.Error(t, err)
}

func TestCLI_ArgumentErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	_, err := run(t, "--config", cfg, "ask")
	assert.Error(t, err)

	_, err = run(t, "--config", cfg, "ask", "hi")
	assert.True(t, entities.IsValidationError(err))

	_, err = run(t, "--config", cfg, "watch")
	assert.ErrorIs(t, err, errNoInbox)
}

func TestCLI_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index:\n  backend: redis\n"), 0644))

	_, err := run(t, "--config", path, "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index.backend")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n b\t c", 10))
	assert.Equal(t, "abc...", snippet("abcdef", 3))
}
