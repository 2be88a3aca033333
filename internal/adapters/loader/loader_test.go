package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestPDFLoader_Load(t *testing.T) {
	path := writeFile(t, t.TempDir(), "Report.PDF", []byte("%PDF-1.4 body"))

	in, err := NewPDFLoader(0).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Report.PDF", in.Filename)
	assert.Equal(t, []byte("%PDF-1.4 body"), in.Data)
}

func TestPDFLoader_RejectsOtherExtensions(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", []byte("text"))

	_, err := NewPDFLoader(0).Load(context.Background(), path)
	assert.True(t, entities.IsValidationError(err))
}

func TestPDFLoader_RejectsOversizedFiles(t *testing.T) {
	path := writeFile(t, t.TempDir(), "big.pdf", make([]byte, 2048))

	_, err := NewPDFLoader(1024).Load(context.Background(), path)
	assert.True(t, entities.IsValidationError(err))
}

func TestPDFLoader_NonexistentFile(t *testing.T) {
	_, err := NewPDFLoader(0).Load(context.Background(), "/nonexistent/file.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPDFLoader_Discover(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", []byte("x"))
	b := writeFile(t, dir, "nested/b.pdf", []byte("x"))
	writeFile(t, dir, "nested/readme.md", []byte("x"))
	writeFile(t, dir, ".hidden/c.pdf", []byte("x"))
	single := writeFile(t, t.TempDir(), "single.pdf", []byte("x"))

	files, err := NewPDFLoader(0).Discover(dir, single)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b, single}, files)
}

func TestPDFLoader_SupportedExtensions(t *testing.T) {
	l := NewPDFLoader(0)
	assert.Equal(t, []string{".pdf"}, l.SupportedExtensions())
	assert.True(t, l.Supports("x.Pdf"))
	assert.False(t, l.Supports("x.docx"))
}
