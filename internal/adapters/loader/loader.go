// Package loader reads PDF files from disk for ingestion.
package loader

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

var _ ports.DocumentLoader = (*PDFLoader)(nil)

// DefaultMaxFileSize matches the upload limit of the HTTP API.
const DefaultMaxFileSize int64 = 50 << 20

// PDFLoader loads PDF files into ingestion inputs.
type PDFLoader struct {
	maxSize int64
}

// NewPDFLoader creates a loader rejecting files above maxSize bytes.
func NewPDFLoader(maxSize int64) *PDFLoader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &PDFLoader{maxSize: maxSize}
}

// Load reads path. The file must have a .pdf extension and fit the size limit.
func (l *PDFLoader) Load(ctx context.Context, path string) (entities.IngestInput, error) {
	if err := ctx.Err(); err != nil {
		return entities.IngestInput{}, err
	}
	name := filepath.Base(path)
	if !l.Supports(path) {
		return entities.IngestInput{}, entities.NewValidationError("only PDF files are allowed", nil).
			WithDetail("filename", name)
	}

	file, err := os.Open(path)
	if err != nil {
		return entities.IngestInput{}, fmt.Errorf("opening %s: %w", name, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return entities.IngestInput{}, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		return entities.IngestInput{}, entities.NewValidationError(name+" is a directory", nil)
	}
	if info.Size() > l.maxSize {
		return entities.IngestInput{}, tooLarge(name, l.maxSize)
	}

	// the file may grow between Stat and ReadAll
	data, err := io.ReadAll(io.LimitReader(file, l.maxSize+1))
	if err != nil {
		return entities.IngestInput{}, fmt.Errorf("reading %s: %w", name, err)
	}
	if int64(len(data)) > l.maxSize {
		return entities.IngestInput{}, tooLarge(name, l.maxSize)
	}

	return entities.IngestInput{Filename: name, Data: data}, nil
}

func tooLarge(name string, limit int64) error {
	return entities.NewValidationError(fmt.Sprintf("file too large (max %dMB)", limit>>20), nil).
		WithDetail("filename", name)
}

// Supports reports whether path has a supported extension.
func (l *PDFLoader) Supports(path string) bool {
	return slices.Contains(l.SupportedExtensions(), strings.ToLower(filepath.Ext(path)))
}

// SupportedExtensions returns file extensions this loader handles.
func (l *PDFLoader) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Discover expands paths into PDF files. Directories are walked recursively
// and hidden entries skipped; plain files are returned as given.
func (l *PDFLoader) Discover(paths ...string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != p && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() && l.Supports(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	return files, nil
}
