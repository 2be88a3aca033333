// Package parser provides text extractors implementing ports.TextExtractor.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

var _ ports.TextExtractor = (*PDFExtractor)(nil)

// PDFExtractor reads PDFs in process with github.com/ledongthuc/pdf.
type PDFExtractor struct {
	logger *zap.Logger
}

// NewPDFExtractor creates a native PDF extractor.
func NewPDFExtractor(logger *zap.Logger) *PDFExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFExtractor{logger: logger.Named("pdf")}
}

// Extract opens data and returns a lazy page sequence. Page text is pulled
// only when the sequence is ranged over.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (doc *entities.ExtractedDocument, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, entities.NewExtractionError("empty input", nil)
	}

	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = entities.NewExtractionError("malformed PDF", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, entities.NewExtractionError("opening PDF", err)
	}
	total := reader.NumPage()

	return &entities.ExtractedDocument{
		PageCount: total,
		Pages: func(yield func(entities.Page) bool) {
			for i := 1; i <= total; i++ {
				text, ok := e.pageText(reader, i)
				if !ok || strings.TrimSpace(text) == "" {
					continue
				}
				if !yield(entities.Page{Number: i, Text: text}) {
					return
				}
			}
		},
	}, nil
}

func (e *PDFExtractor) pageText(reader *pdf.Reader, n int) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("page extraction panicked", zap.Int("page", n), zap.Any("panic", r))
			text, ok = "", false
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return "", false
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		e.logger.Warn("failed to extract page text", zap.Int("page", n), zap.Error(err))
		return "", false
	}
	return text, true
}
