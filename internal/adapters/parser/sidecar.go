package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

var _ ports.TextExtractor = (*SidecarExtractor)(nil)

// SidecarExtractor delegates extraction to an external HTTP service.
type SidecarExtractor struct {
	serviceURL string
	client     *http.Client
}

// NewSidecarExtractor creates a client for the extraction service at serviceURL.
func NewSidecarExtractor(serviceURL string, timeout time.Duration) *SidecarExtractor {
	if serviceURL == "" {
		serviceURL = "http://localhost:8081"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SidecarExtractor{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		client:     &http.Client{Timeout: timeout},
	}
}

// parseResponse is the sidecar's reply. Older services return the whole
// document in Text; it is treated as a single page.
type parseResponse struct {
	Pages []string `json:"pages"`
	Text  string   `json:"text,omitempty"`
	Error string   `json:"error,omitempty"`
}

// Extract posts data to /parse.
func (s *SidecarExtractor) Extract(ctx context.Context, data []byte) (*entities.ExtractedDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("calling extraction service: %w", ctx.Err())
		}
		return nil, entities.NewExtractionError("calling extraction service", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, entities.NewExtractionError("reading extraction response", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, entities.NewExtractionError(fmt.Sprintf("decoding extraction response (status %d)", resp.StatusCode), err)
	}
	if result.Error != "" {
		return nil, entities.NewExtractionError("extraction service: "+result.Error, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, entities.NewExtractionError(fmt.Sprintf("extraction service returned status %d", resp.StatusCode), nil)
	}

	pages := result.Pages
	if len(pages) == 0 && result.Text != "" {
		pages = []string{result.Text}
	}

	return &entities.ExtractedDocument{
		PageCount: len(pages),
		Pages: func(yield func(entities.Page) bool) {
			for i, text := range pages {
				if strings.TrimSpace(text) == "" {
					continue
				}
				if !yield(entities.Page{Number: i + 1, Text: text}) {
					return
				}
			}
		},
	}, nil
}

// Healthy reports whether the service answers GET /health.
func (s *SidecarExtractor) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.serviceURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
