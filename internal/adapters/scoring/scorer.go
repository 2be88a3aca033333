package scoring

import (
	"fmt"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

// New returns the scorer registered under name. The embedding scorer needs
// an embedding service; the others ignore it.
func New(name string, embedder ports.EmbeddingService) (ports.Scorer, error) {
	switch name {
	case "", "keyword":
		return NewKeywordScorer(), nil
	case "tfidf":
		return NewTFIDFScorer(), nil
	case "embedding":
		if embedder == nil {
			return nil, fmt.Errorf("embedding scorer requires an embedding service")
		}
		return NewEmbeddingScorer(embedder), nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
}
