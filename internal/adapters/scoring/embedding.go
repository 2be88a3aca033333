package scoring

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

// EmbeddingScorer ranks candidates by cosine similarity between the query
// embedding and each chunk embedding. Chunk vectors are cached by chunk ID;
// chunks are immutable so the cache never goes stale.
type EmbeddingScorer struct {
	embedder ports.EmbeddingService

	mu    sync.RWMutex
	cache map[string][]float32
}

// NewEmbeddingScorer creates a scorer backed by an embedding service.
func NewEmbeddingScorer(embedder ports.EmbeddingService) *EmbeddingScorer {
	return &EmbeddingScorer{embedder: embedder, cache: make(map[string][]float32)}
}

func (s *EmbeddingScorer) Name() string { return "embedding" }

// Score implements ports.Scorer.
func (s *EmbeddingScorer) Score(ctx context.Context, query string, candidates []entities.Chunk) ([]float64, error) {
	scores := make([]float64, len(candidates))
	if len(candidates) == 0 {
		return scores, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	vectors, err := s.chunkVectors(ctx, candidates)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		scores[i] = cosineSimilarity(queryVec, vectors[i])
	}
	return scores, nil
}

func (s *EmbeddingScorer) chunkVectors(ctx context.Context, candidates []entities.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(candidates))
	var missing []int

	s.mu.RLock()
	for i, c := range candidates {
		if v, ok := s.cache[c.ID]; ok {
			vectors[i] = v
		} else {
			missing = append(missing, i)
		}
	}
	s.mu.RUnlock()

	if len(missing) == 0 {
		return vectors, nil
	}

	texts := make([]string, len(missing))
	for j, i := range missing {
		texts[j] = candidates[i].Content
	}
	embedded, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(embedded) != len(missing) {
		return nil, fmt.Errorf("embedding chunks: got %d vectors for %d texts", len(embedded), len(missing))
	}

	s.mu.Lock()
	for j, i := range missing {
		vectors[i] = embedded[j]
		s.cache[candidates[i].ID] = embedded[j]
	}
	s.mu.Unlock()
	return vectors, nil
}

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
