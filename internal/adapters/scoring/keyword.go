package scoring

import (
	"context"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
)

// KeywordScorer scores a chunk by how many distinct query tokens it contains.
// Repeating a token in the chunk does not raise the score.
type KeywordScorer struct{}

// NewKeywordScorer creates the default scorer.
func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{}
}

func (s *KeywordScorer) Name() string { return "keyword" }

// Score implements ports.Scorer.
func (s *KeywordScorer) Score(ctx context.Context, query string, candidates []entities.Chunk) ([]float64, error) {
	queryTokens := tokenSet(query)
	scores := make([]float64, len(candidates))
	if len(queryTokens) == 0 {
		return scores, nil
	}
	for i, c := range candidates {
		present := tokenSet(c.Content)
		n := 0
		for t := range queryTokens {
			if _, ok := present[t]; ok {
				n++
			}
		}
		scores[i] = float64(n)
	}
	return scores, nil
}
