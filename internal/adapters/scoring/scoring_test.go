package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

var _ ports.Scorer = (*KeywordScorer)(nil)
var _ ports.Scorer = (*TFIDFScorer)(nil)
var _ ports.Scorer = (*EmbeddingScorer)(nil)

func chunk(id, content string) entities.Chunk {
	return entities.Chunk{ID: id, Content: content, Metadata: entities.ChunkMetadata{DocID: "d"}}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"revenue", "growth", "in", "2023", "wasn't", "élevé"},
		Tokenize("Revenue growth, in 2023 — wasn't ÉLEVÉ!"))
	assert.Empty(t, Tokenize("  ... --- "))
}

func TestKeywordScorer_DistinctTokens(t *testing.T) {
	s := NewKeywordScorer()
	scores, err := s.Score(context.Background(), "revenue growth 2023", []entities.Chunk{
		chunk("a", "Revenue growth in 2023 was strong"),
		chunk("b", "Unrelated text about weather"),
		chunk("c", "revenue revenue revenue"),
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 0, 1}, scores)
}

func TestKeywordScorer_RepeatedQueryTokens(t *testing.T) {
	scores, err := NewKeywordScorer().Score(context.Background(), "tax tax tax", []entities.Chunk{chunk("a", "Tax policy")})
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, scores)
}

func TestKeywordScorer_EmptyQuery(t *testing.T) {
	scores, err := NewKeywordScorer().Score(context.Background(), "?!", []entities.Chunk{chunk("a", "text")})
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, scores)
}

func TestTFIDFScorer_PrefersRareTerms(t *testing.T) {
	candidates := []entities.Chunk{
		chunk("a", "the report covers quarterly revenue and revenue growth"),
		chunk("b", "the report covers weather"),
		chunk("c", "the report covers staffing"),
	}
	scores, err := NewTFIDFScorer().Score(context.Background(), "revenue report", candidates)
	require.NoError(t, err)

	assert.Greater(t, scores[0], scores[1])
	assert.Greater(t, scores[1], 0.0)
	assert.InDelta(t, scores[1], scores[2], 1e-9)
}

func TestTFIDFScorer_NoOverlapScoresZero(t *testing.T) {
	scores, err := NewTFIDFScorer().Score(context.Background(), "volcano", []entities.Chunk{chunk("a", "ocean tides")})
	require.NoError(t, err)
	assert.Equal(t, 0.0, scores[0])
}

func TestTFIDFScorer_StopwordOnlyQuery(t *testing.T) {
	scores, err := NewTFIDFScorer().Score(context.Background(), "what is the", []entities.Chunk{chunk("a", "the thing is")})
	require.NoError(t, err)
	assert.Equal(t, 0.0, scores[0])
}

// mockEmbedder implements ports.EmbeddingService for testing
type mockEmbedder struct {
	vectors    map[string][]float32
	batchCalls int
	err        error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vectors[text], nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectors[t]
	}
	return out, nil
}

func TestEmbeddingScorer_CosineAndCache(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"query": {1, 0, 0},
		"same":  {2, 0, 0},
		"other": {0, 1, 0},
	}}
	s := NewEmbeddingScorer(emb)
	candidates := []entities.Chunk{chunk("c1", "same"), chunk("c2", "other")}

	scores, err := s.Score(context.Background(), "query", candidates)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, scores[0], 1e-9)
	assert.InDelta(t, 0.0, scores[1], 1e-9)

	_, err = s.Score(context.Background(), "query", candidates)
	require.NoError(t, err)
	assert.Equal(t, 1, emb.batchCalls)
}

func TestEmbeddingScorer_QueryError(t *testing.T) {
	s := NewEmbeddingScorer(&mockEmbedder{err: errors.New("connection refused")})
	_, err := s.Score(context.Background(), "q", []entities.Chunk{chunk("a", "x")})
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, cosineSimilarity([]float32{1, 0, 0}, []float32{1, 0, 0}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0, 0}, []float32{0, 1, 0}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 0}))
}

func TestNew(t *testing.T) {
	s, err := New("", nil)
	require.NoError(t, err)
	assert.Equal(t, "keyword", s.Name())

	s, err = New("tfidf", nil)
	require.NoError(t, err)
	assert.Equal(t, "tfidf", s.Name())

	_, err = New("embedding", nil)
	assert.Error(t, err)

	_, err = New("bm25", nil)
	assert.Error(t, err)
}
