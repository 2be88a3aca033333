package scoring

import (
	"context"
	"math"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
)

// TFIDFScorer ranks candidates by cosine similarity of TF-IDF vectors.
// IDF is computed over the candidate set of each search, so scoped searches
// weigh terms by their rarity within the scoped document.
type TFIDFScorer struct {
	stopwords map[string]struct{}
}

// NewTFIDFScorer creates a TF-IDF scorer with the default English stopwords.
func NewTFIDFScorer() *TFIDFScorer {
	return &TFIDFScorer{stopwords: defaultStopwords()}
}

func (s *TFIDFScorer) Name() string { return "tfidf" }

// Score implements ports.Scorer.
func (s *TFIDFScorer) Score(ctx context.Context, query string, candidates []entities.Chunk) ([]float64, error) {
	scores := make([]float64, len(candidates))
	queryTF := s.termFrequencies(query)
	if len(queryTF) == 0 || len(candidates) == 0 {
		return scores, nil
	}

	docs := make([]map[string]float64, len(candidates))
	df := make(map[string]int)
	for i, c := range candidates {
		docs[i] = s.termFrequencies(c.Content)
		for term := range docs[i] {
			df[term]++
		}
	}

	n := float64(len(candidates))
	idf := func(term string) float64 {
		// Smoothed IDF
		return math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	queryVec := weigh(queryTF, idf)
	for i, tf := range docs {
		scores[i] = cosine(queryVec, weigh(tf, idf))
	}
	return scores, nil
}

func (s *TFIDFScorer) termFrequencies(text string) map[string]float64 {
	counts := make(map[string]float64)
	total := 0.0
	for _, tok := range Tokenize(text) {
		if _, stop := s.stopwords[tok]; stop {
			continue
		}
		counts[tok]++
		total++
	}
	for term := range counts {
		counts[term] /= total
	}
	return counts
}

func weigh(tf map[string]float64, idf func(string) float64) map[string]float64 {
	vec := make(map[string]float64, len(tf))
	for term, f := range tf {
		vec[term] = f * idf(term)
	}
	return vec
}

func cosine(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for term, va := range a {
		dot += va * b[term]
		normA += va * va
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"what", "which", "who", "how", "why", "when", "where", "do", "does", "did",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
