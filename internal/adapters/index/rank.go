// Package index provides content index adapters: an in-memory snapshot index
// and a SQLite-backed durable index. Both share validation and ranking.
package index

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

// rank scores candidates and returns the top k with positive scores, ordered
// by score desc, then sequence index asc, then doc_id asc.
func rank(ctx context.Context, scorer ports.Scorer, query string, candidates []entities.Chunk, k int) ([]entities.ScoredChunk, error) {
	results := []entities.ScoredChunk{}
	if k <= 0 || len(candidates) == 0 {
		return results, nil
	}

	scores, err := scorer.Score(ctx, query, candidates)
	if err != nil {
		return nil, fmt.Errorf("%s scorer: %w", scorer.Name(), err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("%s scorer returned %d scores for %d chunks", scorer.Name(), len(scores), len(candidates))
	}

	for i, c := range candidates {
		if scores[i] > 0 {
			results = append(results, entities.ScoredChunk{Chunk: c, Score: scores[i]})
		}
	}

	slices.SortStableFunc(results, func(a, b entities.ScoredChunk) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Chunk.Metadata.SequenceIndex, b.Chunk.Metadata.SequenceIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.Metadata.DocID, b.Chunk.Metadata.DocID)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// validateBatch checks that chunks form a complete, consistent batch for doc.
func validateBatch(doc entities.Document, chunks []entities.Chunk) error {
	if doc.ID == "" {
		return entities.NewValidationError("document has no id", nil)
	}
	if len(chunks) == 0 {
		return entities.NewValidationError("document "+doc.ID+" has no chunks", nil)
	}
	seen := make(map[int]struct{}, len(chunks))
	for _, c := range chunks {
		if c.Metadata.DocID != doc.ID {
			return entities.NewValidationError(
				fmt.Sprintf("chunk %s belongs to %q, not %q", c.ID, c.Metadata.DocID, doc.ID), nil)
		}
		if strings.TrimSpace(c.Content) == "" {
			return entities.NewValidationError("chunk "+c.ID+" has no content", nil).
				WithDetail("chunk_id", c.ID)
		}
		seq := c.Metadata.SequenceIndex
		if seq < 0 {
			return entities.NewValidationError("chunk "+c.ID+" has a negative sequence index", nil).
				WithDetail("sequence_index", seq)
		}
		if want := entities.ChunkID(doc.ID, seq); c.ID != want {
			return entities.NewValidationError(
				fmt.Sprintf("chunk id %q does not match %q", c.ID, want), nil).
				WithDetail("chunk_id", c.ID)
		}
		// ids derive from the sequence index, so this also catches duplicate ids
		if _, dup := seen[seq]; dup {
			return entities.NewValidationError(fmt.Sprintf("duplicate sequence index %d", seq), nil).
				WithDetail("sequence_index", seq)
		}
		seen[seq] = struct{}{}
	}
	return nil
}

func alreadyIndexed(docID string) error {
	return entities.NewValidationError("document "+docID+" is already indexed", nil).
		WithDetail("doc_id", docID)
}
