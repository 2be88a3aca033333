// Package usecases contains application business rules.
// Usecases orchestrate entities and depend only on port interfaces.
package usecases

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

// IngestUseCase turns raw PDF bytes into indexed chunks.
type IngestUseCase struct {
	extractor ports.TextExtractor
	index     ports.ContentIndex
	policies  PolicySelector
	newID     func() string
	now       func() time.Time
	logger    *zap.Logger
}

// IngestOption customizes an IngestUseCase.
type IngestOption func(*IngestUseCase)

// WithPolicySelector overrides the default chunk policy tiers.
func WithPolicySelector(s PolicySelector) IngestOption {
	return func(uc *IngestUseCase) { uc.policies = s }
}

// WithIDGenerator overrides doc_id generation.
func WithIDGenerator(fn func() string) IngestOption {
	return func(uc *IngestUseCase) { uc.newID = fn }
}

// WithIngestLogger sets the logger.
func WithIngestLogger(l *zap.Logger) IngestOption {
	return func(uc *IngestUseCase) { uc.logger = l }
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(extractor ports.TextExtractor, index ports.ContentIndex, opts ...IngestOption) *IngestUseCase {
	uc := &IngestUseCase{
		extractor: extractor,
		index:     index,
		policies:  DefaultPolicySelector(),
		newID:     uuid.NewString,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Ingest extracts, chunks and indexes one document. Nothing is added to the
// index unless every step succeeds.
func (uc *IngestUseCase) Ingest(ctx context.Context, in entities.IngestInput) (*entities.Document, error) {
	hash := Fingerprint(in.Data)

	extracted, err := uc.extractor.Extract(ctx, in.Data)
	if err != nil {
		if entities.IsExtractionError(err) || callerGone(ctx, err) {
			return nil, err
		}
		return nil, entities.NewExtractionError("could not parse "+in.Filename, err)
	}

	var texts []string
	for page := range extracted.Pages {
		texts = append(texts, page.Text)
	}
	if len(texts) == 0 {
		return nil, entities.NewEmptyContentError("no page of " + in.Filename + " yielded text")
	}

	fullText := strings.Join(texts, "\n")
	policy := uc.policies.Select(utf8.RuneCountInString(fullText))
	segments := SplitText(fullText, policy)
	if len(segments) == 0 {
		return nil, entities.NewEmptyContentError(in.Filename + " contains only whitespace")
	}

	doc := entities.Document{
		ID:           uc.newID(),
		ContentHash:  hash,
		Filename:     in.Filename,
		FileSize:     int64(len(in.Data)),
		PageCount:    extracted.PageCount,
		ChunkCount:   len(segments),
		ChunkSize:    policy.Size,
		ChunkOverlap: policy.Overlap,
		CreatedAt:    uc.now().UTC(),
	}

	chunks := make([]entities.Chunk, 0, len(segments))
	for i, seg := range segments {
		chunk, err := entities.NewChunk(seg.Text, entities.ChunkMetadata{
			DocID:         doc.ID,
			ContentHash:   hash,
			Filename:      in.Filename,
			SequenceIndex: i,
		})
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	if err := uc.index.Add(ctx, doc, chunks); err != nil {
		if entities.KindOf(err) != "" || callerGone(ctx, err) {
			return nil, err
		}
		return nil, entities.NewIndexUnavailableError("could not index "+in.Filename, err)
	}

	uc.logger.Info("document ingested",
		zap.String("doc_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Int("pages", doc.PageCount),
		zap.Int("chunks", doc.ChunkCount),
		zap.Int("chunk_size", doc.ChunkSize),
	)
	return &doc, nil
}

// FindDuplicate reports a previously indexed document with the same bytes.
func (uc *IngestUseCase) FindDuplicate(ctx context.Context, data []byte) (string, bool, error) {
	docID, found, err := uc.index.FindByContentHash(ctx, Fingerprint(data))
	if err != nil {
		return "", false, entities.NewIndexUnavailableError("duplicate lookup failed", err)
	}
	return docID, found, nil
}

// callerGone reports that err comes from ctx being cancelled or expiring.
// Such errors are not the document's fault and pass through unclassified.
func callerGone(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}
