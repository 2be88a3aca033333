package usecases

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

// QueryLimits bounds accepted questions.
type QueryLimits struct {
	DefaultK          int
	MaxK              int
	MinQuestionLength int
	MaxQuestionLength int
}

// DefaultQueryLimits returns k=5 (max 20) and questions of 3 to 1000 characters.
func DefaultQueryLimits() QueryLimits {
	return QueryLimits{DefaultK: 5, MaxK: 20, MinQuestionLength: 3, MaxQuestionLength: 1000}
}

// QueryUseCase is the retrieval orchestrator: search, assemble context, ask the LLM.
type QueryUseCase struct {
	index     ports.ContentIndex
	completer ports.Completer
	limits    QueryLimits
	degrade   bool
	logger    *zap.Logger
}

// QueryOption customizes a QueryUseCase.
type QueryOption func(*QueryUseCase)

// WithQueryLimits overrides the default request bounds.
func WithQueryLimits(l QueryLimits) QueryOption {
	return func(uc *QueryUseCase) { uc.limits = l }
}

// WithDegradeWhenUnavailable controls whether an unavailable completer yields
// a labeled placeholder answer (true) or an answer generation error (false).
func WithDegradeWhenUnavailable(degrade bool) QueryOption {
	return func(uc *QueryUseCase) { uc.degrade = degrade }
}

// WithQueryLogger sets the logger.
func WithQueryLogger(l *zap.Logger) QueryOption {
	return func(uc *QueryUseCase) { uc.logger = l }
}

// NewQueryUseCase creates a QueryUseCase with injected dependencies.
func NewQueryUseCase(index ports.ContentIndex, completer ports.Completer, opts ...QueryOption) *QueryUseCase {
	uc := &QueryUseCase{
		index:     index,
		completer: completer,
		limits:    DefaultQueryLimits(),
		degrade:   true,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Limits exposes the configured request bounds.
func (uc *QueryUseCase) Limits() QueryLimits { return uc.limits }

// Answer retrieves context for the question and synthesizes an answer.
// An empty retrieval returns StatusNoResults without calling the completer.
func (uc *QueryUseCase) Answer(ctx context.Context, req entities.AnswerRequest) (*entities.AnswerResult, error) {
	req, err := uc.normalize(req)
	if err != nil {
		return nil, err
	}

	sources, err := uc.search(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &entities.AnswerResult{Question: req.Question, Sources: sources}
	if len(sources) == 0 {
		result.Status = entities.StatusNoResults
		return result, nil
	}

	result.Context = BuildContext(sources)
	result.Prompt = BuildPrompt(req.Question, result.Context)

	if avail := uc.completer.Availability(); !avail.Available {
		if !uc.degrade {
			return nil, entities.NewAnswerGenerationError("completion service unavailable: "+avail.Reason, nil)
		}
		uc.logger.Warn("completion service unavailable, returning placeholder", zap.String("reason", avail.Reason))
		result.Status = entities.StatusSuccess
		result.Answer = DisabledAnswer(avail.Reason)
		result.Degraded = true
		return result, nil
	}

	answer, err := uc.completer.Complete(ctx, result.Prompt)
	if err != nil {
		return nil, entities.NewAnswerGenerationError("completion failed", err)
	}

	result.Status = entities.StatusSuccess
	result.Answer = strings.TrimSpace(answer)
	uc.logger.Debug("question answered",
		zap.Int("chunks_used", len(sources)),
		zap.String("scope", req.ScopeDocID),
	)
	return result, nil
}

// Search retrieves ranked chunks only, without answer synthesis.
func (uc *QueryUseCase) Search(ctx context.Context, req entities.AnswerRequest) ([]entities.ScoredChunk, error) {
	req, err := uc.normalize(req)
	if err != nil {
		return nil, err
	}
	return uc.search(ctx, req)
}

func (uc *QueryUseCase) search(ctx context.Context, req entities.AnswerRequest) ([]entities.ScoredChunk, error) {
	results, err := uc.index.Search(ctx, req.Question, req.K, req.ScopeDocID)
	if err != nil {
		if entities.KindOf(err) != "" {
			return nil, err
		}
		return nil, entities.NewIndexUnavailableError("search failed", err)
	}
	return results, nil
}

func (uc *QueryUseCase) normalize(req entities.AnswerRequest) (entities.AnswerRequest, error) {
	req.Question = strings.TrimSpace(req.Question)
	req.ScopeDocID = strings.TrimSpace(req.ScopeDocID)

	n := utf8.RuneCountInString(req.Question)
	if n == 0 {
		return req, entities.NewValidationError("question is required", nil)
	}
	if n < uc.limits.MinQuestionLength || n > uc.limits.MaxQuestionLength {
		return req, entities.NewValidationError(
			fmt.Sprintf("question must be %d-%d characters", uc.limits.MinQuestionLength, uc.limits.MaxQuestionLength), nil).
			WithDetail("length", n)
	}

	if req.K == 0 {
		req.K = uc.limits.DefaultK
	}
	if req.K < 1 || req.K > uc.limits.MaxK {
		return req, entities.NewValidationError(fmt.Sprintf("k must be between 1 and %d", uc.limits.MaxK), nil).
			WithDetail("k", req.K)
	}
	return req, nil
}
