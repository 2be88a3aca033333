package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfrag-go/internal/config"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/usecases"
)

// IngestDocument applies the duplicate policy, runs the ingestion pipeline
// and records the outcome in the audit store.
func (a *App) IngestDocument(ctx context.Context, in entities.IngestInput) (*entities.Document, error) {
	start := time.Now()

	if a.Config.Ingest.DuplicatePolicy == config.DuplicateReject {
		existing, found, err := a.Ingester.FindDuplicate(ctx, in.Data)
		if err != nil {
			return nil, err
		}
		if found {
			a.Logger.Info("duplicate document skipped",
				zap.String("filename", in.Filename),
				zap.String("doc_id", existing))
			return nil, entities.NewDuplicateError(existing)
		}
	}

	doc, err := a.Ingester.Ingest(ctx, in)
	elapsed := time.Since(start)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// the caller gave up; the document itself was never judged
		a.Logger.Info("ingestion abandoned",
			zap.String("filename", in.Filename),
			zap.Error(err))
		return nil, err
	}

	rec := ports.DocumentRecord{
		Filename:       in.Filename,
		ContentHash:    usecases.Fingerprint(in.Data),
		FileSize:       int64(len(in.Data)),
		ProcessingTime: elapsed.Seconds(),
	}
	if err != nil {
		rec.DocID = uuid.NewString()
		rec.Status = ports.DocumentFailed
		rec.ErrorMessage = err.Error()
		a.Logger.Warn("ingestion failed",
			zap.String("filename", in.Filename),
			zap.String("kind", string(entities.KindOf(err))),
			zap.Error(err))
	} else {
		rec.DocID = doc.ID
		rec.Pages = doc.PageCount
		rec.Chunks = doc.ChunkCount
		rec.ChunkSize = doc.ChunkSize
		rec.ChunkOverlap = doc.ChunkOverlap
		rec.Status = ports.DocumentCompleted
		rec.CreatedAt = doc.CreatedAt
	}
	a.recordDocument(ctx, rec)

	if err != nil {
		return nil, err
	}
	a.Logger.Info("ingestion completed",
		zap.String("doc_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Int("chunks", doc.ChunkCount),
		zap.Duration("duration", elapsed))
	return doc, nil
}

// IngestFile loads path from disk and ingests it.
func (a *App) IngestFile(ctx context.Context, path string) (*entities.Document, error) {
	in, err := a.Loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return a.IngestDocument(ctx, in)
}

// Ask answers a question and records it in the query history.
func (a *App) Ask(ctx context.Context, req entities.AnswerRequest) (*entities.AnswerResult, error) {
	start := time.Now()
	res, err := a.Querier.Answer(ctx, req)
	elapsed := time.Since(start)

	rec := ports.QueryRecord{
		Question:     req.Question,
		DocID:        req.ScopeDocID,
		K:            req.K,
		ResponseTime: elapsed.Seconds(),
	}
	if rec.K == 0 {
		rec.K = a.Querier.Limits().DefaultK
	}
	if err != nil {
		rec.Status = string(entities.StatusError)
		rec.ErrorMessage = err.Error()
	} else {
		rec.Status = string(res.Status)
		rec.Answer = res.Answer
		rec.ChunksUsed = len(res.Sources)
	}
	// invalid requests never reach the history
	if !entities.IsValidationError(err) {
		a.recordQuery(ctx, rec)
	}

	if err != nil {
		a.Logger.Warn("query failed",
			zap.String("kind", string(entities.KindOf(err))),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return nil, err
	}
	a.Logger.Info("query answered",
		zap.String("status", string(res.Status)),
		zap.Int("chunks", len(res.Sources)),
		zap.Bool("degraded", res.Degraded),
		zap.Duration("duration", elapsed))
	return res, nil
}

// Search runs retrieval only.
func (a *App) Search(ctx context.Context, req entities.AnswerRequest) ([]entities.ScoredChunk, error) {
	return a.Querier.Search(ctx, req)
}

// Stats combines the audit history with the live index.
type Stats struct {
	ports.AuditStats
	IndexedDocuments int `json:"indexed_documents"`
	IndexedChunks    int `json:"indexed_chunks"`
}

// Stats reports history and index counts.
func (a *App) Stats(ctx context.Context) (Stats, error) {
	st, err := a.Audit.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	idx, err := a.Index.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{AuditStats: st, IndexedDocuments: idx.Documents, IndexedChunks: idx.Chunks}, nil
}

// Health is a liveness summary. Status is "degraded" when a dependency
// check in Checks failed.
type Health struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Timestamp    time.Time         `json:"timestamp"`
	Checks       map[string]string `json:"checks"`
	LLMAvailable bool              `json:"llm_available"`
	LLMReason    string            `json:"llm_reason,omitempty"`
}

// Healthy reports whether every dependency check passed.
func (h Health) Healthy() bool { return h.Status == "healthy" }

type pinger interface {
	Ping(ctx context.Context) error
}

type healthChecker interface {
	Healthy(ctx context.Context) bool
}

// Health probes the index and the extraction service where they support it
// and reports whether answer generation is available.
func (a *App) Health(ctx context.Context) Health {
	h := Health{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().UTC(),
		Checks:    map[string]string{"index": "ok", "extractor": "ok"},
	}

	if p, ok := a.Index.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			h.Status = "degraded"
			h.Checks["index"] = err.Error()
		}
	}
	if hc, ok := a.Extractor.(healthChecker); ok {
		checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
		if !hc.Healthy(checkCtx) {
			h.Status = "degraded"
			h.Checks["extractor"] = "unreachable"
		}
	}
	if !h.Healthy() {
		a.Logger.Warn("health check failed", zap.Any("checks", h.Checks))
	}

	av := a.Completer.Availability()
	h.LLMAvailable = av.Available
	h.LLMReason = av.Reason
	return h
}

const healthCheckTimeout = 2 * time.Second

// Audit write failures are logged and never fail the request.
func (a *App) recordDocument(ctx context.Context, rec ports.DocumentRecord) {
	if err := a.Audit.RecordDocument(context.WithoutCancel(ctx), rec); err != nil {
		a.Logger.Error("failed to record document", zap.String("doc_id", rec.DocID), zap.Error(err))
	}
}

func (a *App) recordQuery(ctx context.Context, rec ports.QueryRecord) {
	if err := a.Audit.RecordQuery(context.WithoutCancel(ctx), rec); err != nil {
		a.Logger.Error("failed to record query", zap.Error(err))
	}
}
