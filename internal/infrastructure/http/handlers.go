package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

// multipart overhead allowed on top of the file size limit
const formOverhead = 1 << 20

type questionRequest struct {
	Question string `json:"question" validate:"required,min=3,max=1000"`
	K        int    `json:"k" validate:"omitempty,min=1,max=20"`
	DocID    string `json:"doc_id" validate:"omitempty,max=128"`
}

func (q questionRequest) toEntity() entities.AnswerRequest {
	return entities.AnswerRequest{Question: q.Question, K: q.K, ScopeDocID: q.DocID}
}

type uploadResponse struct {
	Status         string  `json:"status"`
	DocID          string  `json:"doc_id"`
	ContentHash    string  `json:"content_hash"`
	Filename       string  `json:"filename"`
	Pages          int     `json:"pages"`
	Chunks         int     `json:"chunks"`
	ChunkSize      int     `json:"chunk_size"`
	ChunkOverlap   int     `json:"chunk_overlap"`
	ProcessingTime float64 `json:"processing_time"`
}

type askResponse struct {
	*entities.AnswerResult
	Count        int     `json:"count"`
	ResponseTime float64 `json:"response_time"`
}

type searchResponse struct {
	Query   string                 `json:"query"`
	Results []entities.ScoredChunk `json:"results"`
	Count   int                    `json:"count"`
}

type listResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	maxSize := s.app.Config.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+formOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondDomainError(w, entities.NewValidationError(
				fmt.Sprintf("file too large, max size %dMB", s.app.Config.Ingest.MaxFileSizeMB), nil))
			return
		}
		s.respondDomainError(w, entities.NewValidationError("multipart field \"file\" is required", err))
		return
	}
	defer file.Close()

	if !s.app.Loader.Supports(header.Filename) {
		s.respondDomainError(w, entities.NewValidationError("only PDF files are allowed", nil).
			WithDetail("filename", header.Filename))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		s.respondDomainError(w, entities.NewValidationError("reading upload", err))
		return
	}
	if int64(len(data)) > maxSize {
		s.respondDomainError(w, entities.NewValidationError(
			fmt.Sprintf("file too large, max size %dMB", s.app.Config.Ingest.MaxFileSizeMB), nil))
		return
	}

	doc, err := s.app.IngestDocument(r.Context(), entities.IngestInput{Filename: header.Filename, Data: data})
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, uploadResponse{
		Status:         "success",
		DocID:          doc.ID,
		ContentHash:    doc.ContentHash,
		Filename:       doc.Filename,
		Pages:          doc.PageCount,
		Chunks:         doc.ChunkCount,
		ChunkSize:      doc.ChunkSize,
		ChunkOverlap:   doc.ChunkOverlap,
		ProcessingTime: elapsedSeconds(start),
	})
}

func (s *Server) decodeQuestion(w http.ResponseWriter, r *http.Request) (questionRequest, bool) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondDomainError(w, entities.NewValidationError("invalid JSON body", err))
		return req, false
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, string(entities.KindValidation), "validation failed", validationDetails(err))
		return req, false
	}
	return req, true
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := s.decodeQuestion(w, r)
	if !ok {
		return
	}

	res, err := s.app.Ask(r.Context(), req.toEntity())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, askResponse{
		AnswerResult: res,
		Count:        len(res.Sources),
		ResponseTime: elapsedSeconds(start),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuestion(w, r)
	if !ok {
		return
	}

	results, err := s.app.Search(r.Context(), req.toEntity())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, searchResponse{Query: req.Question, Results: results, Count: len(results)})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := paging(w, r)
	if !ok {
		return
	}
	docs, err := s.app.Audit.ListDocuments(r.Context(), limit, offset)
	if err != nil {
		s.respondDomainError(w, fmt.Errorf("listing documents: %w", err))
		return
	}
	respondJSON(w, http.StatusOK, listResponse[ports.DocumentRecord]{Items: docs, Limit: limit, Offset: offset})
}

func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := paging(w, r)
	if !ok {
		return
	}
	queries, err := s.app.Audit.ListQueries(r.Context(), limit, offset)
	if err != nil {
		s.respondDomainError(w, fmt.Errorf("listing queries: %w", err))
		return
	}
	respondJSON(w, http.StatusOK, listResponse[ports.QueryRecord]{Items: queries, Limit: limit, Offset: offset})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.app.Stats(r.Context())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.app.Health(r.Context())
	status := http.StatusOK
	if !h.Healthy() {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, h)
}

// paging reads limit (1..100, default 50) and offset (>= 0).
func paging(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit, offset = 50, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			respondError(w, http.StatusBadRequest, string(entities.KindValidation), "limit must be between 1 and 100", nil)
			return 0, 0, false
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, string(entities.KindValidation), "offset must be non-negative", nil)
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}
