package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	respondJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message, Details: details}})
}

// statusFor maps a domain error kind to an HTTP status.
func statusFor(kind entities.ErrorKind) int {
	switch kind {
	case entities.KindValidation:
		return http.StatusBadRequest
	case entities.KindDuplicate:
		return http.StatusConflict
	case entities.KindExtraction, entities.KindEmptyContent:
		return http.StatusUnprocessableEntity
	case entities.KindIndexUnavailable:
		return http.StatusServiceUnavailable
	case entities.KindAnswerGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// nginx's code for a client that went away before the response.
const statusClientClosedRequest = 499

func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		s.logger.Debug("request canceled", zap.Error(err))
		respondError(w, statusClientClosedRequest, "canceled", "request canceled", nil)
		return
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("request timed out", zap.Error(err))
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out", nil)
		return
	}

	var de *entities.DomainError
	if !errors.As(err, &de) {
		s.logger.Error("internal error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal", "an internal error occurred", nil)
		return
	}
	status := statusFor(de.Kind)
	if status >= 500 {
		s.logger.Error("request failed", zap.String("kind", string(de.Kind)), zap.Error(err))
	}
	respondError(w, status, string(de.Kind), de.Error(), de.Details)
}

// validationDetails turns validator errors into a field -> message map.
func validationDetails(err error) map[string]any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "min":
			fields[field] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "max":
			fields[field] = fmt.Sprintf("%s must be at most %s", field, fe.Param())
		default:
			fields[field] = fmt.Sprintf("%s failed on %q", field, fe.Tag())
		}
	}
	return map[string]any{"fields": fields}
}
