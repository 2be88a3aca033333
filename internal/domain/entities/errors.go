package entities

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes domain failures.
type ErrorKind string

const (
	KindExtraction       ErrorKind = "extraction"
	KindEmptyContent     ErrorKind = "empty_content"
	KindIndexUnavailable ErrorKind = "index_unavailable"
	KindAnswerGeneration ErrorKind = "answer_generation"
	KindValidation       ErrorKind = "validation"
	KindDuplicate        ErrorKind = "duplicate"
)

// DomainError is a structured error: a kind, a human-readable message and an
// optional cause.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
	Details map[string]any
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same kind.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail attaches a key/value to the error.
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error.
func NewDomainError(kind ErrorKind, message string, err error) *DomainError {
	return &DomainError{Kind: kind, Message: message, Err: err}
}

// Sentinels for errors.Is.
var (
	ErrExtraction       = NewDomainError(KindExtraction, "document could not be parsed", nil)
	ErrEmptyContent     = NewDomainError(KindEmptyContent, "document has no extractable text", nil)
	ErrIndexUnavailable = NewDomainError(KindIndexUnavailable, "content index unavailable", nil)
	ErrAnswerGeneration = NewDomainError(KindAnswerGeneration, "answer generation failed", nil)
	ErrInvalidInput     = NewDomainError(KindValidation, "invalid input", nil)
	ErrDuplicate        = NewDomainError(KindDuplicate, "document already ingested", nil)
)

func NewExtractionError(message string, err error) *DomainError {
	return NewDomainError(KindExtraction, message, err)
}

func NewEmptyContentError(message string) *DomainError {
	return NewDomainError(KindEmptyContent, message, nil)
}

func NewIndexUnavailableError(message string, err error) *DomainError {
	return NewDomainError(KindIndexUnavailable, message, err)
}

func NewAnswerGenerationError(message string, err error) *DomainError {
	return NewDomainError(KindAnswerGeneration, message, err)
}

func NewValidationError(message string, err error) *DomainError {
	return NewDomainError(KindValidation, message, err)
}

func NewDuplicateError(existingDocID string) *DomainError {
	return NewDomainError(KindDuplicate, "document already ingested", nil).
		WithDetail("doc_id", existingDocID)
}

// KindOf returns the kind of the first DomainError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsExtractionError(err error) bool       { return errors.Is(err, ErrExtraction) }
func IsEmptyContentError(err error) bool     { return errors.Is(err, ErrEmptyContent) }
func IsIndexUnavailableError(err error) bool { return errors.Is(err, ErrIndexUnavailable) }
func IsAnswerGenerationError(err error) bool { return errors.Is(err, ErrAnswerGeneration) }
func IsValidationError(err error) bool       { return errors.Is(err, ErrInvalidInput) }
func IsDuplicateError(err error) bool        { return errors.Is(err, ErrDuplicate) }
