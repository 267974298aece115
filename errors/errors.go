package errors

import (
	"fmt"
	"net/http"
)

// Kind is the stable error category exposed to API clients.
type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindInvalidInput      Kind = "invalid_input"
	KindUnsupportedSource Kind = "unsupported_source"
	KindNotFound          Kind = "not_found"
	KindFetch             Kind = "fetch_error"
	KindExtraction        Kind = "extraction_error"
	KindTranscription     Kind = "transcription_error"
	KindSummarization     Kind = "summarization_error"
	KindPackaging         Kind = "packaging_error"
	KindInternal          Kind = "internal"
)

// AppError carries an HTTP status, a stable category, and a message safe to
// return to clients. Op and Err stay server-side for logging.
type AppError struct {
	Code    int    `json:"-"`
	Kind    Kind   `json:"category"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(code int, kind Kind, op string, err error, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return newError(http.StatusBadRequest, KindInvalidInput, op, err, message)
}

func UnsupportedSource(op string, message string) *AppError {
	return newError(http.StatusBadRequest, KindUnsupportedSource, op, nil, message)
}

func Unauthorized(op string, err error) *AppError {
	return newError(http.StatusUnauthorized, KindUnauthorized, op, err, "Could not validate credentials")
}

func NotFound(op string, err error, message string) *AppError {
	return newError(http.StatusNotFound, KindNotFound, op, err, message)
}

func Fetch(op string, err error, message string) *AppError {
	return newError(http.StatusBadGateway, KindFetch, op, err, message)
}

func Extraction(op string, err error, message string) *AppError {
	return newError(http.StatusInternalServerError, KindExtraction, op, err, message)
}

func Transcription(op string, err error, message string) *AppError {
	return newError(http.StatusInternalServerError, KindTranscription, op, err, message)
}

func Summarization(op string, err error, message string) *AppError {
	return newError(http.StatusBadGateway, KindSummarization, op, err, message)
}

func Packaging(op string, err error, message string) *AppError {
	return newError(http.StatusInternalServerError, KindPackaging, op, err, message)
}

func Internal(op string, err error, message string) *AppError {
	return newError(http.StatusInternalServerError, KindInternal, op, err, message)
}
