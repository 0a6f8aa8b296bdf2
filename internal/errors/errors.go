package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError is a request the viewer refuses before touching the dataset: a
// rejected query parameter, an unknown analysis, a throttled client.
// Failures of the dataset itself travel as *AppError.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render sets the response status for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// Codes reported in the error_code member of a problem response.
const (
	CodeInvalidQuery = "INVALID_QUERY"
	CodeNotFound     = "NOT_FOUND"
	CodeNoRegions    = "NO_REGIONS_FOUND"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL"
)

var (
	ErrNoRegions   = New(http.StatusNotFound, CodeNoRegions, "The dataset has no region values")
	ErrRateLimited = New(http.StatusTooManyRequests, CodeRateLimited, "Too many requests, retry shortly")
	// ErrInternal hides the cause of an unexpected failure from the client.
	ErrInternal = New(http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
)

// QueryError names the query parameter that was rejected.
type QueryError struct {
	Param  string `json:"param"`
	Reason string `json:"reason"`
}

func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message, Details: details}
}

// InvalidQuery rejects one query parameter with 400.
func InvalidQuery(param, reason string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidQuery,
		fmt.Sprintf("invalid %s parameter", param), QueryError{Param: param, Reason: reason})
}

// NotFoundError reports an unknown analysis, chart or endpoint resource.
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource), resource)
}
