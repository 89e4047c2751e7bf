package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthenticated is returned when a request has no authenticated session.
var ErrUnauthenticated = errors.New("authentication required")

// FieldError is one failed input rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the structured result of a failed rule set.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether the field failed at least one rule.
func (v ValidationErrors) Has(field string) bool {
	for _, fe := range v {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// UpstreamAPIError is a failed call to the issue tracker API.
// StatusCode is zero when the request never produced a response.
type UpstreamAPIError struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream %s failed: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("upstream %s failed: status=%d %s", e.Operation, e.StatusCode, e.Message)
}

func (e *UpstreamAPIError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the failure to the status surfaced to callers:
// client-class upstream statuses pass through, everything else is a 500.
func (e *UpstreamAPIError) HTTPStatus() int {
	if e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}
