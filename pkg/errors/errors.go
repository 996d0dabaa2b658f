// Package errors defines the domain error vocabulary shared by services,
// stores, and transport. Services return *Error values; transport maps the
// code to an HTTP status without inspecting messages.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code classifies an error for transport mapping and caller branching.
type Code string

const (
	CodeBadRequest     Code = "BAD_REQUEST"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeForbidden      Code = "FORBIDDEN"
	CodeInvalidState   Code = "INVALID_STATE"
	CodeComplianceGate Code = "COMPLIANCE_GATE"
	CodeInternal       Code = "INTERNAL"
)

// Violation is a single field/code/message triple. Input validation and
// compliance gates report every violation at once so the caller can remediate
// in one round trip.
type Violation struct {
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error is the structured error carried across service boundaries.
type Error struct {
	Code       Code        `json:"code"`
	Message    string      `json:"message"`
	Violations []Violation `json:"violations,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, "; "))
}

// New builds a plain coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewWithViolations builds an error carrying the full violation list. The list
// is never truncated to the first failure.
func NewWithViolations(code Code, message string, violations []Violation) *Error {
	return &Error{Code: code, Message: message, Violations: violations}
}

// CodeOf extracts the Code from any error, defaulting to CodeInternal for
// errors produced outside this package.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// ViolationsOf returns the violation list when err carries one.
func ViolationsOf(err error) []Violation {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Violations
	}
	return nil
}

// HTTPStatus maps a code to its transport status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidState:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeComplianceGate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
