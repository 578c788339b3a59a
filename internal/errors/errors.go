// Package errors provides the structured error taxonomy of the board API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout         = errors.New("operation timed out")
	ErrUnavailable     = errors.New("service unavailable")
	ErrVersionConflict = errors.New("version conflict")
	ErrInvalidInput    = errors.New("invalid input")
)

// Code is the machine-readable error code carried in the response envelope.
type Code string

const (
	CodeTaskNotFound         Code = "TASK_NOT_FOUND"
	CodeProjectNotFound      Code = "PROJECT_NOT_FOUND"
	CodeArchiveNotFound      Code = "ARCHIVE_NOT_FOUND"
	CodeDocumentNotFound     Code = "DOCUMENT_NOT_FOUND"
	CodeMissingRequiredField Code = "MISSING_REQUIRED_FIELD"
	CodeInvalidCategory      Code = "INVALID_CATEGORY"
	CodeInvalidStatus        Code = "INVALID_STATUS"
	CodePrerequisiteMissing  Code = "PREREQUISITE_MISSING"
	CodeInvalidInput         Code = "INVALID_INPUT"
	CodeVersionConflict      Code = "VERSION_CONFLICT"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeForbidden            Code = "FORBIDDEN"
	CodeRateLimited          Code = "RATE_LIMITED"
	CodeInternal             Code = "INTERNAL_ERROR"
)

// InternalMessage is the only message exposed for unexpected failures.
const InternalMessage = "An internal error occurred"

// StatusFor maps an error code to its HTTP status.
func StatusFor(code Code) int {
	switch code {
	case CodeTaskNotFound, CodeProjectNotFound, CodeArchiveNotFound, CodeDocumentNotFound:
		return http.StatusNotFound
	case CodeMissingRequiredField, CodeInvalidCategory, CodeInvalidStatus,
		CodePrerequisiteMissing, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeVersionConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Details carries optional structured context about an error.
type Details struct {
	Field         string `json:"field,omitempty"`
	Value         string `json:"value,omitempty"`
	Guidance      string `json:"guidance,omitempty"`
	Action        string `json:"action,omitempty"`
	CurrentStatus string `json:"currentStatus,omitempty"`
}

// APIError is a domain error that renders as an error envelope.
// On the client side StatusCode holds the HTTP status that carried it.
type APIError struct {
	Code       Code
	StatusCode int
	Message    string
	Details    *Details
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (status %d): %s: %v", e.Code, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// New creates an API error with the status derived from code.
func New(code Code, message string) *APIError {
	return &APIError{Code: code, StatusCode: StatusFor(code), Message: message}
}

// WithDetails attaches details and returns the same error.
func (e *APIError) WithDetails(d Details) *APIError {
	e.Details = &d
	return e
}

// TaskNotFound reports an unknown task id.
func TaskNotFound(taskID string) *APIError {
	return New(CodeTaskNotFound, "Task not found").WithDetails(Details{Field: "taskId", Value: taskID})
}

// ProjectNotFound reports an unknown project id.
func ProjectNotFound(projectID string) *APIError {
	return New(CodeProjectNotFound, "Project not found").WithDetails(Details{Field: "projectId", Value: projectID})
}

// ArchiveNotFound reports an unknown archive id.
func ArchiveNotFound(archiveID string) *APIError {
	return New(CodeArchiveNotFound, "Archive not found").WithDetails(Details{Field: "archiveId", Value: archiveID})
}

// DocumentNotFound reports a task without completed documents.
func DocumentNotFound(taskID string) *APIError {
	return New(CodeDocumentNotFound, "Completed document not found").WithDetails(Details{Field: "taskId", Value: taskID})
}

// MissingField reports a required field absent from the request.
func MissingField(field string) *APIError {
	label := field
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	return New(CodeMissingRequiredField, label+" is required").WithDetails(Details{Field: field})
}

// InvalidCategory reports a category outside the known set.
func InvalidCategory(value string, valid []string) *APIError {
	return New(CodeInvalidCategory, "Invalid category: "+value).WithDetails(Details{
		Field:    "category",
		Value:    value,
		Guidance: "Valid categories are: " + strings.Join(valid, ", "),
	})
}

// InvalidStatus reports a status outside the pipeline.
func InvalidStatus(value string, valid []string) *APIError {
	return New(CodeInvalidStatus, "Invalid status: "+value).WithDetails(Details{
		Field:    "status",
		Value:    value,
		Guidance: "Valid statuses are: " + strings.Join(valid, ", "),
	})
}

// PrerequisiteMissing reports a generation whose source document is absent.
func PrerequisiteMissing(field, message, action, guidance, currentStatus string) *APIError {
	return New(CodePrerequisiteMissing, message).WithDetails(Details{
		Field:         field,
		Action:        action,
		Guidance:      guidance,
		CurrentStatus: currentStatus,
	})
}

// InvalidInput reports a malformed request.
func InvalidInput(message string) *APIError {
	return &APIError{Code: CodeInvalidInput, StatusCode: http.StatusBadRequest, Message: message, Err: ErrInvalidInput}
}

// VersionConflict reports a write against a stale task version.
func VersionConflict(expected, actual int64) *APIError {
	return &APIError{
		Code:       CodeVersionConflict,
		StatusCode: http.StatusConflict,
		Message:    fmt.Sprintf("Task was modified (expected version %d, current %d)", expected, actual),
		Details:    &Details{Field: "version", Value: fmt.Sprintf("%d", actual)},
		Err:        ErrVersionConflict,
	}
}

// As extracts an *APIError from err.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// HasCode reports whether err is an APIError with the given code.
func HasCode(err error, code Code) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Code == code
}

// IsRetryable returns true if the error is likely transient and worth retrying.
func IsRetryable(err error) bool {
	if apiErr, ok := As(err); ok {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}
