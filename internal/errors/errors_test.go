package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(CodeTaskNotFound, "Task not found")
	assert.Contains(t, err.Error(), "TASK_NOT_FOUND")
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "Task not found")
}

func TestAPIError_WithWrapped(t *testing.T) {
	inner := errors.New("connection refused")
	err := &APIError{Code: CodeInternal, StatusCode: 500, Message: "fail", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStatusFor(t *testing.T) {
	cases := map[Code]int{
		CodeTaskNotFound:         http.StatusNotFound,
		CodeProjectNotFound:      http.StatusNotFound,
		CodeMissingRequiredField: http.StatusBadRequest,
		CodeInvalidCategory:      http.StatusBadRequest,
		CodeInvalidStatus:        http.StatusBadRequest,
		CodePrerequisiteMissing:  http.StatusBadRequest,
		CodeVersionConflict:      http.StatusConflict,
		CodeUnauthorized:         http.StatusUnauthorized,
		CodeRateLimited:          http.StatusTooManyRequests,
		CodeInternal:             http.StatusInternalServerError,
		Code("SOMETHING_ELSE"):   http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusFor(code), code)
	}
}

func TestConstructors(t *testing.T) {
	err := InvalidCategory("weapons", []string{"game_mechanic", "economy", "growth"})
	assert.Equal(t, "Invalid category: weapons", err.Message)
	require.NotNil(t, err.Details)
	assert.Equal(t, "Valid categories are: game_mechanic, economy, growth", err.Details.Guidance)
	assert.Equal(t, "weapons", err.Details.Value)

	nf := TaskNotFound("t-1")
	assert.Equal(t, http.StatusNotFound, nf.StatusCode)
	assert.Equal(t, "taskId", nf.Details.Field)

	pm := PrerequisiteMissing("designDocument", "Design Document is required to generate PRD", "complete_design", "", "design")
	assert.Equal(t, CodePrerequisiteMissing, pm.Code)
	assert.Equal(t, "complete_design", pm.Details.Action)

	vc := VersionConflict(2, 3)
	assert.ErrorIs(t, vc, ErrVersionConflict)
	assert.Equal(t, http.StatusConflict, vc.StatusCode)
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("saving: %w", TaskNotFound("x"))
	assert.True(t, HasCode(wrapped, CodeTaskNotFound))
	assert.False(t, HasCode(wrapped, CodeInvalidStatus))
	assert.False(t, HasCode(errors.New("plain"), CodeTaskNotFound))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&APIError{StatusCode: 429}))
	assert.True(t, IsRetryable(&APIError{StatusCode: 502}))
	assert.True(t, IsRetryable(&APIError{StatusCode: 503}))
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(ErrUnavailable))

	assert.False(t, IsRetryable(TaskNotFound("x")))
	assert.False(t, IsRetryable(VersionConflict(1, 2)))
	assert.False(t, IsRetryable(ErrInvalidInput))
}
