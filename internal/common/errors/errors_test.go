package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.errors = append(l.errors, msg) }

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ==========================
// Mapping Tests
// ==========================

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeInvalidRequestBody, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeInvalidToken, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeQueryExecutionFailed, http.StatusInternalServerError},
		{ErrCodeServerMisconfigured, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.code))
		})
	}
}

func TestAsStandardError(t *testing.T) {
	assert.Nil(t, AsStandardError(nil))

	plain := AsStandardError(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)

	wrapped := fmt.Errorf("outer: %w", NewNotFoundError("Review not found"))
	std := AsStandardError(wrapped)
	assert.Equal(t, ErrCodeNotFound, std.Code)
	assert.Equal(t, "Review not found", std.Message)
}

func TestQueryExecutionFailedError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewQueryExecutionFailedError("cafes", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "QUERY_EXECUTION_FAILED")
	assert.Equal(t, "DATABASE", GetErrorCategory(err.Code))
}

// ==========================
// Response Tests
// ==========================

func TestErrorHandler_ValidationBody(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log, false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cafes?page=0", nil)

	h.HandleHTTPError(rec, req, NewValidationError("Invalid parameters", []FieldError{
		{Field: "page", Message: "must be at least 1"},
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid parameters", body["error"])
	details := body["details"].([]interface{})
	require.Len(t, details, 1)
	assert.Equal(t, "page", details[0].(map[string]interface{})["field"])
	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)
}

func TestErrorHandler_ServerFailureHidesDetails(t *testing.T) {
	tests := []struct {
		name          string
		exposeDetails bool
		wantDetails   bool
	}{
		{name: "production", exposeDetails: false, wantDetails: false},
		{name: "development", exposeDetails: true, wantDetails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			h := NewErrorHandler(log, tt.exposeDetails)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)

			h.HandleHTTPError(rec, req, NewQueryExecutionFailedError("reviews", fmt.Errorf("pq: relation missing")))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "Internal server error", body["error"])
			_, has := body["details"]
			assert.Equal(t, tt.wantDetails, has)
			assert.Len(t, log.errors, 1)
		})
	}
}

func TestErrorHandler_MisconfigurationMessage(t *testing.T) {
	h := NewErrorHandler(&recordingLogger{}, false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/external/api/cafes", nil)

	h.HandleHTTPError(rec, req, NewServerMisconfiguredError("api token not configured"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server misconfiguration", decodeBody(t, rec)["error"])
}
