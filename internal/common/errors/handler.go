// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorHandler turns errors into JSON error responses.
type ErrorHandler struct {
	logger        Logger
	exposeDetails bool
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorBody is the wire shape of every non-2xx JSON response.
type ErrorBody struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// NewErrorHandler creates a handler. When exposeDetails is false, server-side
// failures are reported without their underlying cause.
func NewErrorHandler(logger Logger, exposeDetails bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, exposeDetails: exposeDetails}
}

// HandleHTTPError normalizes err, logs it and writes the response.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := AsStandardError(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(r, stdErr, status)

	WriteJSON(w, status, h.body(stdErr, status))
}

func (h *ErrorHandler) body(stdErr *StandardError, status int) ErrorBody {
	switch {
	case len(stdErr.Fields) > 0:
		return ErrorBody{Error: stdErr.Message, Details: stdErr.Fields}
	case status >= http.StatusInternalServerError && stdErr.Code != ErrCodeServerMisconfigured:
		body := ErrorBody{Error: "Internal server error"}
		if h.exposeDetails && stdErr.Details != "" {
			body.Details = stdErr.Details
		}
		return body
	case status == http.StatusBadRequest && stdErr.Details != "":
		return ErrorBody{Error: stdErr.Message, Details: stdErr.Details}
	default:
		return ErrorBody{Error: stdErr.Message}
	}
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if IsClientError(stdErr.Code) {
		h.logger.Warn("request rejected", fields)
		return
	}
	h.logger.Error("request failed", fields)
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
