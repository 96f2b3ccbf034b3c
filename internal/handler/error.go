package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/praxislegal/praxis/internal/domain"
	"github.com/praxislegal/praxis/internal/middleware"
)

// ErrorResponse is the JSON error envelope of the API. Errors is only
// populated for validation failures; EmailID only when a pending log row
// was written before the failure.
type ErrorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
	EmailID string              `json:"email_id,omitempty"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.ENOTIMPL:
		return http.StatusNotImplemented // 501
	case domain.EINTERNAL, domain.ETRANSPORT:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// writeError renders err as the JSON error envelope and logs it. emailID
// may be empty; when set it names the log row of a failed send so the
// caller can correlate with support.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, emailID string) {
	resp := ErrorResponse{Message: domain.ErrorMessage(err)}
	status := ErrorCodeToHTTPStatus(domain.ErrorCode(err))

	if fields := domain.GetValidationFields(err); fields != nil {
		status = http.StatusBadRequest
		resp.Message = "validation failed"
		resp.Errors = fields
	}
	resp.EmailID = emailID

	attrs := []any{
		"error", err.Error(),
		"op", domain.ErrorOp(err),
		"path", r.URL.Path,
		"status", status,
	}
	if reqID := middleware.GetRequestID(r.Context()); reqID != "" {
		attrs = append(attrs, "request_id", reqID)
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
