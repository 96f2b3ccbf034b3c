// Package handler holds the HTTP handlers of the send API.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/praxislegal/praxis/internal/dispatch"
	"github.com/praxislegal/praxis/internal/domain"
	"github.com/praxislegal/praxis/internal/middleware"
)

// SendResponse is the JSON success envelope of the send endpoints.
type SendResponse struct {
	Success    bool                      `json:"success"`
	EmailID    string                    `json:"email_id"`
	ExternalID string                    `json:"external_id,omitempty"`
	Message    string                    `json:"message"`
	RateLimit  *middleware.RateLimitInfo `json:"rate_limit,omitempty"`
}

// EmailHandler serves the three send endpoints.
type EmailHandler struct {
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

// NewEmailHandler creates an EmailHandler.
func NewEmailHandler(dispatcher *dispatch.Dispatcher, logger *slog.Logger) *EmailHandler {
	return &EmailHandler{dispatcher: dispatcher, logger: logger}
}

// SendEmail handles POST /api/send-email.
func (h *EmailHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req domain.EmailSendRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.dispatcher.SendGeneral(r.Context(), user, &req)
	h.respond(w, r, result, err)
}

// SendInvoiceEmail handles POST /api/send-invoice-email.
func (h *EmailHandler) SendInvoiceEmail(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req domain.InvoiceEmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.dispatcher.SendInvoice(r.Context(), user, &req)
	h.respond(w, r, result, err)
}

// SendClientCommunication handles POST /api/send-client-communication.
func (h *EmailHandler) SendClientCommunication(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req domain.CommunicationEmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.dispatcher.SendCommunication(r.Context(), user, &req)
	h.respond(w, r, result, err)
}

// requireUser loads the authenticated user placed by the auth middleware.
// A missing user means the route was wired without BearerAuth.
func (h *EmailHandler) requireUser(w http.ResponseWriter, r *http.Request) (*domain.UserIdentity, bool) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, r, h.logger,
			domain.Unauthorized("handler.require_user", "authentication required"), "")
		return nil, false
	}
	return user, true
}

// decode parses the JSON request body, rejecting unparseable payloads
// with 400.
func (h *EmailHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, h.logger,
			domain.Invalid("handler.decode", "request body is not valid JSON"), "")
		return false
	}
	return true
}

// respond renders a dispatch outcome. A failed send may still carry the
// id of the pending log row; it is echoed so the failure can be traced.
func (h *EmailHandler) respond(w http.ResponseWriter, r *http.Request, result *dispatch.SendResult, err error) {
	if err != nil {
		var emailID string
		if result != nil && result.EmailID != uuid.Nil {
			emailID = result.EmailID.String()
		}
		writeError(w, r, h.logger, err, emailID)
		return
	}

	writeJSON(w, http.StatusOK, SendResponse{
		Success:    true,
		EmailID:    result.EmailID.String(),
		ExternalID: result.ExternalID,
		Message:    result.Message,
		RateLimit:  middleware.GetRateLimitInfo(r.Context()),
	})
}
