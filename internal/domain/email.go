package domain

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// EmailType categorizes a send attempt in the email log.
type EmailType string

const (
	EmailTypeGeneral       EmailType = "general"
	EmailTypeInvoice       EmailType = "invoice"
	EmailTypeCommunication EmailType = "communication"
	EmailTypeNotification  EmailType = "notification"
	EmailTypeMarketing     EmailType = "marketing"
)

// EmailStatus is the lifecycle state of an EmailLogEntry.
//
// pending -> sent -> (delivered | bounced | complained)
// pending -> failed
//
// Only pending->sent and pending->failed are driven by the dispatch
// pipeline; the later transitions are reserved for a provider webhook
// handler that does not exist yet.
type EmailStatus string

const (
	EmailStatusPending    EmailStatus = "pending"
	EmailStatusSent       EmailStatus = "sent"
	EmailStatusFailed     EmailStatus = "failed"
	EmailStatusDelivered  EmailStatus = "delivered"
	EmailStatusBounced    EmailStatus = "bounced"
	EmailStatusComplained EmailStatus = "complained"
)

// CanTransitionTo reports whether the status machine permits moving to next.
func (s EmailStatus) CanTransitionTo(next EmailStatus) bool {
	switch s {
	case EmailStatusPending:
		return next == EmailStatusSent || next == EmailStatusFailed
	case EmailStatusSent:
		return next == EmailStatusDelivered || next == EmailStatusBounced || next == EmailStatusComplained
	default:
		return false
	}
}

// Priority is the requested delivery priority of a message.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

// CommunicationType selects the built-in template for a client communication.
type CommunicationType string

const (
	CommunicationStatusUpdate        CommunicationType = "status_update"
	CommunicationMeetingConfirmation CommunicationType = "meeting_confirmation"
	CommunicationDocumentRequest     CommunicationType = "document_request"
	CommunicationGeneral             CommunicationType = "general"
	CommunicationBilling             CommunicationType = "billing"
)

// Valid reports whether t is one of the known communication types.
func (t CommunicationType) Valid() bool {
	switch t {
	case CommunicationStatusUpdate, CommunicationMeetingConfirmation,
		CommunicationDocumentRequest, CommunicationGeneral, CommunicationBilling:
		return true
	}
	return false
}

// ActivityType classifies a CommunicationActivity entry.
type ActivityType string

const (
	ActivityEmail   ActivityType = "email"
	ActivityCall    ActivityType = "call"
	ActivityMeeting ActivityType = "meeting"
	ActivityNote    ActivityType = "note"
	ActivityTask    ActivityType = "task"
)

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityEmail, ActivityCall, ActivityMeeting, ActivityNote, ActivityTask:
		return true
	}
	return false
}

// AttachmentPayload is a base64-encoded file attachment on a send request.
type AttachmentPayload struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

// Size returns the decoded size of the attachment content in bytes.
func (a AttachmentPayload) Size() int {
	return base64.StdEncoding.DecodedLen(len(a.Content))
}

// EmailSendRequest is the transient inbound payload of a send endpoint.
// Specialized endpoints embed it and layer additional required fields.
type EmailSendRequest struct {
	To          []string            `json:"to"`
	Cc          []string            `json:"cc,omitempty"`
	Bcc         []string            `json:"bcc,omitempty"`
	Subject     string              `json:"subject"`
	HTMLBody    string              `json:"html,omitempty"`
	TextBody    string              `json:"text,omitempty"`
	TemplateID  string              `json:"template_id,omitempty"`
	Variables   map[string]string   `json:"variables,omitempty"`
	Attachments []AttachmentPayload `json:"attachments,omitempty"`
	Priority    Priority            `json:"priority,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Headers     map[string]string   `json:"headers,omitempty"`
	ReplyTo     string              `json:"reply_to,omitempty"`
	From        string              `json:"from,omitempty"`
	ClientID    string              `json:"client_id,omitempty"`
	MatterID    string              `json:"matter_id,omitempty"`
}

// HasContent reports whether the request supplies any message content.
func (r *EmailSendRequest) HasContent() bool {
	return r.HTMLBody != "" || r.TextBody != "" || r.TemplateID != ""
}

// InvoiceEmailRequest is the payload of the invoice send endpoint.
type InvoiceEmailRequest struct {
	EmailSendRequest
	InvoiceID     string  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	AmountDue     float64 `json:"amount_due"`
	DueDate       string  `json:"due_date"`
	InvoicePDFURL string  `json:"invoice_pdf_url,omitempty"`
}

// CommunicationEmailRequest is the payload of the client-communication
// send endpoint.
type CommunicationEmailRequest struct {
	EmailSendRequest
	CommunicationType CommunicationType `json:"communication_type"`
	ActivityType      ActivityType      `json:"activity_type,omitempty"`
	Billable          bool              `json:"billable,omitempty"`
	BillableHours     float64           `json:"billable_hours,omitempty"`
	FollowUpRequired  bool              `json:"follow_up_required,omitempty"`
	FollowUpDate      string            `json:"follow_up_date,omitempty"`
}

// EmailLogEntry is the persisted audit record of one send attempt.
// A row is written in pending state before the transport call, so every
// attempted send leaves a trace even if the process dies mid-flight.
type EmailLogEntry struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	ClientID          *uuid.UUID
	MatterID          *uuid.UUID
	EmailType         EmailType
	To                []string
	Cc                []string
	Bcc               []string
	Subject           string
	HTMLBody          string
	TextBody          string
	TemplateID        *uuid.UUID
	TemplateVariables map[string]string
	Status            EmailStatus
	ExternalID        string
	ErrorMessage      string
	Metadata          map[string]any
	CreatedAt         time.Time
	SentAt            *time.Time
	DeliveredAt       *time.Time
	BouncedAt         *time.Time
	ComplainedAt      *time.Time
}

// StatusUpdate carries the fields of an email log status transition.
type StatusUpdate struct {
	Status       EmailStatus
	ExternalID   string
	ErrorMessage string
}

// EmailLogService persists email log rows and their status transitions.
type EmailLogService interface {
	// InsertLog writes a new log row and returns it with its generated id.
	InsertLog(ctx context.Context, entry *EmailLogEntry) (*EmailLogEntry, error)

	// UpdateLogStatus applies a status transition to an existing row,
	// stamping the matching lifecycle timestamp. Illegal transitions
	// return an EINVALID error.
	UpdateLogStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) error
}
