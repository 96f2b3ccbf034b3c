package validation

import (
	"fmt"
	"regexp"
	"time"

	"github.com/praxislegal/praxis/internal/domain"
)

// Attachment and content limits enforced on inbound send requests.
const (
	MaxSubjectLength      = 255
	MaxAttachmentCount    = 20
	MaxAttachmentSize     = 10 * 1024 * 1024 // per file
	MaxTotalAttachmentSize = 25 * 1024 * 1024
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether addr has the shape local@domain.tld.
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}

// ValidateSendRequest checks a generic send request and returns every
// failed field check. An empty result means the request is valid.
// Validation never returns an error or panics; callers map a non-empty
// list to HTTP 400.
func ValidateSendRequest(req *domain.EmailSendRequest) []domain.FieldError {
	errs := validateCommon(req, true)

	// The generic endpoint carries the caller's own message, so a
	// subject is required unless a stored template will supply one.
	if req.Subject == "" && req.TemplateID == "" {
		errs = append(errs, required("subject"))
	}

	return errs
}

// ValidateInvoiceRequest checks an invoice send request. Subject and
// content are optional because the invoice template supplies both.
func ValidateInvoiceRequest(req *domain.InvoiceEmailRequest) []domain.FieldError {
	errs := validateCommon(&req.EmailSendRequest, false)

	if req.InvoiceID == "" {
		errs = append(errs, required("invoice_id"))
	}
	if req.ClientID == "" {
		errs = append(errs, required("client_id"))
	}
	if req.InvoiceNumber == "" {
		errs = append(errs, required("invoice_number"))
	}
	if req.AmountDue < 0 {
		errs = append(errs, domain.FieldError{
			Field:   "amount_due",
			Message: "amount due must not be negative",
			Code:    domain.CodeNegativeValue,
		})
	}
	if req.DueDate == "" {
		errs = append(errs, required("due_date"))
	} else if _, err := ParseDate(req.DueDate); err != nil {
		errs = append(errs, invalidDate("due_date"))
	}

	return errs
}

// ValidateCommunicationRequest checks a client-communication send request.
// Subject and content are optional because each communication type has a
// built-in default template.
func ValidateCommunicationRequest(req *domain.CommunicationEmailRequest) []domain.FieldError {
	errs := validateCommon(&req.EmailSendRequest, false)

	if req.ClientID == "" {
		errs = append(errs, required("client_id"))
	}
	if req.CommunicationType == "" {
		errs = append(errs, required("communication_type"))
	} else if !req.CommunicationType.Valid() {
		errs = append(errs, invalidValue("communication_type", fmt.Sprintf("unknown communication type %q", req.CommunicationType)))
	}
	if req.ActivityType != "" && !req.ActivityType.Valid() {
		errs = append(errs, invalidValue("activity_type", fmt.Sprintf("unknown activity type %q", req.ActivityType)))
	}
	if req.BillableHours < 0 {
		errs = append(errs, domain.FieldError{
			Field:   "billable_hours",
			Message: "billable hours must not be negative",
			Code:    domain.CodeNegativeValue,
		})
	}
	if req.FollowUpDate != "" {
		if _, err := ParseDate(req.FollowUpDate); err != nil {
			errs = append(errs, invalidDate("follow_up_date"))
		}
	}

	return errs
}

// validateCommon applies the checks shared by every send endpoint.
// strict additionally requires recipients and content; the invoice and
// communication pipelines pass false because they default an empty "to"
// from the client record and fall back to built-in templates.
func validateCommon(req *domain.EmailSendRequest, strict bool) []domain.FieldError {
	var errs []domain.FieldError

	if strict && len(req.To) == 0 {
		errs = append(errs, domain.FieldError{
			Field:   "to",
			Message: "at least one recipient is required",
			Code:    domain.CodeRequiredField,
		})
	}
	errs = append(errs, checkAddressList("to", req.To)...)
	errs = append(errs, checkAddressList("cc", req.Cc)...)
	errs = append(errs, checkAddressList("bcc", req.Bcc)...)

	if len(req.Subject) > MaxSubjectLength {
		errs = append(errs, domain.FieldError{
			Field:   "subject",
			Message: fmt.Sprintf("subject must be at most %d characters", MaxSubjectLength),
			Code:    domain.CodeLengthExceeded,
		})
	}

	if strict && !req.HasContent() {
		errs = append(errs, domain.FieldError{
			Field:   "content",
			Message: "one of html, text or template_id is required",
			Code:    domain.CodeRequiredField,
		})
	}

	if req.Priority != "" && !req.Priority.Valid() {
		errs = append(errs, invalidValue("priority", fmt.Sprintf("priority must be low, normal or high, got %q", req.Priority)))
	}
	if req.From != "" && !ValidEmail(req.From) {
		errs = append(errs, invalidEmail("from", req.From))
	}
	if req.ReplyTo != "" && !ValidEmail(req.ReplyTo) {
		errs = append(errs, invalidEmail("reply_to", req.ReplyTo))
	}

	errs = append(errs, checkAttachments(req.Attachments)...)

	return errs
}

func checkAddressList(field string, addrs []string) []domain.FieldError {
	var errs []domain.FieldError
	for i, addr := range addrs {
		if !ValidEmail(addr) {
			errs = append(errs, invalidEmail(fmt.Sprintf("%s[%d]", field, i), addr))
		}
	}
	return errs
}

func checkAttachments(attachments []domain.AttachmentPayload) []domain.FieldError {
	var errs []domain.FieldError

	if len(attachments) > MaxAttachmentCount {
		errs = append(errs, domain.FieldError{
			Field:   "attachments",
			Message: fmt.Sprintf("at most %d attachments are allowed", MaxAttachmentCount),
			Code:    domain.CodeCountLimitExceeded,
		})
		// Still check the individual entries below so the caller sees
		// every problem in one response.
	}

	total := 0
	for i, att := range attachments {
		field := fmt.Sprintf("attachments[%d]", i)
		if att.Filename == "" {
			errs = append(errs, required(field+".filename"))
		}
		if att.Content == "" {
			errs = append(errs, required(field+".content"))
		}
		if att.ContentType == "" {
			errs = append(errs, required(field+".content_type"))
		}
		size := att.Size()
		total += size
		if size > MaxAttachmentSize {
			errs = append(errs, domain.FieldError{
				Field:   field,
				Message: "attachment exceeds the 10MB per-file limit",
				Code:    domain.CodeSizeLimitExceeded,
			})
		}
	}
	if total > MaxTotalAttachmentSize {
		errs = append(errs, domain.FieldError{
			Field:   "attachments",
			Message: "attachments exceed the 25MB total limit",
			Code:    domain.CodeSizeLimitExceeded,
		})
	}

	return errs
}

// ParseDate parses an ISO date, accepting both date-only and RFC 3339
// timestamp forms.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func required(field string) domain.FieldError {
	return domain.FieldError{
		Field:   field,
		Message: field + " is required",
		Code:    domain.CodeRequiredField,
	}
}

func invalidEmail(field, addr string) domain.FieldError {
	return domain.FieldError{
		Field:   field,
		Message: fmt.Sprintf("%q is not a valid email address", addr),
		Code:    domain.CodeInvalidEmail,
	}
}

func invalidValue(field, message string) domain.FieldError {
	return domain.FieldError{
		Field:   field,
		Message: message,
		Code:    domain.CodeInvalidValue,
	}
}

func invalidDate(field string) domain.FieldError {
	return domain.FieldError{
		Field:   field,
		Message: field + " must be an ISO 8601 date",
		Code:    domain.CodeInvalidDate,
	}
}
