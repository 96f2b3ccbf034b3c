package dispatch

import (
	"context"
	"fmt"

	"github.com/praxislegal/praxis/internal/domain"
	"github.com/praxislegal/praxis/internal/template"
	"github.com/praxislegal/praxis/internal/validation"
)

// SendInvoice runs the invoice pipeline. The client reference is
// mandatory and recipients default to the client's stored address; the
// content comes from a stored invoice template or the built-in one.
// A successful send also leaves a billing activity on the client
// timeline.
func (d *Dispatcher) SendInvoice(ctx context.Context, user *domain.UserIdentity, req *domain.InvoiceEmailRequest) (*SendResult, error) {
	const op = "dispatch.send_invoice"

	if errs := validation.ValidateInvoiceRequest(req); len(errs) > 0 {
		return nil, domain.NewValidationError(op, errs)
	}

	client, matter, err := d.resolveClientAndMatter(ctx, user, req.ClientID, req.MatterID)
	if err != nil {
		return nil, err
	}
	if err := defaultRecipients(&req.EmailSendRequest, client); err != nil {
		return nil, err
	}

	validation.SanitizeSendRequest(&req.EmailSendRequest)

	vars := template.InvoiceVariables{
		Base:          d.baseVariables(user, client, matter, req.Variables),
		InvoiceNumber: req.InvoiceNumber,
		AmountDue:     req.AmountDue,
		DueDate:       req.DueDate,
		PDFURL:        req.InvoicePDFURL,
	}.Map()

	var content *resolvedContent
	if req.TemplateID != "" {
		content, err = d.resolveStoredTemplate(ctx, req.TemplateID, domain.TemplateCategoryInvoice, vars)
		if err != nil {
			return nil, err
		}
	} else {
		content = d.resolveCategoryTemplate(ctx, domain.TemplateCategoryInvoice, template.InvoiceDefault(), vars)
	}

	content, err = finalize(content, req.Subject, fmt.Sprintf("Invoice %s", req.InvoiceNumber))
	if err != nil {
		return nil, err
	}

	msg, err := d.buildMessage(&req.EmailSendRequest, content, string(domain.EmailTypeInvoice))
	if err != nil {
		return nil, err
	}

	entry := d.newLogEntry(user, client, matter, &req.EmailSendRequest, content, domain.EmailTypeInvoice)
	entry.Metadata["invoice_id"] = req.InvoiceID
	entry.Metadata["invoice_number"] = req.InvoiceNumber
	entry.Metadata["amount_due"] = req.AmountDue
	entry.Metadata["due_date"] = req.DueDate

	result, err := d.deliver(ctx, entry, msg)
	if err != nil {
		return result, err
	}

	activity := &domain.CommunicationActivity{
		UserID:       user.ID,
		ClientID:     client.ID,
		ActivityType: domain.ActivityEmail,
		Direction:    "outbound",
		Subject:      content.Subject,
		Description:  fmt.Sprintf("Invoice %s sent to %s", req.InvoiceNumber, client.Name),
		Participants: activityParticipants(user, client, req.To),
		Metadata: map[string]any{
			"email_log_id":   result.EmailID.String(),
			"invoice_id":     req.InvoiceID,
			"invoice_number": req.InvoiceNumber,
			"amount_due":     req.AmountDue,
		},
	}
	if matter != nil {
		activity.MatterID = &matter.ID
	}
	d.recordActivity(ctx, activity, result.EmailID)

	result.Message = fmt.Sprintf("invoice %s sent to %s", req.InvoiceNumber, client.Name)
	return result, nil
}

// activityParticipants lists the attorney and the addressed client.
func activityParticipants(user *domain.UserIdentity, client *domain.Client, to []string) []domain.Participant {
	clientEmail := client.Email
	if clientEmail == "" && len(to) > 0 {
		clientEmail = to[0]
	}
	return []domain.Participant{
		{Name: user.FullName(), Email: user.Email, Role: "attorney"},
		{Name: client.Name, Email: clientEmail, Role: "client"},
	}
}
