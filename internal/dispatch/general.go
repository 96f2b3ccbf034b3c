package dispatch

import (
	"context"

	"github.com/praxislegal/praxis/internal/domain"
	"github.com/praxislegal/praxis/internal/template"
	"github.com/praxislegal/praxis/internal/validation"
)

// SendGeneral runs the generic send pipeline. The caller supplies the
// recipients and the content (raw bodies or a stored template); client
// and matter references are optional tagging.
func (d *Dispatcher) SendGeneral(ctx context.Context, user *domain.UserIdentity, req *domain.EmailSendRequest) (*SendResult, error) {
	const op = "dispatch.send_general"

	if errs := validation.ValidateSendRequest(req); len(errs) > 0 {
		return nil, domain.NewValidationError(op, errs)
	}

	var (
		client *domain.Client
		matter *domain.Matter
		err    error
	)
	if req.ClientID != "" {
		client, matter, err = d.resolveClientAndMatter(ctx, user, req.ClientID, req.MatterID)
		if err != nil {
			return nil, err
		}
	}

	validation.SanitizeSendRequest(req)

	vars := d.baseVariables(user, client, matter, req.Variables).Map()

	var content *resolvedContent
	switch {
	case req.TemplateID != "":
		content, err = d.resolveStoredTemplate(ctx, req.TemplateID, "", vars)
		if err != nil {
			return nil, err
		}
	case req.HTMLBody == "":
		// Text-only sends still go out with a branded HTML rendition,
		// from the firm's stored notification template when one exists.
		nvars := make(map[string]string, len(vars)+1)
		for k, v := range vars {
			nvars[k] = v
		}
		nvars["message"] = req.TextBody
		content = d.resolveCategoryTemplate(ctx, domain.TemplateCategoryNotification, template.NotificationDefault(), nvars)
		content.Text = req.TextBody
		content.Variables = vars
	default:
		content = &resolvedContent{
			HTML:      req.HTMLBody,
			Text:      req.TextBody,
			Variables: vars,
		}
	}

	content, err = finalize(content, req.Subject, "Message from "+d.firmName(user))
	if err != nil {
		return nil, err
	}

	msg, err := d.buildMessage(req, content, string(domain.EmailTypeGeneral))
	if err != nil {
		return nil, err
	}

	entry := d.newLogEntry(user, client, matter, req, content, domain.EmailTypeGeneral)
	result, err := d.deliver(ctx, entry, msg)
	if err != nil {
		return result, err
	}

	result.Message = "email sent"
	return result, nil
}

// newLogEntry builds the pending audit row shared by every pipeline.
func (d *Dispatcher) newLogEntry(user *domain.UserIdentity, client *domain.Client, matter *domain.Matter, req *domain.EmailSendRequest, content *resolvedContent, emailType domain.EmailType) *domain.EmailLogEntry {
	entry := &domain.EmailLogEntry{
		UserID:            user.ID,
		EmailType:         emailType,
		To:                req.To,
		Cc:                req.Cc,
		Bcc:               req.Bcc,
		Subject:           content.Subject,
		HTMLBody:          content.HTML,
		TextBody:          content.Text,
		TemplateID:        content.TemplateID,
		TemplateVariables: content.Variables,
		Metadata:          map[string]any{},
	}
	if client != nil {
		entry.ClientID = &client.ID
	}
	if matter != nil {
		entry.MatterID = &matter.ID
	}
	if req.Priority != "" {
		entry.Metadata["priority"] = string(req.Priority)
	}
	if len(req.Tags) > 0 {
		entry.Metadata["tags"] = req.Tags
	}
	if len(req.Attachments) > 0 {
		entry.Metadata["attachment_count"] = len(req.Attachments)
	}
	return entry
}
