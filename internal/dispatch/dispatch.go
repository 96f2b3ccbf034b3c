// Package dispatch orchestrates the transactional email pipelines: one
// linear request/response flow per endpoint, sharing validation,
// template resolution and the log-before-send lifecycle.
package dispatch

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/praxislegal/praxis/internal/domain"
	"github.com/praxislegal/praxis/internal/email"
	"github.com/praxislegal/praxis/internal/template"
)

// Config holds the sender identity and firm display fields merged into
// templates. Built once at startup from the environment and passed in;
// the pipeline never reads the environment itself.
type Config struct {
	FromAddress string
	FromName    string
	FirmName    string
	FirmAddress string
	FirmPhone   string
	FirmEmail   string
}

// SendResult is the successful outcome of a dispatch, or the partial
// outcome of a failed one (EmailID is set as soon as the pending log row
// exists, so callers can correlate failures).
type SendResult struct {
	EmailID    uuid.UUID
	ExternalID string
	Message    string
}

// Dispatcher runs the send pipelines against the record store and the
// email transport.
type Dispatcher struct {
	clients    domain.ClientService
	templates  domain.TemplateService
	logs       domain.EmailLogService
	activities domain.ActivityService
	sender     email.Sender
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	clients domain.ClientService,
	templates domain.TemplateService,
	logs domain.EmailLogService,
	activities domain.ActivityService,
	sender email.Sender,
	cfg Config,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		clients:    clients,
		templates:  templates,
		logs:       logs,
		activities: activities,
		sender:     sender,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// resolvedContent is the outcome of template/content resolution.
type resolvedContent struct {
	Subject    string
	HTML       string
	Text       string
	TemplateID *uuid.UUID
	Variables  map[string]string
}

// resolveStoredTemplate renders a stored template by id. For invoice and
// communication sends the lookup is constrained to the matching category
// so a caller cannot render, say, a system template into a client email.
func (d *Dispatcher) resolveStoredTemplate(ctx context.Context, templateID string, category domain.TemplateCategory, vars map[string]string) (*resolvedContent, error) {
	id, err := uuid.Parse(templateID)
	if err != nil {
		return nil, domain.Invalid("dispatch.resolve_template", "template_id is not a valid id")
	}

	tmpl, err := d.templates.GetTemplate(ctx, id, category)
	if err != nil {
		return nil, err
	}

	return &resolvedContent{
		Subject:    template.Render(tmpl.SubjectPattern, vars),
		HTML:       template.Render(tmpl.HTMLBody, vars),
		Text:       template.Render(tmpl.TextBody, vars),
		TemplateID: &tmpl.ID,
		Variables:  vars,
	}, nil
}

// renderDefault renders one of the in-code fallback templates.
func renderDefault(def template.Default, vars map[string]string) *resolvedContent {
	return &resolvedContent{
		Subject:   template.Render(def.Subject, vars),
		HTML:      template.Render(def.HTML, vars),
		Variables: vars,
	}
}

// resolveCategoryTemplate prefers the firm's stored template for a
// category, falling back to the built-in default when none is active.
// A store error other than not-found also falls back, logged: a broken
// template table must not block sends.
func (d *Dispatcher) resolveCategoryTemplate(ctx context.Context, category domain.TemplateCategory, def template.Default, vars map[string]string) *resolvedContent {
	tmpl, err := d.templates.GetTemplateByCategory(ctx, category)
	if err != nil {
		if domain.ErrorCode(err) != domain.ENOTFOUND {
			d.logger.Error("stored template lookup failed, using built-in default",
				"category", category, "error", err)
		}
		return renderDefault(def, vars)
	}
	return &resolvedContent{
		Subject:    template.Render(tmpl.SubjectPattern, vars),
		HTML:       template.Render(tmpl.HTMLBody, vars),
		Text:       template.Render(tmpl.TextBody, vars),
		TemplateID: &tmpl.ID,
		Variables:  vars,
	}
}

// finalize fills derived fields of resolved content: the explicit
// request subject wins over the rendered one, missing text bodies are
// derived from HTML, and the rendered sizes are enforced.
func finalize(content *resolvedContent, explicitSubject, fallbackSubject string) (*resolvedContent, error) {
	switch {
	case explicitSubject != "":
		content.Subject = explicitSubject
	case content.Subject != "":
		// keep rendered template subject
	default:
		content.Subject = fallbackSubject
	}

	if content.Text == "" && content.HTML != "" {
		content.Text = template.PlainText(content.HTML)
	}

	if errs := template.ValidateContentSize(content.HTML, content.Text); len(errs) > 0 {
		return nil, domain.NewValidationError("dispatch.finalize", errs)
	}
	return content, nil
}

// buildMessage assembles the transport message from a sanitized request
// and resolved content.
func (d *Dispatcher) buildMessage(req *domain.EmailSendRequest, content *resolvedContent, tag string) (*email.Email, error) {
	from := req.From
	if from == "" {
		from = fmt.Sprintf("%s <%s>", d.cfg.FromName, d.cfg.FromAddress)
	}

	attachments := make([]email.Attachment, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		data, err := base64.StdEncoding.DecodeString(att.Content)
		if err != nil {
			return nil, domain.Invalid("dispatch.build_message",
				fmt.Sprintf("attachment %q is not valid base64", att.Filename))
		}
		attachments = append(attachments, email.Attachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Content:     data,
		})
	}

	headers := make(map[string]string, len(req.Headers)+1)
	for k, v := range req.Headers {
		headers[k] = v
	}
	switch req.Priority {
	case domain.PriorityHigh:
		headers["X-Priority"] = "1"
	case domain.PriorityLow:
		headers["X-Priority"] = "5"
	}

	return &email.Email{
		To:          req.To,
		Cc:          req.Cc,
		Bcc:         req.Bcc,
		From:        from,
		ReplyTo:     req.ReplyTo,
		Subject:     content.Subject,
		HTMLBody:    content.HTML,
		TextBody:    content.Text,
		Attachments: attachments,
		Headers:     headers,
		Tag:         tag,
	}, nil
}

// deliver executes the log-before-send contract: the pending row is
// durably written before the transport call, then flipped to sent or
// failed. A failed transport call returns an ETRANSPORT error alongside
// a partial result carrying the log id for manual correlation.
func (d *Dispatcher) deliver(ctx context.Context, entry *domain.EmailLogEntry, msg *email.Email) (*SendResult, error) {
	entry.Status = domain.EmailStatusPending

	logged, err := d.logs.InsertLog(ctx, entry)
	if err != nil {
		return nil, err
	}

	externalID, sendErr := d.sender.Send(ctx, msg)
	if sendErr != nil {
		update := domain.StatusUpdate{
			Status:       domain.EmailStatusFailed,
			ErrorMessage: sendErr.Error(),
		}
		if uerr := d.logs.UpdateLogStatus(ctx, logged.ID, update); uerr != nil {
			d.logger.Error("failed to mark email log as failed",
				"email_id", logged.ID, "error", uerr)
		}
		return &SendResult{EmailID: logged.ID},
			domain.WrapError(sendErr, domain.ETRANSPORT, "dispatch.deliver", "email provider rejected the message")
	}

	update := domain.StatusUpdate{
		Status:     domain.EmailStatusSent,
		ExternalID: externalID,
	}
	if uerr := d.logs.UpdateLogStatus(ctx, logged.ID, update); uerr != nil {
		// The message went out; losing the status flip is an audit gap,
		// not a send failure.
		d.logger.Error("failed to mark email log as sent",
			"email_id", logged.ID, "external_id", externalID, "error", uerr)
	}

	return &SendResult{EmailID: logged.ID, ExternalID: externalID}, nil
}

// recordActivity writes the derived CommunicationActivity. Best effort:
// a failure here is logged with the email log id and never surfaced,
// because the send already succeeded and must stay reported as such.
func (d *Dispatcher) recordActivity(ctx context.Context, activity *domain.CommunicationActivity, emailID uuid.UUID) {
	if _, err := d.activities.InsertActivity(ctx, activity); err != nil {
		d.logger.Error("failed to record communication activity",
			"email_id", emailID, "client_id", activity.ClientID, "error", err)
	}
}

// baseVariables builds the merge-field set shared by every pipeline.
func (d *Dispatcher) baseVariables(user *domain.UserIdentity, client *domain.Client, matter *domain.Matter, custom map[string]string) template.BaseVariables {
	vars := template.NewBaseVariables(d.now())
	vars.FirmName = d.firmName(user)
	vars.FirmAddress = d.cfg.FirmAddress
	vars.FirmPhone = d.cfg.FirmPhone
	vars.FirmEmail = d.cfg.FirmEmail
	vars.AttorneyName = user.FullName()
	vars.AttorneyEmail = user.Email
	if client != nil {
		vars.ClientName = client.Name
	}
	if matter != nil {
		vars.MatterTitle = matter.Title
		vars.MatterNumber = matter.MatterNumber
	}
	vars.Custom = custom
	return vars
}

// firmName prefers the authenticated user's firm over the configured
// default.
func (d *Dispatcher) firmName(user *domain.UserIdentity) string {
	if user.FirmName != "" {
		return user.FirmName
	}
	return d.cfg.FirmName
}

// resolveClientAndMatter loads the client (and matter, when referenced)
// with ownership enforced, and verifies the matter belongs to the
// client named in the request.
func (d *Dispatcher) resolveClientAndMatter(ctx context.Context, user *domain.UserIdentity, clientID, matterID string) (*domain.Client, *domain.Matter, error) {
	cid, err := uuid.Parse(clientID)
	if err != nil {
		return nil, nil, domain.Invalid("dispatch.resolve_client", "client_id is not a valid id")
	}
	client, err := d.clients.GetClient(ctx, user.ID, cid)
	if err != nil {
		return nil, nil, err
	}

	var matter *domain.Matter
	if matterID != "" {
		mid, err := uuid.Parse(matterID)
		if err != nil {
			return nil, nil, domain.Invalid("dispatch.resolve_client", "matter_id is not a valid id")
		}
		matter, err = d.clients.GetMatter(ctx, user.ID, mid)
		if err != nil {
			return nil, nil, err
		}
		if matter.ClientID != client.ID {
			return nil, nil, domain.NotFound("dispatch.resolve_client", "matter", matterID)
		}
	}

	return client, matter, nil
}

// defaultRecipients fills an empty "to" list from the client's stored
// email address.
func defaultRecipients(req *domain.EmailSendRequest, client *domain.Client) error {
	if len(req.To) > 0 {
		return nil
	}
	if client.Email == "" {
		return domain.Invalid("dispatch.recipients", "no recipient email address found")
	}
	req.To = []string{client.Email}
	return nil
}

// parseOptionalDate converts an already-validated ISO date string.
func parseOptionalDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return nil
		}
	}
	return &t
}
