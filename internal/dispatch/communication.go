package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/praxislegal/praxis/internal/domain"
	"github.com/praxislegal/praxis/internal/template"
	"github.com/praxislegal/praxis/internal/validation"
)

// communicationLabels are the human-readable names used in subjects and
// response messages.
var communicationLabels = map[domain.CommunicationType]string{
	domain.CommunicationStatusUpdate:        "Status update",
	domain.CommunicationMeetingConfirmation: "Meeting confirmation",
	domain.CommunicationDocumentRequest:     "Document request",
	domain.CommunicationGeneral:             "Message",
	domain.CommunicationBilling:             "Billing update",
}

// SendCommunication runs the client-communication pipeline. Each
// communication type carries its own built-in template, and every
// successful send leaves a timeline activity carrying the billing and
// follow-up fields from the request.
func (d *Dispatcher) SendCommunication(ctx context.Context, user *domain.UserIdentity, req *domain.CommunicationEmailRequest) (*SendResult, error) {
	const op = "dispatch.send_communication"

	if errs := validation.ValidateCommunicationRequest(req); len(errs) > 0 {
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

	vars := template.CommunicationVariables{
		Base:    d.baseVariables(user, client, matter, req.Variables),
		Message: communicationMessage(&req.EmailSendRequest),
	}.Map()

	var content *resolvedContent
	if req.TemplateID != "" {
		content, err = d.resolveStoredTemplate(ctx, req.TemplateID, domain.TemplateCategoryCommunication, vars)
		if err != nil {
			return nil, err
		}
	} else {
		content = d.resolveCategoryTemplate(ctx, domain.TemplateCategoryCommunication, template.CommunicationDefault(req.CommunicationType), vars)
	}

	label := communicationLabels[req.CommunicationType]
	content, err = finalize(content, req.Subject, fmt.Sprintf("%s from %s", label, d.firmName(user)))
	if err != nil {
		return nil, err
	}

	msg, err := d.buildMessage(&req.EmailSendRequest, content, string(domain.EmailTypeCommunication))
	if err != nil {
		return nil, err
	}

	entry := d.newLogEntry(user, client, matter, &req.EmailSendRequest, content, domain.EmailTypeCommunication)
	entry.Metadata["communication_type"] = string(req.CommunicationType)
	if req.ActivityType != "" {
		entry.Metadata["activity_type"] = string(req.ActivityType)
	}
	if req.Billable {
		entry.Metadata["billable"] = true
		entry.Metadata["billable_hours"] = req.BillableHours
	}
	if req.FollowUpRequired {
		entry.Metadata["follow_up_required"] = true
	}

	result, err := d.deliver(ctx, entry, msg)
	if err != nil {
		return result, err
	}

	activityType := req.ActivityType
	if activityType == "" {
		activityType = domain.ActivityEmail
	}

	activity := &domain.CommunicationActivity{
		UserID:           user.ID,
		ClientID:         client.ID,
		ActivityType:     activityType,
		Direction:        "outbound",
		Subject:          content.Subject,
		Description:      activityDescription(content),
		Participants:     activityParticipants(user, client, req.To),
		Billable:         req.Billable,
		BillableHours:    req.BillableHours,
		FollowUpRequired: req.FollowUpRequired,
		FollowUpDate:     parseOptionalDate(req.FollowUpDate),
		Metadata: map[string]any{
			"email_log_id":       result.EmailID.String(),
			"communication_type": string(req.CommunicationType),
		},
	}
	if matter != nil {
		activity.MatterID = &matter.ID
	}
	d.recordActivity(ctx, activity, result.EmailID)

	result.Message = fmt.Sprintf("%s email sent to %s", strings.ToLower(label), client.Name)
	return result, nil
}

// communicationMessage picks the free-form body merged into the
// {{message}} placeholder of the built-in templates.
func communicationMessage(req *domain.EmailSendRequest) string {
	if req.TextBody != "" {
		return req.TextBody
	}
	if req.HTMLBody != "" {
		return template.PlainText(req.HTMLBody)
	}
	return ""
}

// activityDescription is a short plain-text preview of the sent content.
func activityDescription(content *resolvedContent) string {
	if content.Text != "" {
		return template.PlainTextPreview(content.Text, 200)
	}
	return template.PlainTextPreview(content.HTML, 200)
}
