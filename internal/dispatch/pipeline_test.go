package dispatch_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislegal/praxis/internal/dispatch"
	"github.com/praxislegal/praxis/internal/domain"
	"github.com/praxislegal/praxis/internal/email"
)

// ----------------------------------------------------------------------------
// fakes
// ----------------------------------------------------------------------------

type fakeClientService struct {
	clients map[uuid.UUID]*domain.Client
	matters map[uuid.UUID]*domain.Matter
}

func (f *fakeClientService) GetClient(_ context.Context, userID, clientID uuid.UUID) (*domain.Client, error) {
	c, ok := f.clients[clientID]
	if !ok || c.UserID != userID {
		return nil, domain.NotFound("client.get", "client", clientID.String())
	}
	return c, nil
}

func (f *fakeClientService) GetMatter(_ context.Context, userID, matterID uuid.UUID) (*domain.Matter, error) {
	m, ok := f.matters[matterID]
	if !ok || m.UserID != userID {
		return nil, domain.NotFound("matter.get", "matter", matterID.String())
	}
	return m, nil
}

type fakeTemplateService struct {
	templates  map[uuid.UUID]*domain.EmailTemplate
	byCategory map[domain.TemplateCategory]*domain.EmailTemplate
}

func (f *fakeTemplateService) GetTemplate(_ context.Context, id uuid.UUID, category domain.TemplateCategory) (*domain.EmailTemplate, error) {
	t, ok := f.templates[id]
	if !ok || !t.Active || (category != "" && t.Category != category) {
		return nil, domain.NotFound("template.get", "template", id.String())
	}
	return t, nil
}

func (f *fakeTemplateService) GetTemplateByCategory(_ context.Context, category domain.TemplateCategory) (*domain.EmailTemplate, error) {
	t, ok := f.byCategory[category]
	if !ok || !t.Active {
		return nil, domain.NotFound("template.get_by_category", "template", string(category))
	}
	return t, nil
}

type statusUpdateCall struct {
	id     uuid.UUID
	update domain.StatusUpdate
}

type fakeLogService struct {
	events    *[]string
	inserted  []*domain.EmailLogEntry
	updates   []statusUpdateCall
	insertErr error
	updateErr error
}

func (f *fakeLogService) InsertLog(_ context.Context, entry *domain.EmailLogEntry) (*domain.EmailLogEntry, error) {
	*f.events = append(*f.events, "insert")
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	out := *entry
	out.ID = uuid.New()
	f.inserted = append(f.inserted, &out)
	return &out, nil
}

func (f *fakeLogService) UpdateLogStatus(_ context.Context, id uuid.UUID, update domain.StatusUpdate) error {
	*f.events = append(*f.events, "update:"+string(update.Status))
	f.updates = append(f.updates, statusUpdateCall{id: id, update: update})
	return f.updateErr
}

type fakeActivityService struct {
	activities []*domain.CommunicationActivity
	err        error
}

func (f *fakeActivityService) InsertActivity(_ context.Context, activity *domain.CommunicationActivity) (*domain.CommunicationActivity, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.activities = append(f.activities, activity)
	return activity, nil
}

type fakeSender struct {
	events     *[]string
	sent       []*email.Email
	externalID string
	err        error
}

func (f *fakeSender) Send(_ context.Context, msg *email.Email) (string, error) {
	*f.events = append(*f.events, "send")
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return f.externalID, nil
}

// ----------------------------------------------------------------------------
// fixture
// ----------------------------------------------------------------------------

type fixture struct {
	dispatcher *dispatch.Dispatcher
	clients    *fakeClientService
	templates  *fakeTemplateService
	logs       *fakeLogService
	activities *fakeActivityService
	sender     *fakeSender
	events     []string

	user     *domain.UserIdentity
	client   *domain.Client
	matter   *domain.Matter
	stranger *domain.Client
}

func newFixture() *fixture {
	f := &fixture{}

	userID := uuid.New()
	f.user = &domain.UserIdentity{
		ID:        userID,
		Email:     "attorney@acmelaw.test",
		FirstName: "John",
		LastName:  "Doe",
		FirmName:  "Acme Law",
	}
	f.client = &domain.Client{
		ID:     uuid.New(),
		UserID: userID,
		Name:   "Jane Roe",
		Email:  "jane@example.com",
	}
	f.matter = &domain.Matter{
		ID:       uuid.New(),
		UserID:   userID,
		ClientID: f.client.ID,
		Title:    "Roe v. State",
	}
	f.stranger = &domain.Client{
		ID:     uuid.New(),
		UserID: uuid.New(), // different owner
		Name:   "Someone Else",
		Email:  "other@example.com",
	}

	f.clients = &fakeClientService{
		clients: map[uuid.UUID]*domain.Client{
			f.client.ID:   f.client,
			f.stranger.ID: f.stranger,
		},
		matters: map[uuid.UUID]*domain.Matter{f.matter.ID: f.matter},
	}
	f.templates = &fakeTemplateService{
		templates:  map[uuid.UUID]*domain.EmailTemplate{},
		byCategory: map[domain.TemplateCategory]*domain.EmailTemplate{},
	}
	f.logs = &fakeLogService{events: &f.events}
	f.activities = &fakeActivityService{}
	f.sender = &fakeSender{events: &f.events, externalID: "pm-123"}

	f.dispatcher = dispatch.NewDispatcher(
		f.clients, f.templates, f.logs, f.activities, f.sender,
		dispatch.Config{
			FromAddress: "noreply@acmelaw.test",
			FromName:    "Acme Law",
			FirmName:    "Acme Law",
			FirmPhone:   "555-0100",
		},
		slog.New(slog.DiscardHandler),
	)
	return f
}

// ----------------------------------------------------------------------------
// generic pipeline
// ----------------------------------------------------------------------------

func TestSendGeneral_Success(t *testing.T) {
	f := newFixture()

	req := &domain.EmailSendRequest{
		To:       []string{"Client@Example.com"},
		Subject:  "Hearing scheduled",
		HTMLBody: "<p>Your hearing is on Monday.</p>",
	}

	result, err := f.dispatcher.SendGeneral(context.Background(), f.user, req)
	require.NoError(t, err)

	assert.Equal(t, []string{"insert", "send", "update:sent"}, f.events,
		"the pending row must exist before the transport call")

	require.Len(t, f.logs.inserted, 1)
	entry := f.logs.inserted[0]
	assert.Equal(t, domain.EmailStatusPending, entry.Status)
	assert.Equal(t, domain.EmailTypeGeneral, entry.EmailType)
	assert.Equal(t, f.user.ID, entry.UserID)
	assert.Equal(t, []string{"client@example.com"}, entry.To, "addresses are normalized before logging")

	require.Len(t, f.logs.updates, 1)
	assert.Equal(t, entry.ID, f.logs.updates[0].id)
	assert.Equal(t, domain.EmailStatusSent, f.logs.updates[0].update.Status)
	assert.Equal(t, "pm-123", f.logs.updates[0].update.ExternalID)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "Acme Law <noreply@acmelaw.test>", msg.From)
	assert.Equal(t, "Hearing scheduled", msg.Subject)
	assert.Contains(t, msg.TextBody, "Your hearing is on Monday.", "text body derived from html")

	assert.Equal(t, entry.ID, result.EmailID)
	assert.Equal(t, "pm-123", result.ExternalID)
	assert.Empty(t, f.activities.activities, "generic sends leave no timeline activity")
}

func TestSendGeneral_ValidationFailure(t *testing.T) {
	f := newFixture()

	result, err := f.dispatcher.SendGeneral(context.Background(), f.user, &domain.EmailSendRequest{})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, domain.IsValidationError(err))

	fields := domain.GetValidationFields(err)
	assert.NotEmpty(t, fields)
	assert.Empty(t, f.events, "invalid requests never touch the store or the transport")
}

func TestSendGeneral_TransportFailure(t *testing.T) {
	f := newFixture()
	f.sender.err = errors.New("connection refused")

	req := &domain.EmailSendRequest{
		To:       []string{"client@example.com"},
		Subject:  "Hearing scheduled",
		TextBody: "Monday.",
	}

	result, err := f.dispatcher.SendGeneral(context.Background(), f.user, req)
	require.Error(t, err)
	assert.Equal(t, domain.ETRANSPORT, domain.ErrorCode(err))

	require.NotNil(t, result, "a failed send still reports the log row it created")
	assert.NotEqual(t, uuid.Nil, result.EmailID)

	require.Len(t, f.logs.updates, 1)
	assert.Equal(t, domain.EmailStatusFailed, f.logs.updates[0].update.Status)
	assert.Contains(t, f.logs.updates[0].update.ErrorMessage, "connection refused")
}

func TestSendGeneral_StoredTemplate(t *testing.T) {
	f := newFixture()

	tmplID := uuid.New()
	f.templates.templates[tmplID] = &domain.EmailTemplate{
		ID:             tmplID,
		Category:       domain.TemplateCategoryNotification,
		SubjectPattern: "Update for {{client_name}}",
		HTMLBody:       "<p>Dear {{client_name}}, {{note}}</p>",
		Active:         true,
	}

	req := &domain.EmailSendRequest{
		To:         []string{"client@example.com"},
		TemplateID: tmplID.String(),
		ClientID:   f.client.ID.String(),
		Variables:  map[string]string{"note": "your filing was accepted"},
	}

	_, err := f.dispatcher.SendGeneral(context.Background(), f.user, req)
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "Update for Jane Roe", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Dear Jane Roe, your filing was accepted")
}

func TestSendGeneral_UnknownTemplate(t *testing.T) {
	f := newFixture()

	req := &domain.EmailSendRequest{
		To:         []string{"client@example.com"},
		TemplateID: uuid.New().String(),
	}

	_, err := f.dispatcher.SendGeneral(context.Background(), f.user, req)
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	assert.Empty(t, f.events, "no log row for a request that cannot resolve its template")
}

func TestSendGeneral_TextOnlyGetsHTMLRendition(t *testing.T) {
	f := newFixture()

	req := &domain.EmailSendRequest{
		To:       []string{"client@example.com"},
		Subject:  "Hearing scheduled",
		TextBody: "Your hearing is on Monday.",
	}

	_, err := f.dispatcher.SendGeneral(context.Background(), f.user, req)
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "Your hearing is on Monday.", msg.TextBody, "the raw text body is preserved")
	assert.Contains(t, msg.HTMLBody, "Your hearing is on Monday.")
	assert.Contains(t, msg.HTMLBody, "Acme Law", "text-only sends get the branded wrapper")
	assert.Equal(t, "Hearing scheduled", msg.Subject)
}

func TestSendGeneral_ForeignClient(t *testing.T) {
	f := newFixture()

	req := &domain.EmailSendRequest{
		To:       []string{"client@example.com"},
		Subject:  "s",
		TextBody: "t",
		ClientID: f.stranger.ID.String(),
	}

	_, err := f.dispatcher.SendGeneral(context.Background(), f.user, req)
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err),
		"another user's client is indistinguishable from a missing one")
}

// ----------------------------------------------------------------------------
// invoice pipeline
// ----------------------------------------------------------------------------

func invoiceRequest(f *fixture) *domain.InvoiceEmailRequest {
	return &domain.InvoiceEmailRequest{
		EmailSendRequest: domain.EmailSendRequest{
			ClientID: f.client.ID.String(),
			MatterID: f.matter.ID.String(),
		},
		InvoiceID:     uuid.New().String(),
		InvoiceNumber: "INV-042",
		AmountDue:     1250.50,
		DueDate:       "2026-10-01",
	}
}

func TestSendInvoice_Success(t *testing.T) {
	f := newFixture()

	result, err := f.dispatcher.SendInvoice(context.Background(), f.user, invoiceRequest(f))
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, []string{"jane@example.com"}, msg.To, "recipient defaults to the client's address")
	assert.Equal(t, "Invoice INV-042 from Acme Law", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "INV-042")
	assert.Contains(t, msg.HTMLBody, "1250.50")
	assert.Contains(t, msg.HTMLBody, "Roe v. State")

	require.Len(t, f.logs.inserted, 1)
	entry := f.logs.inserted[0]
	assert.Equal(t, domain.EmailTypeInvoice, entry.EmailType)
	assert.Equal(t, "INV-042", entry.Metadata["invoice_number"])
	require.NotNil(t, entry.ClientID)
	assert.Equal(t, f.client.ID, *entry.ClientID)

	require.Len(t, f.activities.activities, 1)
	activity := f.activities.activities[0]
	assert.Equal(t, domain.ActivityEmail, activity.ActivityType)
	assert.Equal(t, "outbound", activity.Direction)
	assert.Equal(t, result.EmailID.String(), activity.Metadata["email_log_id"])
	assert.Equal(t, "INV-042", activity.Metadata["invoice_number"])
	require.Len(t, activity.Participants, 2)
	assert.Equal(t, "attorney", activity.Participants[0].Role)
	assert.Equal(t, "client", activity.Participants[1].Role)

	assert.Contains(t, result.Message, "INV-042")
	assert.Contains(t, result.Message, "Jane Roe")
}

func TestSendInvoice_StoredCategoryTemplateWins(t *testing.T) {
	f := newFixture()

	stored := &domain.EmailTemplate{
		ID:             uuid.New(),
		Category:       domain.TemplateCategoryInvoice,
		SubjectPattern: "Your {{firm_name}} invoice {{invoice_number}}",
		HTMLBody:       "<p>{{client_name}}, invoice {{invoice_number}} is ready.</p>",
		Active:         true,
	}
	f.templates.byCategory[domain.TemplateCategoryInvoice] = stored

	_, err := f.dispatcher.SendInvoice(context.Background(), f.user, invoiceRequest(f))
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "Your Acme Law invoice INV-042", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Jane Roe, invoice INV-042 is ready.")

	require.Len(t, f.logs.inserted, 1)
	require.NotNil(t, f.logs.inserted[0].TemplateID)
	assert.Equal(t, stored.ID, *f.logs.inserted[0].TemplateID)
}

func TestSendInvoice_InactiveCategoryTemplateFallsBack(t *testing.T) {
	f := newFixture()

	f.templates.byCategory[domain.TemplateCategoryInvoice] = &domain.EmailTemplate{
		ID:             uuid.New(),
		Category:       domain.TemplateCategoryInvoice,
		SubjectPattern: "should never render",
		Active:         false,
	}

	_, err := f.dispatcher.SendInvoice(context.Background(), f.user, invoiceRequest(f))
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "Invoice INV-042 from Acme Law", f.sender.sent[0].Subject,
		"an inactive stored template behaves like a missing one")
}

func TestSendInvoice_NoRecipient(t *testing.T) {
	f := newFixture()
	f.client.Email = ""

	_, err := f.dispatcher.SendInvoice(context.Background(), f.user, invoiceRequest(f))
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Contains(t, domain.ErrorMessage(err), "no recipient email address found")
	assert.Empty(t, f.events)
}

func TestSendInvoice_ForeignClient(t *testing.T) {
	f := newFixture()
	req := invoiceRequest(f)
	req.ClientID = f.stranger.ID.String()
	req.MatterID = ""

	_, err := f.dispatcher.SendInvoice(context.Background(), f.user, req)
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestSendInvoice_ActivityFailureDoesNotFailSend(t *testing.T) {
	f := newFixture()
	f.activities.err = errors.New("activities table unavailable")

	result, err := f.dispatcher.SendInvoice(context.Background(), f.user, invoiceRequest(f))
	require.NoError(t, err, "the activity write is best effort")
	assert.NotEqual(t, uuid.Nil, result.EmailID)
	require.Len(t, f.logs.updates, 1)
	assert.Equal(t, domain.EmailStatusSent, f.logs.updates[0].update.Status)
}

// ----------------------------------------------------------------------------
// communication pipeline
// ----------------------------------------------------------------------------

func communicationRequest(f *fixture) *domain.CommunicationEmailRequest {
	return &domain.CommunicationEmailRequest{
		EmailSendRequest: domain.EmailSendRequest{
			ClientID: f.client.ID.String(),
			MatterID: f.matter.ID.String(),
			TextBody: "We received a favorable ruling today.",
		},
		CommunicationType: domain.CommunicationStatusUpdate,
		Billable:          true,
		BillableHours:     0.5,
		FollowUpRequired:  true,
		FollowUpDate:      "2026-09-15",
	}
}

func TestSendCommunication_Success(t *testing.T) {
	f := newFixture()

	result, err := f.dispatcher.SendCommunication(context.Background(), f.user, communicationRequest(f))
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "Case Status Update: Roe v. State", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "We received a favorable ruling today.")
	assert.Contains(t, msg.HTMLBody, "Jane Roe")

	require.Len(t, f.logs.inserted, 1)
	assert.Equal(t, domain.EmailTypeCommunication, f.logs.inserted[0].EmailType)
	assert.Equal(t, "status_update", f.logs.inserted[0].Metadata["communication_type"])

	require.Len(t, f.activities.activities, 1)
	activity := f.activities.activities[0]
	assert.Equal(t, domain.ActivityEmail, activity.ActivityType, "activity type defaults to email")
	assert.True(t, activity.Billable)
	assert.Equal(t, 0.5, activity.BillableHours)
	assert.True(t, activity.FollowUpRequired)
	require.NotNil(t, activity.FollowUpDate)
	assert.Equal(t, "2026-09-15", activity.FollowUpDate.Format("2006-01-02"))
	assert.Equal(t, result.EmailID.String(), activity.Metadata["email_log_id"])

	assert.Contains(t, result.Message, "Jane Roe")
}

func TestSendCommunication_StoredCategoryTemplateWins(t *testing.T) {
	f := newFixture()

	stored := &domain.EmailTemplate{
		ID:             uuid.New(),
		Category:       domain.TemplateCategoryCommunication,
		SubjectPattern: "Update on {{matter_title}}",
		HTMLBody:       "<p>{{client_name}}: {{message}}</p>",
		Active:         true,
	}
	f.templates.byCategory[domain.TemplateCategoryCommunication] = stored

	_, err := f.dispatcher.SendCommunication(context.Background(), f.user, communicationRequest(f))
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "Update on Roe v. State", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Jane Roe: We received a favorable ruling today.")

	require.Len(t, f.logs.inserted, 1)
	require.NotNil(t, f.logs.inserted[0].TemplateID)
	assert.Equal(t, stored.ID, *f.logs.inserted[0].TemplateID)
}

func TestSendCommunication_MatterBelongsToOtherClient(t *testing.T) {
	f := newFixture()

	otherMatter := &domain.Matter{
		ID:       uuid.New(),
		UserID:   f.user.ID,
		ClientID: f.stranger.ID,
		Title:    "Unrelated Matter",
	}
	f.clients.matters[otherMatter.ID] = otherMatter

	req := communicationRequest(f)
	req.MatterID = otherMatter.ID.String()

	_, err := f.dispatcher.SendCommunication(context.Background(), f.user, req)
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestSendCommunication_TransportFailureLeavesNoActivity(t *testing.T) {
	f := newFixture()
	f.sender.err = errors.New("550 rejected")

	result, err := f.dispatcher.SendCommunication(context.Background(), f.user, communicationRequest(f))
	require.Error(t, err)
	assert.Equal(t, domain.ETRANSPORT, domain.ErrorCode(err))
	assert.NotNil(t, result)
	assert.Empty(t, f.activities.activities, "no timeline record for a send that failed")
	require.Len(t, f.logs.updates, 1)
	assert.Equal(t, domain.EmailStatusFailed, f.logs.updates[0].update.Status)
}

func TestSendCommunication_ExplicitSubjectWins(t *testing.T) {
	f := newFixture()

	req := communicationRequest(f)
	req.Subject = "Quick note"

	_, err := f.dispatcher.SendCommunication(context.Background(), f.user, req)
	require.NoError(t, err)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "Quick note", f.sender.sent[0].Subject)
}
