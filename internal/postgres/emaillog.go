package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxislegal/praxis/internal/domain"
)

// EmailLogService implements domain.EmailLogService using PostgreSQL.
type EmailLogService struct {
	pool *pgxpool.Pool
}

var _ domain.EmailLogService = (*EmailLogService)(nil)

// NewEmailLogService creates a new EmailLogService instance.
func NewEmailLogService(pool *pgxpool.Pool) *EmailLogService {
	return &EmailLogService{pool: pool}
}

// InsertLog writes a new email log row and returns it with its generated
// id and created_at. The row is always written in the caller-supplied
// status (pending for the dispatch pipelines) before any transport call.
func (s *EmailLogService) InsertLog(ctx context.Context, entry *domain.EmailLogEntry) (*domain.EmailLogEntry, error) {
	variables, err := json.Marshal(entry.TemplateVariables)
	if err != nil {
		return nil, domain.Internal(err, "emaillog.insert", "failed to encode template variables")
	}
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return nil, domain.Internal(err, "emaillog.insert", "failed to encode metadata")
	}

	var (
		id        pgtype.UUID
		createdAt time.Time
	)
	err = s.pool.QueryRow(ctx, `
		INSERT INTO email_logs (
			user_id, client_id, matter_id, email_type,
			recipients_to, recipients_cc, recipients_bcc,
			subject, html_body, text_body,
			template_id, template_variables,
			status, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`,
		pgUUID(entry.UserID),
		pgUUIDPtr(entry.ClientID),
		pgUUIDPtr(entry.MatterID),
		string(entry.EmailType),
		entry.To,
		entry.Cc,
		entry.Bcc,
		entry.Subject,
		entry.HTMLBody,
		entry.TextBody,
		pgUUIDPtr(entry.TemplateID),
		variables,
		string(entry.Status),
		metadata,
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, domain.Internal(err, "emaillog.insert", "failed to insert email log")
	}

	out := *entry
	out.ID = fromUUID(id)
	out.CreatedAt = createdAt
	return &out, nil
}

// UpdateLogStatus applies a status transition, stamping the lifecycle
// timestamp that matches the new status. Illegal transitions are
// rejected before any write.
func (s *EmailLogService) UpdateLogStatus(ctx context.Context, id uuid.UUID, update domain.StatusUpdate) error {
	var current string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM email_logs WHERE id = $1`,
		pgUUID(id),
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound("emaillog.update_status", "email log", id.String())
	}
	if err != nil {
		return domain.Internal(err, "emaillog.update_status", "failed to load email log")
	}

	if !domain.EmailStatus(current).CanTransitionTo(update.Status) {
		return domain.Errorf(domain.EINVALID, "emaillog.update_status",
			"illegal status transition %s -> %s", current, update.Status)
	}

	column := lifecycleColumn(update.Status)
	query := `
		UPDATE email_logs
		SET status = $1, external_id = $2, error_message = $3`
	if column != "" {
		query += `, ` + column + ` = now()`
	}
	query += ` WHERE id = $4`

	tag, err := s.pool.Exec(ctx, query,
		string(update.Status), update.ExternalID, update.ErrorMessage, pgUUID(id))
	if err != nil {
		return domain.Internal(err, "emaillog.update_status", "failed to update email log")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("emaillog.update_status", "email log", id.String())
	}
	return nil
}

// lifecycleColumn maps a status to the timestamp column it stamps.
// failed reuses sent_at: the attempt ended at that moment either way.
func lifecycleColumn(status domain.EmailStatus) string {
	switch status {
	case domain.EmailStatusSent, domain.EmailStatusFailed:
		return "sent_at"
	case domain.EmailStatusDelivered:
		return "delivered_at"
	case domain.EmailStatusBounced:
		return "bounced_at"
	case domain.EmailStatusComplained:
		return "complained_at"
	default:
		return ""
	}
}
