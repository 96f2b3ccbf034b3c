package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxislegal/praxis/internal/domain"
)

// ActivityService implements domain.ActivityService using PostgreSQL.
type ActivityService struct {
	pool *pgxpool.Pool
}

var _ domain.ActivityService = (*ActivityService)(nil)

// NewActivityService creates a new ActivityService instance.
func NewActivityService(pool *pgxpool.Pool) *ActivityService {
	return &ActivityService{pool: pool}
}

// InsertActivity writes a communication activity and returns it with its
// generated id.
func (s *ActivityService) InsertActivity(ctx context.Context, activity *domain.CommunicationActivity) (*domain.CommunicationActivity, error) {
	participants, err := json.Marshal(activity.Participants)
	if err != nil {
		return nil, domain.Internal(err, "activity.insert", "failed to encode participants")
	}
	metadata, err := json.Marshal(activity.Metadata)
	if err != nil {
		return nil, domain.Internal(err, "activity.insert", "failed to encode metadata")
	}

	var followUp pgtype.Timestamptz
	if activity.FollowUpDate != nil {
		followUp = pgtype.Timestamptz{Time: *activity.FollowUpDate, Valid: true}
	}

	var (
		id        pgtype.UUID
		createdAt time.Time
	)
	err = s.pool.QueryRow(ctx, `
		INSERT INTO communication_activities (
			user_id, client_id, matter_id, activity_type, direction,
			subject, description, participants,
			billable, billable_hours, hourly_rate,
			follow_up_required, follow_up_date, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`,
		pgUUID(activity.UserID),
		pgUUID(activity.ClientID),
		pgUUIDPtr(activity.MatterID),
		string(activity.ActivityType),
		activity.Direction,
		activity.Subject,
		activity.Description,
		participants,
		activity.Billable,
		activity.BillableHours,
		activity.HourlyRate,
		activity.FollowUpRequired,
		followUp,
		metadata,
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, domain.Internal(err, "activity.insert", "failed to insert activity")
	}

	out := *activity
	out.ID = fromUUID(id)
	out.CreatedAt = createdAt
	return &out, nil
}
