package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Participant is one party on a communication activity.
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"` // "attorney" or "client"
}

// CommunicationActivity is the billing/timeline record derived from a
// successful client-facing send. It is created only after the transport
// call succeeds, never on failure, and links back to the originating
// email log via Metadata["email_log_id"].
type CommunicationActivity struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	ClientID         uuid.UUID
	MatterID         *uuid.UUID
	ActivityType     ActivityType
	Direction        string // always "outbound" for dispatched email
	Subject          string
	Description      string
	Participants     []Participant
	Billable         bool
	BillableHours    float64
	HourlyRate       float64
	FollowUpRequired bool
	FollowUpDate     *time.Time
	Metadata         map[string]any
	CreatedAt        time.Time
}

// ActivityService persists communication activities.
type ActivityService interface {
	InsertActivity(ctx context.Context, activity *CommunicationActivity) (*CommunicationActivity, error)
}
