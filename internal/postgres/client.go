package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxislegal/praxis/internal/domain"
)

// ClientService implements domain.ClientService using PostgreSQL.
// All lookups are scoped by the owning user id, so a record belonging to
// another user is indistinguishable from a missing one.
type ClientService struct {
	pool *pgxpool.Pool
}

var _ domain.ClientService = (*ClientService)(nil)

// NewClientService creates a new ClientService instance.
func NewClientService(pool *pgxpool.Pool) *ClientService {
	return &ClientService{pool: pool}
}

// GetClient fetches a client owned by userID.
func (s *ClientService) GetClient(ctx context.Context, userID, clientID uuid.UUID) (*domain.Client, error) {
	var (
		id           pgtype.UUID
		name         string
		email, phone pgtype.Text
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, phone
		FROM clients
		WHERE id = $1 AND user_id = $2`,
		pgUUID(clientID), pgUUID(userID),
	).Scan(&id, &name, &email, &phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("client.get", "client", clientID.String())
	}
	if err != nil {
		return nil, domain.Internal(err, "client.get", "failed to load client")
	}

	return &domain.Client{
		ID:     fromUUID(id),
		UserID: userID,
		Name:   name,
		Email:  textOrEmpty(email),
		Phone:  textOrEmpty(phone),
	}, nil
}

// GetMatter fetches a matter owned by userID.
func (s *ClientService) GetMatter(ctx context.Context, userID, matterID uuid.UUID) (*domain.Matter, error) {
	var (
		id, clientID pgtype.UUID
		title        string
		matterNumber pgtype.Text
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, client_id, title, matter_number
		FROM matters
		WHERE id = $1 AND user_id = $2`,
		pgUUID(matterID), pgUUID(userID),
	).Scan(&id, &clientID, &title, &matterNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("matter.get", "matter", matterID.String())
	}
	if err != nil {
		return nil, domain.Internal(err, "matter.get", "failed to load matter")
	}

	return &domain.Matter{
		ID:           fromUUID(id),
		UserID:       userID,
		ClientID:     fromUUID(clientID),
		Title:        title,
		MatterNumber: textOrEmpty(matterNumber),
	}, nil
}
