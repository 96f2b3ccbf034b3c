package domain

import (
	"context"

	"github.com/google/uuid"
)

// Client is a legal client record owned by a single attorney account.
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Name   string
	Email  string
	Phone  string
}

// Matter is a legal matter belonging to a client.
type Matter struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ClientID     uuid.UUID
	Title        string
	MatterNumber string
}

// ClientService reads client and matter records.
// Every lookup is scoped to the owning user id; records belonging to a
// different user are reported as not found, never as forbidden, so the
// API does not reveal which ids exist.
type ClientService interface {
	GetClient(ctx context.Context, userID, clientID uuid.UUID) (*Client, error)
	GetMatter(ctx context.Context, userID, matterID uuid.UUID) (*Matter, error)
}
