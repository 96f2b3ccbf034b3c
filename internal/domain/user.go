package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserIdentity is the authenticated attorney account resolved from a
// bearer token.
type UserIdentity struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	FirmName  string
}

// FullName returns the display name, falling back to the email address
// when no name parts are set.
func (u *UserIdentity) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Email
	}
}

// IdentityService resolves bearer tokens to user identities.
type IdentityService interface {
	// AuthenticateToken resolves a bearer token to the owning user.
	// Unknown or revoked tokens return an EUNAUTHORIZED error.
	AuthenticateToken(ctx context.Context, token string) (*UserIdentity, error)
}
