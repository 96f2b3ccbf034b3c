package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxislegal/praxis/internal/domain"
)

// IdentityService implements domain.IdentityService using PostgreSQL.
// API tokens are stored as SHA-256 hex digests; the raw token never
// touches the database.
type IdentityService struct {
	pool *pgxpool.Pool
}

// Compile-time check to ensure IdentityService implements domain.IdentityService.
var _ domain.IdentityService = (*IdentityService)(nil)

// NewIdentityService creates a new IdentityService instance.
func NewIdentityService(pool *pgxpool.Pool) *IdentityService {
	return &IdentityService{pool: pool}
}

// AuthenticateToken resolves a bearer token to the owning user.
func (s *IdentityService) AuthenticateToken(ctx context.Context, token string) (*domain.UserIdentity, error) {
	if token == "" {
		return nil, domain.Unauthorized("identity.authenticate", "missing bearer token")
	}

	digest := sha256.Sum256([]byte(token))
	hash := hex.EncodeToString(digest[:])

	var (
		id                             pgtype.UUID
		email                          string
		firstName, lastName, firmName pgtype.Text
	)
	err := s.pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.first_name, u.last_name, u.firm_name
		FROM api_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1 AND t.revoked_at IS NULL`,
		hash,
	).Scan(&id, &email, &firstName, &lastName, &firmName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Unauthorized("identity.authenticate", "invalid or expired token")
	}
	if err != nil {
		return nil, domain.Internal(err, "identity.authenticate", "failed to look up token")
	}

	return &domain.UserIdentity{
		ID:        fromUUID(id),
		Email:     email,
		FirstName: textOrEmpty(firstName),
		LastName:  textOrEmpty(lastName),
		FirmName:  textOrEmpty(firmName),
	}, nil
}
