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

// TemplateService implements domain.TemplateService using PostgreSQL.
// Inactive templates are filtered out in SQL, never in Go, so a
// deactivated template behaves exactly like a missing one.
type TemplateService struct {
	pool *pgxpool.Pool
}

var _ domain.TemplateService = (*TemplateService)(nil)

// NewTemplateService creates a new TemplateService instance.
func NewTemplateService(pool *pgxpool.Pool) *TemplateService {
	return &TemplateService{pool: pool}
}

// GetTemplate fetches an active template by id, optionally constrained
// to a category.
func (s *TemplateService) GetTemplate(ctx context.Context, id uuid.UUID, category domain.TemplateCategory) (*domain.EmailTemplate, error) {
	query := `
		SELECT id, name, category, subject_pattern, html_body, text_body, active
		FROM email_templates
		WHERE id = $1 AND active`
	args := []any{pgUUID(id)}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, string(category))
	}

	row := s.pool.QueryRow(ctx, query, args...)
	tmpl, err := scanTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("template.get", "template", id.String())
	}
	if err != nil {
		return nil, domain.Internal(err, "template.get", "failed to load template")
	}
	return tmpl, nil
}

// GetTemplateByCategory fetches the most recently updated active template
// in a category.
func (s *TemplateService) GetTemplateByCategory(ctx context.Context, category domain.TemplateCategory) (*domain.EmailTemplate, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, category, subject_pattern, html_body, text_body, active
		FROM email_templates
		WHERE category = $1 AND active
		ORDER BY updated_at DESC
		LIMIT 1`,
		string(category),
	)
	tmpl, err := scanTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("template.get_by_category", "template", string(category))
	}
	if err != nil {
		return nil, domain.Internal(err, "template.get_by_category", "failed to load template")
	}
	return tmpl, nil
}

func scanTemplate(row pgx.Row) (*domain.EmailTemplate, error) {
	var (
		id                        pgtype.UUID
		name, category            string
		subject, htmlBody, textBody pgtype.Text
		active                    bool
	)
	if err := row.Scan(&id, &name, &category, &subject, &htmlBody, &textBody, &active); err != nil {
		return nil, err
	}
	return &domain.EmailTemplate{
		ID:             fromUUID(id),
		Name:           name,
		Category:       domain.TemplateCategory(category),
		SubjectPattern: textOrEmpty(subject),
		HTMLBody:       textOrEmpty(htmlBody),
		TextBody:       textOrEmpty(textBody),
		Active:         active,
	}, nil
}
