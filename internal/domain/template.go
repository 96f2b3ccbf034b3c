package domain

import (
	"context"

	"github.com/google/uuid"
)

// TemplateCategory groups stored email templates.
type TemplateCategory string

const (
	TemplateCategoryInvoice       TemplateCategory = "invoice"
	TemplateCategoryCommunication TemplateCategory = "communication"
	TemplateCategoryNotification  TemplateCategory = "notification"
	TemplateCategoryMarketing     TemplateCategory = "marketing"
	TemplateCategorySystem        TemplateCategory = "system"
)

// EmailTemplate is a stored HTML/text document with {{variable}}
// placeholders. Inactive templates are never returned by lookups; the
// pipeline falls back to its in-code defaults instead.
type EmailTemplate struct {
	ID             uuid.UUID
	Name           string
	Category       TemplateCategory
	SubjectPattern string
	HTMLBody       string
	TextBody       string
	Active         bool
}

// TemplateService reads stored email templates.
type TemplateService interface {
	// GetTemplate fetches an active template by id. When category is
	// non-empty the template must also belong to that category.
	GetTemplate(ctx context.Context, id uuid.UUID, category TemplateCategory) (*EmailTemplate, error)

	// GetTemplateByCategory fetches the most recently updated active
	// template in a category.
	GetTemplateByCategory(ctx context.Context, category TemplateCategory) (*EmailTemplate, error)
}
