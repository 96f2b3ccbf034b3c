package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/praxislegal/praxis/internal/domain"
)

func TestEmailStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    domain.EmailStatus
		to      domain.EmailStatus
		allowed bool
	}{
		{domain.EmailStatusPending, domain.EmailStatusSent, true},
		{domain.EmailStatusPending, domain.EmailStatusFailed, true},
		{domain.EmailStatusPending, domain.EmailStatusDelivered, false},
		{domain.EmailStatusSent, domain.EmailStatusDelivered, true},
		{domain.EmailStatusSent, domain.EmailStatusBounced, true},
		{domain.EmailStatusSent, domain.EmailStatusComplained, true},
		{domain.EmailStatusSent, domain.EmailStatusPending, false},
		{domain.EmailStatusSent, domain.EmailStatusFailed, false},
		{domain.EmailStatusFailed, domain.EmailStatusSent, false},
		{domain.EmailStatusDelivered, domain.EmailStatusBounced, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEmailSendRequest_HasContent(t *testing.T) {
	assert.False(t, (&domain.EmailSendRequest{}).HasContent())
	assert.True(t, (&domain.EmailSendRequest{HTMLBody: "<p>x</p>"}).HasContent())
	assert.True(t, (&domain.EmailSendRequest{TextBody: "x"}).HasContent())
	assert.True(t, (&domain.EmailSendRequest{TemplateID: "id"}).HasContent())
}

func TestUserIdentity_FullName(t *testing.T) {
	tests := []struct {
		name     string
		user     domain.UserIdentity
		expected string
	}{
		{"both names", domain.UserIdentity{FirstName: "John", LastName: "Doe"}, "John Doe"},
		{"first only", domain.UserIdentity{FirstName: "John"}, "John"},
		{"last only", domain.UserIdentity{LastName: "Doe"}, "Doe"},
		{"neither falls back to email", domain.UserIdentity{Email: "j@x.test"}, "j@x.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.FullName())
		})
	}
}
