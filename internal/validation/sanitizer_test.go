package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/praxislegal/praxis/internal/domain"
	"github.com/praxislegal/praxis/internal/validation"
)

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "client@example.com", validation.NormalizeAddress("  Client@Example.COM "))
	assert.Equal(t, "", validation.NormalizeAddress("   "))
}

func TestStripAngleBrackets(t *testing.T) {
	assert.Equal(t, "scriptalert(1)/script", validation.StripAngleBrackets("<script>alert(1)</script>"))
	assert.Equal(t, "plain subject", validation.StripAngleBrackets("plain subject"))
}

func TestSanitizeSendRequest(t *testing.T) {
	req := &domain.EmailSendRequest{
		To:      []string{" Client@Example.COM "},
		Cc:      []string{"CC@Example.com"},
		Bcc:     []string{" bcc@EXAMPLE.com"},
		From:    " Attorney@Firm.COM ",
		ReplyTo: "Reply@Firm.com",
		Subject: "Update <urgent>",
		Tags:    []string{"<billing>", "invoice"},
	}

	validation.SanitizeSendRequest(req)

	assert.Equal(t, []string{"client@example.com"}, req.To)
	assert.Equal(t, []string{"cc@example.com"}, req.Cc)
	assert.Equal(t, []string{"bcc@example.com"}, req.Bcc)
	assert.Equal(t, "attorney@firm.com", req.From)
	assert.Equal(t, "reply@firm.com", req.ReplyTo)
	assert.Equal(t, "Update urgent", req.Subject)
	assert.Equal(t, []string{"billing", "invoice"}, req.Tags)
}
