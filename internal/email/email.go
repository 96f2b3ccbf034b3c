package email

import "context"

// Email represents a fully-resolved message to be sent.
type Email struct {
	To          []string          // Recipient email addresses
	Cc          []string          // Carbon-copy addresses (optional)
	Bcc         []string          // Blind carbon-copy addresses (optional)
	From        string            // Sender email address
	ReplyTo     string            // Reply-to override (optional)
	Subject     string            // Email subject
	TextBody    string            // Plain text body
	HTMLBody    string            // HTML body (optional)
	Attachments []Attachment      // File attachments (optional)
	Headers     map[string]string // Custom headers (optional)
	Tag         string            // Provider-side categorization tag (optional)
}

// Attachment represents a file attachment for an email.
type Attachment struct {
	Filename    string // Name of the file
	ContentType string // MIME type
	Content     []byte // File content
}

// Sender defines the interface for sending emails.
// Implementations can use SMTP, Postmark, Resend, SES, etc.
type Sender interface {
	// Send sends an email message.
	// Returns the message ID from the email provider (if available).
	// Provider-side rejections come back as a typed *EmailError.
	Send(ctx context.Context, email *Email) (string, error)
}
