package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTP connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // optional - some servers allow unauthenticated relay
	Password string // optional
	From     string // default sender address
	FromName string // optional sender display name
}

// SMTPSender implements Sender using go-mail. Used in development and
// as the fallback transport when no Postmark token is configured.
type SMTPSender struct {
	config *SMTPConfig
	logger *slog.Logger
}

// NewSMTPSender creates a new SMTP email sender.
func NewSMTPSender(config *SMTPConfig, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{
		config: config,
		logger: logger,
	}
}

// Send sends an email via SMTP.
func (s *SMTPSender) Send(ctx context.Context, email *Email) (string, error) {
	msg := mail.NewMsg()

	from := email.From
	if from == "" {
		from = s.config.From
	}
	if err := msg.From(from); err != nil {
		return "", fmt.Errorf("invalid from address: %w", err)
	}

	if err := msg.To(email.To...); err != nil {
		return "", fmt.Errorf("invalid to address: %w", err)
	}
	if len(email.Cc) > 0 {
		if err := msg.Cc(email.Cc...); err != nil {
			return "", fmt.Errorf("invalid cc address: %w", err)
		}
	}
	if len(email.Bcc) > 0 {
		if err := msg.Bcc(email.Bcc...); err != nil {
			return "", fmt.Errorf("invalid bcc address: %w", err)
		}
	}
	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return "", fmt.Errorf("invalid reply-to address: %w", err)
		}
	}

	msg.Subject(email.Subject)

	// Prefer HTML with text alternative when both are present.
	if email.HTMLBody != "" && email.TextBody != "" {
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	} else if email.HTMLBody != "" {
		msg.SetBodyString(mail.TypeTextHTML, email.HTMLBody)
	} else {
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	}

	for key, value := range email.Headers {
		msg.SetGenHeader(mail.Header(key), value)
	}

	for _, att := range email.Attachments {
		if err := msg.AttachReader(att.Filename, bytes.NewReader(att.Content),
			mail.WithFileContentType(mail.ContentType(att.ContentType))); err != nil {
			return "", fmt.Errorf("failed to attach file %s: %w", att.Filename, err)
		}
	}

	client, err := mail.NewClient(s.config.Host, s.buildClientOptions()...)
	if err != nil {
		return "", fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("smtp: failed to send email", "error", err)
		return "", TransportError("smtp delivery failed: %v", err)
	}

	// SMTP doesn't hand back a provider id, so synthesize one for the log.
	messageID := fmt.Sprintf("smtp-%d", time.Now().UnixNano())
	return messageID, nil
}

// buildClientOptions returns go-mail client options based on configuration.
func (s *SMTPSender) buildClientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTimeout(30 * time.Second),
	}

	// TLS mode based on port (go-mail auto-detects, but we can be explicit)
	switch s.config.Port {
	case 465:
		opts = append(opts, mail.WithSSL())
	case 587:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		// Plain SMTP, opportunistic STARTTLS (also covers Mailhog on 1025)
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if s.config.Username != "" && s.config.Password != "" {
		opts = append(opts,
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}

	return opts
}
