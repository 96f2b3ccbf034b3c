package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultPostmarkURL = "https://api.postmarkapp.com/email"

// PostmarkSender implements the Sender interface using the Postmark API.
type PostmarkSender struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type postmarkEmail struct {
	From        string           `json:"From"`
	To          string           `json:"To"`
	Cc          string           `json:"Cc,omitempty"`
	Bcc         string           `json:"Bcc,omitempty"`
	ReplyTo     string           `json:"ReplyTo,omitempty"`
	Subject     string           `json:"Subject"`
	HtmlBody    string           `json:"HtmlBody,omitempty"`
	TextBody    string           `json:"TextBody,omitempty"`
	Tag         string           `json:"Tag,omitempty"`
	Headers     []postmarkHeader `json:"Headers,omitempty"`
	Attachments []postmarkAttach `json:"Attachments,omitempty"`
}

type postmarkHeader struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type postmarkAttach struct {
	Name        string `json:"Name"`
	Content     string `json:"Content"`
	ContentType string `json:"ContentType"`
}

type postmarkResponse struct {
	To        string `json:"To"`
	MessageID string `json:"MessageID"`
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// NewPostmarkSender creates a new Postmark email sender.
func NewPostmarkSender(apiKey string) *PostmarkSender {
	return &PostmarkSender{
		apiKey:  apiKey,
		baseURL: defaultPostmarkURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (p *PostmarkSender) WithBaseURL(url string) *PostmarkSender {
	p.baseURL = url
	return p
}

// Send sends an email via Postmark.
func (p *PostmarkSender) Send(ctx context.Context, email *Email) (string, error) {
	payload := postmarkEmail{
		From:     email.From,
		To:       strings.Join(email.To, ","),
		Cc:       strings.Join(email.Cc, ","),
		Bcc:      strings.Join(email.Bcc, ","),
		ReplyTo:  email.ReplyTo,
		Subject:  email.Subject,
		HtmlBody: email.HTMLBody,
		TextBody: email.TextBody,
		Tag:      email.Tag,
	}

	if len(email.Headers) > 0 {
		headers := make([]postmarkHeader, 0, len(email.Headers))
		for name, value := range email.Headers {
			headers = append(headers, postmarkHeader{Name: name, Value: value})
		}
		payload.Headers = headers
	}

	if len(email.Attachments) > 0 {
		attachments := make([]postmarkAttach, len(email.Attachments))
		for i, att := range email.Attachments {
			attachments[i] = postmarkAttach{
				Name:        att.Filename,
				Content:     base64.StdEncoding.EncodeToString(att.Content),
				ContentType: att.ContentType,
			}
		}
		payload.Attachments = attachments
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result postmarkResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", TransportError("postmark API error (status %d): %s", resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	// Postmark reports rejections (bad address, suppressed recipient,
	// oversized payload, auth failure) through ErrorCode in the body.
	if result.ErrorCode != 0 {
		return "", TransportError("postmark error %d: %s", result.ErrorCode, result.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", TransportError("postmark API error (status %d): %s", resp.StatusCode, string(body))
	}

	return result.MessageID, nil
}
