package email_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislegal/praxis/internal/email"
)

func testEmail() *email.Email {
	return &email.Email{
		To:       []string{"client@example.com"},
		From:     "Acme Law <noreply@acmelaw.test>",
		Subject:  "Hearing scheduled",
		HTMLBody: "<p>Monday at 9.</p>",
		TextBody: "Monday at 9.",
		Tag:      "general",
		Headers:  map[string]string{"X-Priority": "1"},
		Attachments: []email.Attachment{
			{Filename: "notice.pdf", ContentType: "application/pdf", Content: []byte("pdf-bytes")},
		},
	}
}

func TestPostmarkSender_Send(t *testing.T) {
	var captured map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Postmark-Server-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]any{
			"To":        "client@example.com",
			"MessageID": "pm-abc-123",
			"ErrorCode": 0,
			"Message":   "OK",
		})
	}))
	defer srv.Close()

	sender := email.NewPostmarkSender("test-token").WithBaseURL(srv.URL)

	id, err := sender.Send(context.Background(), testEmail())
	require.NoError(t, err)
	assert.Equal(t, "pm-abc-123", id)

	assert.Equal(t, "client@example.com", captured["To"])
	assert.Equal(t, "Hearing scheduled", captured["Subject"])
	assert.Equal(t, "general", captured["Tag"])

	attachments, ok := captured["Attachments"].([]any)
	require.True(t, ok)
	require.Len(t, attachments, 1)
	att := attachments[0].(map[string]any)
	assert.Equal(t, "notice.pdf", att["Name"])
	assert.Equal(t, "cGRmLWJ5dGVz", att["Content"], "attachment content is base64 encoded")
}

func TestPostmarkSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"ErrorCode": 300,
			"Message":   "Invalid 'To' address",
		})
	}))
	defer srv.Close()

	sender := email.NewPostmarkSender("test-token").WithBaseURL(srv.URL)

	_, err := sender.Send(context.Background(), testEmail())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postmark error 300")

	var emailErr *email.EmailError
	require.ErrorAs(t, err, &emailErr)
	assert.Equal(t, "transport", emailErr.Code)
}

func TestPostmarkSender_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	sender := email.NewPostmarkSender("test-token").WithBaseURL(srv.URL)

	_, err := sender.Send(context.Background(), testEmail())
	assert.Error(t, err)
}
