package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []Message
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestNotifier_SendCertificateIssued(t *testing.T) {
	rec := &recordingSender{}
	n := NewNotifier(rec, "Academy")

	err := n.SendCertificateIssued(context.Background(), CertificateIssued{
		ToEmail:            "ana@example.com",
		ToName:             "Ana",
		CourseName:         "Go 101",
		RegistrationNumber: "CERT-1-ABCDE",
		CertificateURL:     "https://lms.example.com/uploads/certificates/1.png",
	})
	require.NoError(t, err)
	require.Len(t, rec.sent, 1)

	msg := rec.sent[0]
	assert.Equal(t, "[Academy] Your certificate for Go 101", msg.Subject)
	assert.Contains(t, msg.HTML, "CERT-1-ABCDE")
	assert.Contains(t, msg.Text, "https://lms.example.com/uploads/certificates/1.png")
}

func TestNotifier_RequiresRecipient(t *testing.T) {
	n := NewNotifier(&recordingSender{}, "")
	assert.Error(t, n.SendCertificateIssued(context.Background(), CertificateIssued{CourseName: "x"}))
}

func TestNewSender_FallsBackToLog(t *testing.T) {
	assert.IsType(t, &LogSender{}, NewSender(Config{Provider: ProviderSendGrid}, zerolog.Nop()))
	assert.IsType(t, &LogSender{}, NewSender(Config{Provider: ProviderSMTP}, zerolog.Nop()))
	assert.IsType(t, &SendGridSender{}, NewSender(Config{Provider: ProviderSendGrid, SendGridAPIKey: "k"}, zerolog.Nop()))
}

func TestSendGridSender_Send(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sendgridEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendGridSender("key", "LMS", "noreply@example.com", zerolog.Nop())
	s.host = srv.URL

	err := s.Send(context.Background(), Message{ToEmail: "ana@example.com", Subject: "Hi", Text: "t", HTML: "<p>h</p>"})
	require.NoError(t, err)
	assert.Equal(t, "noreply@example.com", payload["from"].(map[string]any)["email"])
}

func TestSendGridSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewSendGridSender("bad", "LMS", "noreply@example.com", zerolog.Nop())
	s.host = srv.URL

	assert.Error(t, s.Send(context.Background(), Message{ToEmail: "a@b.co", Subject: "s", Text: "t", HTML: "h"}))
}
