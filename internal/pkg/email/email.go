package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog"
)

// Providers selectable in configuration
const (
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
	ProviderLog      = "log"
)

// Message is a single outgoing email
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages through one provider
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config selects and configures the provider
type Config struct {
	Provider       string
	AppName        string
	FromName       string
	FromEmail      string
	SendGridAPIKey string
	SMTP           SMTPConfig
}

// NewSender builds the configured provider. Missing credentials fall back to
// the log sender so local setups work without an email account.
func NewSender(cfg Config, logger zerolog.Logger) Sender {
	switch strings.ToLower(cfg.Provider) {
	case ProviderSendGrid:
		if cfg.SendGridAPIKey != "" {
			return NewSendGridSender(cfg.SendGridAPIKey, cfg.FromName, cfg.FromEmail, logger)
		}
		logger.Warn().Msg("SendGrid API key not configured, emails will only be logged")
	case ProviderSMTP:
		if cfg.SMTP.Username != "" && cfg.SMTP.Password != "" {
			smtpCfg := cfg.SMTP
			smtpCfg.FromName, smtpCfg.FromEmail = cfg.FromName, cfg.FromEmail
			return NewSMTPSender(smtpCfg, logger)
		}
		logger.Warn().Msg("SMTP credentials not configured, emails will only be logged")
	}
	return NewLogSender(logger)
}

// CertificateIssued is the data of the issuance notification
type CertificateIssued struct {
	ToEmail            string
	ToName             string
	CourseName         string
	RegistrationNumber string
	CertificateURL     string
}

// Notifier sends domain notifications
type Notifier struct {
	sender  Sender
	appName string
}

// NewNotifier creates a Notifier
func NewNotifier(sender Sender, appName string) *Notifier {
	if appName == "" {
		appName = "LMS"
	}
	return &Notifier{sender: sender, appName: appName}
}

var certificateIssuedHTML = template.Must(template.New("issued").Parse(`<html>
<body>
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2 style="color: #1f3a5f;">Congratulations, {{.ToName}}!</h2>
<p>You have completed <strong>{{.CourseName}}</strong> and your certificate is ready.</p>
<p>Registration number: <strong>{{.RegistrationNumber}}</strong></p>
{{with .CertificateURL}}<p style="text-align: center; margin: 30px 0;"><a href="{{.}}" style="background-color: #1f3a5f; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">View certificate</a></p>{{end}}
</div>
</body>
</html>`))

// SendCertificateIssued tells a student their certificate is available
func (n *Notifier) SendCertificateIssued(ctx context.Context, data CertificateIssued) error {
	if data.ToEmail == "" {
		return fmt.Errorf("certificate notification: missing recipient")
	}

	var html bytes.Buffer
	if err := certificateIssuedHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("render certificate email: %w", err)
	}

	text := fmt.Sprintf("Congratulations %s!\n\nYou have completed %s. Registration number: %s.\n",
		data.ToName, data.CourseName, data.RegistrationNumber)
	if data.CertificateURL != "" {
		text += "View your certificate: " + data.CertificateURL + "\n"
	}

	return n.sender.Send(ctx, Message{
		ToEmail: data.ToEmail,
		ToName:  data.ToName,
		Subject: fmt.Sprintf("[%s] Your certificate for %s", n.appName, data.CourseName),
		Text:    text,
		HTML:    html.String(),
	})
}
