package email

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender only logs messages. Used in development and when no provider is configured.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements Sender
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info().
		Str("to", msg.ToEmail).
		Str("subject", msg.Subject).
		Str("text", msg.Text).
		Msg("Email not sent (log provider)")
	return nil
}
