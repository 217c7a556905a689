package notify

import (
	"context"
	"log/slog"

	"homesit/internal/usecase/shared"
)

type Mailer interface {
	Send(ctx context.Context, email shared.EmailPayload) error
}

// LogMailer stands in for a real email provider. Environments without a
// provider configured still see every email in the structured log.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(_ context.Context, email shared.EmailPayload) error {
	slog.Info("email dispatched",
		"to", email.To,
		"type", email.Type,
		"subject", email.Subject,
	)
	return nil
}
