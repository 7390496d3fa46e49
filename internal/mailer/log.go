package mailer

import (
	"context"

	"github.com/Taswoor2507/movie-api/internal/logging"
)

// Log writes messages to the request logger instead of delivering them.
// Intended for local development.
type Log struct{}

// Send logs msg at info level, including its body.
func (Log) Send(ctx context.Context, msg Message) error {
	logging.FromContext(ctx).Info("email not delivered (log mail driver)",
		"to", msg.To,
		"subject", msg.Subject,
		"html", msg.HTML,
	)
	return nil
}
