package notifier

import (
	"context"

	"roshi/internal/logger"
)

// Noop stands in for Telegram when credentials are missing. Alerts are only
// written to the log and reported as undelivered.
type Noop struct {
	Reason string
}

func (n Noop) SendText(_ context.Context, text string) error {
	logger.Infof("notifier disabled (%s), alert not delivered:\n%s", n.Reason, text)
	return ErrNotConfigured
}
