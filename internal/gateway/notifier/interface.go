package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by senders that have no credentials.
var ErrNotConfigured = errors.New("notifier: not configured")

// TextNotifier is the only surface the scanner needs from a notification
// channel.
type TextNotifier interface {
	SendText(ctx context.Context, text string) error
}
