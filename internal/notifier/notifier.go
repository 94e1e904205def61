package notifier

import (
	"context"
	"errors"
)

// ErrNotPostableChannel is returned when a thread is asked to host another thread.
var ErrNotPostableChannel = errors.New("notifier: channel cannot host threads")

// Messenger is the chat platform as seen by the booking engine.
// Every call is best effort: callers log and record failures, they never
// abort a state change because of them.
type Messenger interface {
	// SendDirectMessage delivers text privately to a user.
	SendDirectMessage(ctx context.Context, userID, text string) error
	// SendToChannel posts text to a channel or to a thread id and returns the message id.
	SendToChannel(ctx context.Context, channelID, text string) (string, error)
	// CreateThreadUnder opens a thread in channelID and returns its id.
	CreateThreadUnder(ctx context.Context, channelID, title, startingMessage string) (string, error)
	// ArchiveAndDelete closes a thread created by CreateThreadUnder.
	ArchiveAndDelete(ctx context.Context, threadID string) error
	// ResolveDisplayName returns the user's current display name.
	ResolveDisplayName(ctx context.Context, userID string) (string, error)
}

type contextKey string

const dryRunKey contextKey = "dryRun"

// WithDryRun marks ctx so that messengers log messages instead of sending them.
func WithDryRun(ctx context.Context, dryRun bool) context.Context {
	return context.WithValue(ctx, dryRunKey, dryRun)
}

// IsDryRun reports whether ctx was marked by WithDryRun.
func IsDryRun(ctx context.Context) bool {
	dryRun, ok := ctx.Value(dryRunKey).(bool)
	return ok && dryRun
}
