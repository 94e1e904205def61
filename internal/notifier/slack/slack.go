package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/notifier"
	"github.com/slack-go/slack"
)

const requestTimeout = 10 * time.Second

// ErrInvalidThreadID is returned for thread ids not produced by CreateThreadUnder.
var ErrInvalidThreadID = errors.New("slack: invalid thread id")

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	DeleteMessageContext(ctx context.Context, channel, messageTimestamp string) (string, string, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

var _ notifier.Messenger = &Messenger{}

// Messenger talks to Slack. Threads are identified as "<channel>:<parent ts>".
type Messenger struct {
	api slackClient
}

// NewMessenger creates a new Messenger.
func NewMessenger(token string) *Messenger {
	return &Messenger{api: slack.New(token)}
}

// NewMessengerWithAPI creates a new Messenger with a specific slack client.
// Useful for tests that need to intercept API calls.
func NewMessengerWithAPI(api slackClient) *Messenger {
	return &Messenger{api: api}
}

// ThreadID joins a channel and a parent message timestamp.
func ThreadID(channelID, ts string) string {
	return channelID + ":" + ts
}

// SplitThreadID is the inverse of ThreadID.
func SplitThreadID(threadID string) (channelID, ts string, err error) {
	channelID, ts, ok := strings.Cut(threadID, ":")
	if !ok || channelID == "" || ts == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidThreadID, threadID)
	}
	return channelID, ts, nil
}

func (s *Messenger) SendDirectMessage(ctx context.Context, userID, text string) error {
	if notifier.IsDryRun(ctx) {
		log.Info("[Dry Run] Would send direct message", "user", userID, "text", text)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	channel, _, _, err := s.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{Users: []string{userID}})
	if err != nil {
		return fmt.Errorf("failed to open conversation with %s: %w", userID, err)
	}
	if _, _, err := s.api.PostMessageContext(ctx, channel.ID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("failed to post direct message: %w", err)
	}
	log.Debug("Sent direct message", "user", userID)
	return nil
}

func (s *Messenger) SendToChannel(ctx context.Context, channelID, text string) (string, error) {
	if notifier.IsDryRun(ctx) {
		log.Info("[Dry Run] Would send Slack message", "channel", channelID, "text", text)
		return "dry-run-ts", nil
	}

	options := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if strings.Contains(channelID, ":") {
		channel, ts, err := SplitThreadID(channelID)
		if err != nil {
			return "", err
		}
		channelID = channel
		options = append(options, slack.MsgOptionTS(ts))
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	_, timestamp, err := s.api.PostMessageContext(ctx, channelID, options...)
	if err != nil {
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", fmt.Errorf("failed to post message: %w", err)
	}
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return timestamp, nil
}

func (s *Messenger) CreateThreadUnder(ctx context.Context, channelID, title, startingMessage string) (string, error) {
	if strings.Contains(channelID, ":") {
		return "", notifier.ErrNotPostableChannel
	}
	if notifier.IsDryRun(ctx) {
		log.Info("[Dry Run] Would create thread", "channel", channelID, "title", title)
		return ThreadID(channelID, "dry-run-ts"), nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	_, parentTS, err := s.api.PostMessageContext(ctx, channelID, slack.MsgOptionText("*"+title+"*", false))
	if err != nil {
		return "", fmt.Errorf("failed to post thread title: %w", err)
	}
	if startingMessage != "" {
		if _, _, err := s.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(startingMessage, false), slack.MsgOptionTS(parentTS)); err != nil {
			// The thread exists even if the first reply failed.
			log.Warn("Failed to post thread starting message", "error", err, "channel", channelID, "thread", parentTS)
		}
	}
	log.Info("Created thread", "channel", channelID, "thread", parentTS, "title", title)
	return ThreadID(channelID, parentTS), nil
}

func (s *Messenger) ArchiveAndDelete(ctx context.Context, threadID string) error {
	channelID, ts, err := SplitThreadID(threadID)
	if err != nil {
		return err
	}
	if notifier.IsDryRun(ctx) {
		log.Info("[Dry Run] Would delete thread", "channel", channelID, "thread", ts)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if _, _, err := s.api.DeleteMessageContext(ctx, channelID, ts); err != nil {
		return fmt.Errorf("failed to delete thread %s: %w", threadID, err)
	}
	log.Info("Deleted thread", "channel", channelID, "thread", ts)
	return nil
}

func (s *Messenger) ResolveDisplayName(ctx context.Context, userID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	user, err := s.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user info for %s: %w", userID, err)
	}
	switch {
	case user.Profile.DisplayName != "":
		return user.Profile.DisplayName, nil
	case user.RealName != "":
		return user.RealName, nil
	default:
		return user.Name, nil
	}
}
