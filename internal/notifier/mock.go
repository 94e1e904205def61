package notifier

import (
	"context"
	"fmt"
	"sync"
)

// SentMessage is a message captured by the Mock.
type SentMessage struct {
	Target string
	Text   string
}

// CreatedThread is a thread captured by the Mock.
type CreatedThread struct {
	ChannelID string
	Title     string
	Text      string
	ThreadID  string
}

// Mock is a Messenger that records every call. Behaviour can be overridden
// per method with the Func fields.
type Mock struct {
	mu sync.Mutex

	SendDirectMessageFunc  func(ctx context.Context, userID, text string) error
	SendToChannelFunc      func(ctx context.Context, channelID, text string) (string, error)
	CreateThreadUnderFunc  func(ctx context.Context, channelID, title, startingMessage string) (string, error)
	ArchiveAndDeleteFunc   func(ctx context.Context, threadID string) error
	ResolveDisplayNameFunc func(ctx context.Context, userID string) (string, error)

	DirectMessages []SentMessage
	ChannelPosts   []SentMessage
	Threads        []CreatedThread
	Archived       []string

	threadSeq int
}

var _ Messenger = (*Mock)(nil)

// NewMock creates a new mock messenger.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) SendDirectMessage(ctx context.Context, userID, text string) error {
	m.mu.Lock()
	m.DirectMessages = append(m.DirectMessages, SentMessage{Target: userID, Text: text})
	fn := m.SendDirectMessageFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, userID, text)
	}
	return nil
}

func (m *Mock) SendToChannel(ctx context.Context, channelID, text string) (string, error) {
	m.mu.Lock()
	m.ChannelPosts = append(m.ChannelPosts, SentMessage{Target: channelID, Text: text})
	fn := m.SendToChannelFunc
	n := len(m.ChannelPosts)
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, channelID, text)
	}
	return fmt.Sprintf("msg-%d", n), nil
}

func (m *Mock) CreateThreadUnder(ctx context.Context, channelID, title, startingMessage string) (string, error) {
	m.mu.Lock()
	fn := m.CreateThreadUnderFunc
	if fn == nil {
		m.threadSeq++
		id := fmt.Sprintf("%s:thread-%d", channelID, m.threadSeq)
		m.Threads = append(m.Threads, CreatedThread{ChannelID: channelID, Title: title, Text: startingMessage, ThreadID: id})
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	id, err := fn(ctx, channelID, title, startingMessage)
	if err == nil {
		m.mu.Lock()
		m.Threads = append(m.Threads, CreatedThread{ChannelID: channelID, Title: title, Text: startingMessage, ThreadID: id})
		m.mu.Unlock()
	}
	return id, err
}

func (m *Mock) ArchiveAndDelete(ctx context.Context, threadID string) error {
	m.mu.Lock()
	m.Archived = append(m.Archived, threadID)
	fn := m.ArchiveAndDeleteFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, threadID)
	}
	return nil
}

func (m *Mock) ResolveDisplayName(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	fn := m.ResolveDisplayNameFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, userID)
	}
	return "name-" + userID, nil
}

// DirectMessagesTo returns the texts sent privately to userID.
func (m *Mock) DirectMessagesTo(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var texts []string
	for _, msg := range m.DirectMessages {
		if msg.Target == userID {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

// ThreadCount returns the number of threads created so far.
func (m *Mock) ThreadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Threads)
}
