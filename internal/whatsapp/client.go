package whatsapp

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Client abstracts the WhatsApp capabilities the bot relies on.
// MockClient is used in dev/dry-run and tests; RealClient (whatsmeow) in production.
type Client interface {
	Connect(ctx context.Context) error
	Close() error
	Listen(handler func(ev ChatEvent))
	SendText(ctx context.Context, to, body string) error
	Groups(ctx context.Context) ([]Group, error)
	GroupMembers(ctx context.Context, groupID string) ([]string, error)
	CreateGroup(ctx context.Context, name string, participants []string) (string, error)
	ClearChat(ctx context.Context, chatID string) error
}

// ChatEvent represents a received WhatsApp message.
type ChatEvent struct {
	From      string // chat the message came from, or our own JID when FromMe
	To        string // our own JID, or the target chat when FromMe
	Author    string // sender inside a group; equals From in private chats
	Body      string
	IsGroup   bool
	FromMe    bool
	Timestamp time.Time
}

// ReplyTarget is the chat a response to this event should go to.
func (e ChatEvent) ReplyTarget() string {
	if e.FromMe && e.To != "" {
		return e.To
	}
	return e.From
}

// Group is a joined group chat.
type Group struct {
	ID   string
	Name string
}

// --- Mock implementation ---

// MockClient records every call in memory and serves canned group data.
type MockClient struct {
	// Echo, when set, receives a human-readable copy of every outbound message.
	Echo io.Writer

	GroupList []Group
	Members   map[string][]string

	SendErr    func(to string) error
	GroupsErr  error
	MembersErr map[string]error
	CreateErr  error
	ClearErr   map[string]error

	mu       sync.Mutex
	sent     []SentMessage
	created  []CreatedGroup
	cleared  []string
	handlers []func(ev ChatEvent)
}

// SentMessage records a message sent via MockClient.
type SentMessage struct {
	To     string
	Body   string
	SentAt time.Time
}

// CreatedGroup records a CreateGroup call made on MockClient.
type CreatedGroup struct {
	Name         string
	Participants []string
}

// NewMockClient creates an in-memory WhatsApp client.
func NewMockClient() *MockClient {
	return &MockClient{Members: make(map[string][]string)}
}

func (m *MockClient) Connect(ctx context.Context) error { return nil }

func (m *MockClient) Close() error { return nil }

func (m *MockClient) Listen(handler func(ev ChatEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// Listeners returns the number of registered handlers.
func (m *MockClient) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers)
}

// SimulateEvent injects a fake incoming message (used in tests and dry-run).
func (m *MockClient) SimulateEvent(ev ChatEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	m.mu.Lock()
	handlers := append([]func(ChatEvent){}, m.handlers...)
	m.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (m *MockClient) SendText(ctx context.Context, to, body string) error {
	if m.SendErr != nil {
		if err := m.SendErr(to); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.sent = append(m.sent, SentMessage{To: to, Body: body, SentAt: time.Now()})
	m.mu.Unlock()
	if m.Echo != nil {
		fmt.Fprintf(m.Echo, "\n[DRY-RUN WhatsApp → %s]\n%s\n[/WhatsApp]\n\n", to, body)
	}
	return nil
}

func (m *MockClient) Groups(ctx context.Context) ([]Group, error) {
	if m.GroupsErr != nil {
		return nil, m.GroupsErr
	}
	return append([]Group(nil), m.GroupList...), nil
}

func (m *MockClient) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	if err := m.MembersErr[groupID]; err != nil {
		return nil, err
	}
	return append([]string(nil), m.Members[groupID]...), nil
}

func (m *MockClient) CreateGroup(ctx context.Context, name string, participants []string) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, CreatedGroup{Name: name, Participants: append([]string(nil), participants...)})
	return fmt.Sprintf("mock-%d@g.us", len(m.created)), nil
}

func (m *MockClient) ClearChat(ctx context.Context, chatID string) error {
	if err := m.ClearErr[chatID]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, chatID)
	return nil
}

// Sent returns a copy of every message sent so far.
func (m *MockClient) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

// SentTo returns the bodies sent to one chat, in order.
func (m *MockClient) SentTo(to string) []string {
	var out []string
	for _, s := range m.Sent() {
		if s.To == to {
			out = append(out, s.Body)
		}
	}
	return out
}

// Created returns a copy of every CreateGroup call.
func (m *MockClient) Created() []CreatedGroup {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CreatedGroup(nil), m.created...)
}

// Cleared returns the chats cleared so far.
func (m *MockClient) Cleared() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cleared...)
}
