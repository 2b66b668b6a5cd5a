package domain

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single history entry. Its content does not change after it is
// appended except through Session.SetContent, which drops the cached count.
type Message struct {
	Role        Role
	Content     string
	CreatedAt   time.Time
	Interrupted bool
	// Reasoning marks retained model reasoning that precedes a response.
	Reasoning bool

	tokens  int
	counted bool
}

func NewMessage(role Role, content string, createdAt time.Time) Message {
	return Message{Role: role, Content: content, CreatedAt: createdAt}
}

// Tokens returns the cached token count and whether one is present.
func (m Message) Tokens() (int, bool) {
	return m.tokens, m.counted
}

func (m Message) WithTokens(n int) Message {
	m.tokens = n
	m.counted = true
	return m
}

func (m Message) withoutTokens() Message {
	m.tokens = 0
	m.counted = false
	return m
}

// Marker returns the attachment marker embedded in the content, if any.
func (m Message) Marker() (Marker, bool) {
	return ParseMarker(m.Content)
}
