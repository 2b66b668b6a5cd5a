package domain

import (
	"sort"
	"time"
)

// Session is the ordered conversation history plus its cached token total.
//
// total always equals the sum of the cached counts of all messages; messages
// without a cached count contribute nothing until counted, and pending tracks
// how many of them exist.
type Session struct {
	Name      string
	Profile   string
	CreatedAt time.Time
	UpdatedAt time.Time

	messages []Message
	total    int
	pending  int
}

func NewSession(systemPrompt string, profile string, now time.Time) *Session {
	s := &Session{Profile: profile, CreatedAt: now, UpdatedAt: now}
	s.Append(NewMessage(RoleSystem, systemPrompt, now))
	return s
}

func (s *Session) Len() int {
	return len(s.messages)
}

func (s *Session) Message(i int) Message {
	return s.messages[i]
}

// Messages returns a copy of the history.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Append(messages ...Message) {
	for _, m := range messages {
		s.messages = append(s.messages, m)
		s.account(m, 1)
		if m.CreatedAt.After(s.UpdatedAt) {
			s.UpdatedAt = m.CreatedAt
		}
	}
}

// Remove deletes the messages at the given indices and returns the tokens
// they had contributed. Out of range and duplicate indices are ignored.
func (s *Session) Remove(indices ...int) int {
	if len(indices) == 0 {
		return 0
	}

	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(s.messages) {
			drop[i] = struct{}{}
		}
	}

	freed := 0
	kept := s.messages[:0]
	for i, m := range s.messages {
		if _, ok := drop[i]; ok {
			if n, counted := m.Tokens(); counted {
				freed += n
			}
			s.account(m, -1)
			continue
		}
		kept = append(kept, m)
	}
	for i := len(kept); i < len(s.messages); i++ {
		s.messages[i] = Message{}
	}
	s.messages = kept

	return freed
}

// SetContent replaces the content of message i and invalidates its cached count.
func (s *Session) SetContent(i int, content string) {
	s.account(s.messages[i], -1)
	m := s.messages[i].withoutTokens()
	m.Content = content
	s.messages[i] = m
	s.account(m, 1)
}

// SetTokens caches the token count of message i.
func (s *Session) SetTokens(i int, n int) {
	s.account(s.messages[i], -1)
	s.messages[i] = s.messages[i].WithTokens(n)
	s.account(s.messages[i], 1)
}

// Uncounted returns the indices of messages that have no cached count.
func (s *Session) Uncounted() []int {
	if s.pending == 0 {
		return nil
	}

	out := make([]int, 0, s.pending)
	for i, m := range s.messages {
		if _, counted := m.Tokens(); !counted {
			out = append(out, i)
		}
	}
	return out
}

// CachedTotal is the running sum of cached counts.
func (s *Session) CachedTotal() int {
	return s.total
}

func (s *Session) Stale() bool {
	return s.pending > 0
}

// SumCached recomputes the cached total from scratch.
func (s *Session) SumCached() int {
	sum := 0
	for _, m := range s.messages {
		if n, counted := m.Tokens(); counted {
			sum += n
		}
	}
	return sum
}

// ReplaceMessages swaps the whole history.
func (s *Session) ReplaceMessages(messages []Message) {
	s.messages = nil
	s.total = 0
	s.pending = 0
	s.Append(messages...)
}

func (s *Session) Clone() *Session {
	c := *s
	c.messages = make([]Message, len(s.messages))
	copy(c.messages, s.messages)
	return &c
}

// Commit replaces s with a staged copy produced by Clone.
func (s *Session) Commit(staged *Session) {
	*s = *staged
}

// Chronological returns message indices ordered oldest first. Equal
// timestamps keep insertion order.
func (s *Session) Chronological() []int {
	order := make([]int, len(s.messages))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.messages[order[a]].CreatedAt.Before(s.messages[order[b]].CreatedAt)
	})
	return order
}

// Turns counts user messages that are not attachments.
func (s *Session) Turns() int {
	n := 0
	for _, m := range s.messages {
		if m.Role != RoleUser {
			continue
		}
		if _, ok := m.Marker(); !ok {
			n++
		}
	}
	return n
}

// LastAssistant returns the content of the most recent assistant response.
func (s *Session) LastAssistant() (string, bool) {
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.Role == RoleAssistant && !m.Reasoning {
			return m.Content, true
		}
	}
	return "", false
}

func (s *Session) account(m Message, sign int) {
	if n, counted := m.Tokens(); counted {
		s.total += sign * n
		return
	}
	s.pending += sign
}

// SessionInfo summarizes a stored session.
type SessionInfo struct {
	Name      string
	Profile   string
	Messages  int
	UpdatedAt time.Time
}
