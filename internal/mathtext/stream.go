package mathtext

import "strings"

// Stream sanitizes text that arrives in pieces. Text is released only up to
// a line break that sits outside any math span, code span or fence, so the
// concatenated output equals Sanitize of the whole input.
type Stream struct {
	pending strings.Builder
}

// Push adds a chunk and returns the newly released text, if any.
func (s *Stream) Push(chunk string) string {
	s.pending.WriteString(chunk)
	text := s.pending.String()

	safe := rewrite(text, true).safe
	if safe == 0 {
		return ""
	}

	s.pending.Reset()
	s.pending.WriteString(text[safe:])
	return Sanitize(text[:safe])
}

// Flush releases everything still held.
func (s *Stream) Flush() string {
	text := s.pending.String()
	s.pending.Reset()
	return Sanitize(text)
}

// Pending returns the raw text not yet released.
func (s *Stream) Pending() string {
	return s.pending.String()
}
