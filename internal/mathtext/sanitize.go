// Package mathtext rewrites TeX-style math in model output into plain
// Unicode that a terminal can show, leaving code and markdown structure
// untouched.
//
// Recognized spans are $$...$$, \[...\], \(...\) and $...$, plus a small set
// of control sequences such as \frac{1}{2} or \alpha that appear outside any
// delimiters. A span that cannot be converted is printed exactly as written.
package mathtext

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxPasses bounds how often Sanitize reruns the rewrite on its own output.
const maxPasses = 8

// Sanitize converts all complete math in text. Unterminated spans are kept
// as literal text. Sanitize(Sanitize(x)) == Sanitize(x) for any text that
// settles within maxPasses rewrites, and each pass is linear in len(text).
func Sanitize(text string) string {
	for range maxPasses {
		next := rewrite(text, false).out
		if next == text {
			break
		}
		text = next
	}
	return text
}

// SanitizePartial converts a prefix of a text that is still arriving. The
// result stops before the first construct that may still be completed by
// later input, so half-received math is never shown as literal markup.
//
// A $...$ span whose closing dollar is the last byte of prefix is released
// as math. If a digit arrives next, that dollar was currency after all and
// the following call prints the text as written.
func SanitizePartial(prefix string) string {
	return Sanitize(prefix[:rewrite(prefix, true).cut])
}

type result struct {
	out string
	// cut is where holding back began, len(src) if nothing was held.
	cut int
	// safe is the offset just past the last newline that was consumed
	// outside any span or code fence.
	safe int
}

// ending is the known fate of a closer search that reaches an offset.
type ending uint8

const (
	undecided ending = iota
	// rejected: the search stops at a blank line, a newline or a dollar
	// that cannot close, and the opener is printed as written.
	rejected
	// open: the search runs to the end of the input.
	open
)

type scanner struct {
	src     string
	partial bool
	out     strings.Builder
	pos     int
	hold    int
	safe    int
	// ends records, per closer, offsets that a failed search walked
	// through. Searches are deterministic from any offset, so a later
	// search that lands on one fails the same way without rescanning.
	ends map[string][]ending
	// eol caches the offset of the next line break, len(src) if none.
	eol int
}

func rewrite(src string, partial bool) result {
	s := &scanner{src: src, partial: partial, hold: -1, eol: -1}
	s.out.Grow(len(src))
	s.run()

	cut := len(src)
	if s.hold >= 0 {
		cut = s.hold
	}
	return result{out: s.out.String(), cut: cut, safe: s.safe}
}

func (s *scanner) run() {
	for s.pos < len(s.src) && s.hold < 0 {
		if s.atLineStart() && s.fence() {
			continue
		}

		switch s.src[s.pos] {
		case '\n':
			s.out.WriteByte('\n')
			s.pos++
			s.safe = s.pos
		case '`':
			s.codeSpan()
		case '\\':
			s.backslash()
		case '$':
			s.dollar()
		default:
			s.out.WriteByte(s.src[s.pos])
			s.pos++
		}
	}
}

func (s *scanner) atLineStart() bool {
	return s.pos == 0 || s.src[s.pos-1] == '\n'
}

func (s *scanner) literal(n int) {
	s.out.WriteString(s.src[s.pos : s.pos+n])
	s.pos += n
}

// fence copies a fenced code block verbatim. It reports whether it consumed
// input or started holding.
func (s *scanner) fence() bool {
	line, _, hasNewline := strings.Cut(s.src[s.pos:], "\n")
	ch, n, ok := fenceRun(line)
	if !ok {
		return false
	}
	if n < 3 {
		if s.partial && !hasNewline && n == len(strings.TrimLeft(line, " ")) {
			s.hold = s.pos
			return true
		}
		return false
	}
	if ch == '`' && strings.Contains(strings.TrimLeft(line, " ")[n:], "`") {
		return false
	}

	end := len(s.src)
	for i := s.pos + len(line); i < len(s.src); {
		start := i + 1
		next, _, _ := strings.Cut(s.src[start:], "\n")
		if closesFence(next, ch, n) {
			end = start + len(next)
			break
		}
		i = start + len(next)
	}

	s.out.WriteString(s.src[s.pos:end])
	s.pos = end
	return true
}

// fenceRun returns the fence character and run length at the start of line,
// allowing up to three spaces of indent.
func fenceRun(line string) (byte, int, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || trimmed == "" {
		return 0, 0, false
	}
	ch := trimmed[0]
	if ch != '`' && ch != '~' {
		return 0, 0, false
	}
	n := len(trimmed) - len(strings.TrimLeft(trimmed, string(ch)))
	return ch, n, true
}

func closesFence(line string, ch byte, n int) bool {
	got, run, ok := fenceRun(line)
	if !ok || got != ch || run < n {
		return false
	}
	return strings.TrimSpace(strings.TrimLeft(line, " ")[run:]) == ""
}

func (s *scanner) codeSpan() {
	start := s.pos
	n := backtickRun(s.src, start)

	for j := start + n; j < len(s.src); {
		switch {
		case s.src[j] == '`':
			m := backtickRun(s.src, j)
			if m == n {
				s.literal(j + m - start)
				return
			}
			j += m
		case strings.HasPrefix(s.src[j:], "\n\n"):
			s.literal(n)
			return
		default:
			j++
		}
	}

	if s.partial {
		s.hold = start
		return
	}
	s.literal(n)
}

func backtickRun(src string, i int) int {
	n := 0
	for i+n < len(src) && src[i+n] == '`' {
		n++
	}
	return n
}

func (s *scanner) backslash() {
	i := s.pos
	if i+1 >= len(s.src) {
		s.unterminated(1)
		return
	}

	switch next := s.src[i+1]; {
	case next == '(':
		s.span(2, `\)`)
	case next == '[':
		s.span(2, `\]`)
	case isLetter(next):
		s.command()
	default:
		_, size := utf8.DecodeRuneInString(s.src[i+1:])
		s.literal(1 + size)
	}
}

func (s *scanner) dollar() {
	i := s.pos
	if i+1 >= len(s.src) {
		s.unterminated(1)
		return
	}
	if s.src[i+1] == '$' {
		s.span(2, "$$")
		return
	}
	s.inlineDollar()
}

// unterminated handles an opener whose end is not in the input: held back
// while streaming, printed as written otherwise.
func (s *scanner) unterminated(openLen int) {
	if s.partial {
		s.hold = s.pos
		return
	}
	s.literal(openLen)
}

// endsFor returns the failed-search record for closer. The slot at
// len(src) marks the end of input.
func (s *scanner) endsFor(closer string) []ending {
	if s.ends == nil {
		s.ends = make(map[string][]ending, 4)
	}
	ends, ok := s.ends[closer]
	if !ok {
		ends = make([]ending, len(s.src)+1)
		ends[len(s.src)] = open
		s.ends[closer] = ends
	}
	return ends
}

// skip advances a closer search by one position. An escaped character is
// stepped over as a pair unless it is a line break.
func skip(src string, j int) int {
	if src[j] == '\\' && j+1 < len(src) && src[j+1] != '\n' {
		return j + 2
	}
	return j + 1
}

// bury marks the walk from j up to stop as leading to fate.
func bury(src string, ends []ending, j, stop int, fate ending) {
	for j < stop && ends[j] == undecided {
		ends[j] = fate
		j = skip(src, j)
	}
}

// fail prints or holds an opener whose search ended with fate.
func (s *scanner) fail(openLen int, fate ending) {
	if fate == open {
		s.unterminated(openLen)
		return
	}
	s.literal(openLen)
}

// span handles $$, \[ and \( spans. They may cross single newlines but not
// a blank line.
func (s *scanner) span(openLen int, closer string) {
	start := s.pos
	ends := s.endsFor(closer)
	from := start + openLen
	j := from
	for ends[j] == undecided {
		if strings.HasPrefix(s.src[j:], closer) {
			s.emitMath(start, s.src[from:j], j+len(closer))
			return
		}
		if strings.HasPrefix(s.src[j:], "\n\n") {
			ends[j] = rejected
			break
		}
		j = skip(s.src, j)
	}
	fate := ends[j]
	bury(s.src, ends, from, j, fate)
	s.fail(openLen, fate)
}

// inlineDollar handles $...$. The opener must be followed by a non-space,
// the closer preceded by a non-space and not followed by a digit, and the
// span stays on one line. A dollar that fails the closer rule ends the
// search, so "costs $5 and $10" is left alone.
func (s *scanner) inlineDollar() {
	start := s.pos
	if r, _ := utf8.DecodeRuneInString(s.src[start+1:]); unicode.IsSpace(r) {
		s.literal(1)
		return
	}

	ends := s.endsFor("$")
	from := start + 1
	j := from
	for ends[j] == undecided {
		switch s.src[j] {
		case '\n':
			ends[j] = rejected
			continue
		case '$':
			if !s.closesInline(j) {
				ends[j] = rejected
				continue
			}
			s.emitMath(start, s.src[from:j], j+1)
			return
		}
		j = skip(s.src, j)
	}
	fate := ends[j]
	bury(s.src, ends, from, j, fate)
	s.fail(1, fate)
}

// closesInline reports whether the dollar at j can end an inline span.
func (s *scanner) closesInline(j int) bool {
	if r, _ := utf8.DecodeLastRuneInString(s.src[:j]); unicode.IsSpace(r) {
		return false
	}
	if j+1 == len(s.src) {
		return true
	}
	next := s.src[j+1]
	return next != '$' && (next < '0' || next > '9')
}

func (s *scanner) lineEnd(j int) int {
	if s.eol < j {
		s.eol = len(s.src)
		if k := strings.IndexByte(s.src[j:], '\n'); k >= 0 {
			s.eol = j + k
		}
	}
	return s.eol
}

func (s *scanner) emitMath(start int, body string, end int) {
	if converted, ok := convert(body); ok {
		s.out.WriteString(converted)
	} else {
		s.out.WriteString(s.src[start:end])
	}
	s.pos = end
}

// command handles a control sequence outside math delimiters. Only a small
// known set is converted; anything else is printed as written. Arguments
// must sit on the same line as the command, so a bare \frac at the end of
// a line never swallows the heading or list item below it.
func (s *scanner) command() {
	start := s.pos
	j := start + 1
	for j < len(s.src) && isLetter(s.src[j]) {
		j++
	}
	if j == len(s.src) && s.partial {
		s.hold = start
		return
	}
	if !bareCommand(s.src[start+1 : j]) {
		s.literal(j - start)
		return
	}

	eol := s.lineEnd(j)
	lineDone := eol < len(s.src)

	out, end, err := convertCommand(s.src[:eol], start)
	switch {
	case err == nil:
		s.out.WriteString(out)
		s.pos = end
	case errors.Is(err, errIncomplete) && s.partial && !lineDone:
		s.hold = start
	default:
		s.literal(j - start)
	}
}
