package mathtext

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxDepth bounds group and argument nesting inside one expression.
const maxDepth = 32

var (
	errIncomplete = errors.New("incomplete expression")
	errMalformed  = errors.New("malformed expression")
	errTooDeep    = errors.New("expression nested too deeply")
	errUnknown    = errors.New("unknown control sequence")
)

type converter struct {
	src   string
	pos   int
	depth int
}

// convert renders the body of a delimited math span. It reports false when
// the span should be printed as written.
func convert(expr string) (string, bool) {
	c := &converter{src: expr}
	out, err := c.expr(0)
	if err != nil {
		return "", false
	}
	return finish(out)
}

// convertCommand renders the single control sequence starting at src[start]
// and returns the offset just past it.
func convertCommand(src string, start int) (string, int, error) {
	c := &converter{src: src, pos: start}
	out, err := c.command()
	if err != nil {
		return "", 0, err
	}
	res, ok := finish(out)
	if !ok {
		return "", 0, errMalformed
	}
	return res, c.pos, nil
}

func finish(out string) (string, bool) {
	out = strings.Join(strings.Fields(out), " ")
	if out == "" || strings.ContainsAny(out, "$\\`") {
		return "", false
	}
	return out, true
}

// expr reads until term ('}' or ']') or, with term == 0, the end of input.
func (c *converter) expr(term byte) (string, error) {
	var b strings.Builder
	for c.pos < len(c.src) {
		ch := c.src[c.pos]
		switch {
		case term != 0 && ch == term:
			c.pos++
			return b.String(), nil
		case ch == '}':
			return "", errMalformed
		case ch == '^' || ch == '_':
			c.pos++
			arg, err := c.argument()
			if err != nil {
				return "", err
			}
			b.WriteString(script(arg, ch == '^'))
		default:
			s, err := c.atom()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
	}
	if term != 0 {
		return "", errIncomplete
	}
	return b.String(), nil
}

func (c *converter) atom() (string, error) {
	switch c.src[c.pos] {
	case '{':
		return c.group()
	case '\\':
		return c.command()
	case '&', '~', '\n', '\t', '\r':
		c.pos++
		return " ", nil
	case '$', '`':
		return "", errMalformed
	}

	r, size := utf8.DecodeRuneInString(c.src[c.pos:])
	c.pos += size
	return string(r), nil
}

func (c *converter) group() (string, error) {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > maxDepth {
		return "", errTooDeep
	}

	c.pos++
	return c.expr('}')
}

// argument reads one command or script argument: a group, a control
// sequence or a single character.
func (c *converter) argument() (string, error) {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > maxDepth {
		return "", errTooDeep
	}

	c.skipSpaces()
	if c.pos >= len(c.src) {
		return "", errIncomplete
	}

	switch c.src[c.pos] {
	case '{':
		return c.group()
	case '\\':
		return c.command()
	case '}', '^', '_', '$', '`':
		return "", errMalformed
	}

	r, size := utf8.DecodeRuneInString(c.src[c.pos:])
	c.pos += size
	return string(r), nil
}

// optional reads a bracketed argument such as the index of \sqrt[3]{x}.
func (c *converter) optional() (string, bool, error) {
	save := c.pos
	c.skipSpaces()
	if c.pos >= len(c.src) || c.src[c.pos] != '[' {
		c.pos = save
		return "", false, nil
	}

	c.depth++
	defer func() { c.depth-- }()
	if c.depth > maxDepth {
		return "", false, errTooDeep
	}

	c.pos++
	s, err := c.expr(']')
	return s, true, err
}

func (c *converter) skipSpaces() {
	for c.pos < len(c.src) {
		switch c.src[c.pos] {
		case ' ', '\t', '\n', '\r':
			c.pos++
		default:
			return
		}
	}
}

func (c *converter) command() (string, error) {
	c.pos++
	if c.pos >= len(c.src) {
		return "", errIncomplete
	}

	if !isLetter(c.src[c.pos]) {
		r, size := utf8.DecodeRuneInString(c.src[c.pos:])
		c.pos += size
		if s, ok := escapes[r]; ok {
			return s, nil
		}
		return "", errUnknown
	}

	start := c.pos
	for c.pos < len(c.src) && isLetter(c.src[c.pos]) {
		c.pos++
	}
	name := c.src[start:c.pos]

	if s, ok := symbols[name]; ok {
		return s, nil
	}
	if functions[name] {
		return name, nil
	}
	if ignored[name] {
		return "", nil
	}
	if sizing[name] {
		c.skipSpaces()
		if c.pos < len(c.src) && c.src[c.pos] == '.' {
			c.pos++
		}
		return "", nil
	}

	switch name {
	case "frac", "dfrac", "tfrac", "cfrac":
		num, err := c.argument()
		if err != nil {
			return "", err
		}
		den, err := c.argument()
		if err != nil {
			return "", err
		}
		return parenthesize(num) + "/" + parenthesize(den), nil
	case "sqrt":
		index, _, err := c.optional()
		if err != nil {
			return "", err
		}
		radicand, err := c.argument()
		if err != nil {
			return "", err
		}
		return root(strings.TrimSpace(index)) + radicalOperand(radicand), nil
	case "binom", "dbinom", "tbinom":
		n, err := c.argument()
		if err != nil {
			return "", err
		}
		k, err := c.argument()
		if err != nil {
			return "", err
		}
		return "C(" + strings.TrimSpace(n) + "," + strings.TrimSpace(k) + ")", nil
	case "mathbb":
		arg, err := c.argument()
		if err != nil {
			return "", err
		}
		return mapRunes(arg, blackboard), nil
	case "not":
		arg, err := c.argument()
		if err != nil {
			return "", err
		}
		arg = strings.TrimSpace(arg)
		if s, ok := negated[arg]; ok {
			return s, nil
		}
		return arg + "\u0338", nil
	case "begin", "end":
		if _, err := c.argument(); err != nil {
			return "", err
		}
		return " ", nil
	}

	if wrappers[name] {
		return c.argument()
	}
	if mark, ok := accents[name]; ok {
		arg, err := c.argument()
		if err != nil {
			return "", err
		}
		arg = strings.TrimSpace(arg)
		if utf8.RuneCountInString(arg) == 1 {
			return arg + string(mark), nil
		}
		return arg, nil
	}
	if mark, ok := lines[name]; ok {
		arg, err := c.argument()
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for _, r := range strings.TrimSpace(arg) {
			b.WriteRune(r)
			if !unicode.IsSpace(r) {
				b.WriteRune(mark)
			}
		}
		return b.String(), nil
	}

	return "", errUnknown
}

func script(arg string, sup bool) string {
	compact := strings.Join(strings.Fields(arg), "")
	if compact == "" {
		return ""
	}

	table, mark := subscripts, "_"
	if sup {
		table, mark = superscripts, "^"
		switch compact {
		case "∘", "○":
			return "°"
		case "′", "'":
			return "′"
		case "′′", "''":
			return "″"
		}
	}

	var b strings.Builder
	for _, r := range compact {
		m, ok := table[r]
		if !ok {
			display := strings.Join(strings.Fields(arg), " ")
			if utf8.RuneCountInString(display) == 1 {
				return mark + display
			}
			return mark + "(" + display + ")"
		}
		b.WriteRune(m)
	}
	return b.String()
}

func root(index string) string {
	switch index {
	case "":
		return "√"
	case "3":
		return "∛"
	case "4":
		return "∜"
	}
	return script(index, true) + "√"
}

func radicalOperand(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= 1 || allDigits(s) || wrapped(s) {
		return s
	}
	return "(" + s + ")"
}

// parenthesize wraps fraction operands that would read ambiguously next to
// a slash.
func parenthesize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= 1 || wrapped(s) {
		return s
	}
	if strings.ContainsAny(s, " +-−±∓×÷·*/=<>≤≥≠,;:") {
		return "(" + s + ")"
	}
	return s
}

func wrapped(s string) bool {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return false
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

func mapRunes(s string, table map[rune]rune) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if m, ok := table[r]; ok {
			b.WriteRune(m)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
