package domain

import (
	"strconv"
	"strings"
)

type AttachmentKind string

const (
	KindFile            AttachmentKind = "file"
	KindDirectoryMember AttachmentKind = "directory-member"
	KindWebsite         AttachmentKind = "website"
)

func (k AttachmentKind) Valid() bool {
	switch k {
	case KindFile, KindDirectoryMember, KindWebsite:
		return true
	default:
		return false
	}
}

const (
	markerOpen  = "[[attachment "
	markerClose = "]]"
)

// Marker identifies a message as wrapped external content. It is stored as
// the first line of the message:
//
//	[[attachment kind=file source="notes/a.txt"]]
//	[[attachment kind=directory-member source="src/main.go" group="7f7c..."]]
type Marker struct {
	SourceID string
	Kind     AttachmentKind
	GroupID  string
}

func (m Marker) Header() string {
	var b strings.Builder
	b.WriteString(markerOpen)
	b.WriteString("kind=")
	b.WriteString(string(m.Kind))
	b.WriteString(" source=")
	b.WriteString(strconv.Quote(m.SourceID))
	if m.GroupID != "" {
		b.WriteString(" group=")
		b.WriteString(strconv.Quote(m.GroupID))
	}
	b.WriteString(markerClose)
	return b.String()
}

// Wrap prefixes body with the marker header line.
func (m Marker) Wrap(body string) string {
	return m.Header() + "\n" + body
}

// ParseMarker reads a marker from the first line of content.
func ParseMarker(content string) (Marker, bool) {
	line, _, _ := strings.Cut(content, "\n")
	if !strings.HasPrefix(line, markerOpen) || !strings.HasSuffix(line, markerClose) {
		return Marker{}, false
	}
	rest := line[len(markerOpen) : len(line)-len(markerClose)]

	var m Marker
	for rest != "" {
		key, after, ok := strings.Cut(rest, "=")
		if !ok || key == "" || strings.ContainsAny(key, " \"") {
			return Marker{}, false
		}

		var value string
		if strings.HasPrefix(after, `"`) {
			quoted, err := strconv.QuotedPrefix(after)
			if err != nil {
				return Marker{}, false
			}
			value, err = strconv.Unquote(quoted)
			if err != nil {
				return Marker{}, false
			}
			after = after[len(quoted):]
		} else {
			value, after, _ = strings.Cut(after, " ")
			after = " " + after
			if strings.TrimSpace(after) == "" {
				after = ""
			}
		}

		switch key {
		case "kind":
			m.Kind = AttachmentKind(value)
		case "source":
			m.SourceID = value
		case "group":
			m.GroupID = value
		default:
			return Marker{}, false
		}

		if after == "" {
			break
		}
		if after[0] != ' ' {
			return Marker{}, false
		}
		rest = after[1:]
	}

	if !m.Kind.Valid() || m.SourceID == "" {
		return Marker{}, false
	}
	return m, true
}

// AttachmentBody strips the marker line from attachment content.
func AttachmentBody(content string) string {
	if _, ok := ParseMarker(content); !ok {
		return content
	}
	_, body, _ := strings.Cut(content, "\n")
	return body
}

// SourceFile is one readable attachment body.
type SourceFile struct {
	Path string
	Body string
}

// SkippedFile is a directory entry that was not attached, with the reason.
type SkippedFile struct {
	Path   string
	Reason string
}

// DirectoryListing is the result of reading the immediate children of a directory.
type DirectoryListing struct {
	Path    string
	Files   []SourceFile
	Skipped []SkippedFile
}
