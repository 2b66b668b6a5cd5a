// Package webtext fetches web pages and reduces them to readable text.
package webtext

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	"golang.org/x/net/html"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
	userAgent      = "Mozilla/5.0 (compatible; sage/1.0)"
)

var (
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
	spaceRunPattern   = regexp.MustCompile(`[ \t]{2,}`)
)

// rawExtensions are fetched as-is instead of being parsed as HTML.
var rawExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".rst": true, ".csv": true, ".tsv": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true, ".cfg": true, ".xml": true,
	".py": true, ".go": true, ".rs": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".java": true, ".kt": true, ".c": true, ".h": true, ".cpp": true, ".hpp": true, ".cs": true,
	".rb": true, ".php": true, ".swift": true, ".lua": true, ".pl": true, ".r": true, ".scala": true,
	".sh": true, ".bash": true, ".zsh": true, ".ps1": true, ".sql": true, ".css": true, ".scss": true,
	".tex": true, ".diff": true, ".patch": true, ".log": true,
}

var rawNames = map[string]bool{
	"Dockerfile": true, "Makefile": true, "Procfile": true, "Gemfile": true, "LICENSE": true,
}

var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true, "iframe": true,
	"svg": true, "nav": true, "footer": true, "header": true, "form": true, "template": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "table": true, "tr": true, "pre": true,
	"blockquote": true, "dl": true, "dt": true, "dd": true, "figure": true, "hr": true,
}

type Extractor struct {
	client *http.Client
}

var _ ports.TextExtractor = (*Extractor)(nil)

func NewExtractor(client *http.Client) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Extractor{client: client}
}

func (e *Extractor) Extract(ctx context.Context, locator string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	u, err := url.Parse(locator)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid website locator %q", locator)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", locator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: HTTP %d", locator, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", locator, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if IsRawTextLocator(u) || strings.HasPrefix(contentType, "text/plain") || strings.HasPrefix(contentType, "text/markdown") {
		text := strings.TrimSpace(strings.ReplaceAll(string(body), "```", "'''"))
		if text == "" {
			return "", domain.ErrEmptyExtraction
		}
		return text, nil
	}

	text, err := ExtractHTML(string(body))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", locator, err)
	}
	if text == "" {
		return "", domain.ErrEmptyExtraction
	}
	return text, nil
}

// IsRawTextLocator reports URLs that point at a plain text file.
func IsRawTextLocator(u *url.URL) bool {
	base := path.Base(u.Path)
	if rawNames[base] {
		return true
	}
	return rawExtensions[strings.ToLower(path.Ext(base))]
}

// ExtractHTML returns the visible text of an HTML document. Link targets
// are dropped and only their text is kept.
func ExtractHTML(document string) (string, error) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node, pre bool)
	walk = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				b.WriteString(n.Data)
				return
			}
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				b.WriteString(text)
				b.WriteByte(' ')
			}
			return
		case html.ElementNode:
			if skippedElements[n.Data] {
				return
			}
			if n.Data == "br" {
				b.WriteByte('\n')
				return
			}
			if n.Data == "pre" {
				pre = true
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteString("\n\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, pre)
		}
		if block {
			b.WriteString("\n\n")
		}
	}
	walk(root, false)

	return clean(b.String()), nil
}

func clean(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(spaceRunPattern.ReplaceAllString(line, " "), " \t")
		lines[i] = strings.TrimLeft(lines[i], " ")
	}
	text = strings.Join(lines, "\n")
	text = blankLinesPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
