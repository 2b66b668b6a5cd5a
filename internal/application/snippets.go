package application

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New().Parser()

// CodeBlocks returns the fenced code blocks of a markdown document, each
// dedented, joined by blank lines.
func CodeBlocks(markdown string) string {
	source := []byte(markdown)
	document := markdownParser.Parse(text.NewReader(source))

	var blocks []string
	_ = ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var b strings.Builder
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			segment := lines.At(i)
			b.Write(segment.Value(source))
		}
		if code := dedent(b.String()); code != "" {
			blocks = append(blocks, code)
		}
		return ast.WalkSkipChildren, nil
	})

	return strings.Join(blocks, "\n\n")
}

func dedent(code string) string {
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")

	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.Trim(strings.Join(lines, "\n"), "\n")
	}

	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
