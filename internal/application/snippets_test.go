package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeBlocks(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{name: "no code", markdown: "just prose", want: ""},
		{
			name:     "single block",
			markdown: "Run this:\n\n```sh\nls -la\n```\n",
			want:     "ls -la",
		},
		{
			name:     "blocks are joined and dedented",
			markdown: "- step\n\n  ```go\n  fmt.Println(1)\n  ```\n\ntext\n\n~~~\n    a\n      b\n~~~\n",
			want:     "fmt.Println(1)\n\na\n  b",
		},
		{
			name:     "inline code is ignored",
			markdown: "use `go test` then\n```\nmake\n```",
			want:     "make",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeBlocks(tt.markdown))
		})
	}
}
