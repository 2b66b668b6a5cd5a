package mathtext

import (
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamSplitCommandMatchesWhole(t *testing.T) {
	var s Stream
	var got strings.Builder
	got.WriteString(s.Push("\\fr"))
	got.WriteString(s.Push("ac{1}{2}"))
	got.WriteString(s.Flush())

	require.Equal(t, "1/2", Sanitize("\\frac{1}{2}"))
	assert.Equal(t, Sanitize("\\frac{1}{2}"), got.String())
}

func TestStreamReleasesCompleteLines(t *testing.T) {
	var s Stream
	assert.Equal(t, "", s.Push("a $x"))
	assert.Equal(t, "a x\n", s.Push("$\nb $y"))
	assert.Equal(t, "b $y", s.Pending())
	assert.Equal(t, "b $y", s.Flush())
	assert.Empty(t, s.Pending())
}

func TestStreamHoldsInsideFence(t *testing.T) {
	var s Stream
	assert.Equal(t, "", s.Push("```\n$x$\n"))
	assert.Equal(t, "```\n$x$\n```\n", s.Push("```\n"))
}

var streamSamples = []string{
	"Let $x^2$ be \\(\\alpha\\).\n\nThen $$\\frac{a+b}{c}$$ holds.\n",
	"a $x$\n```\n$y$\n```\nb $z$",
	"costs $5 and $10\nnext line $q$",
	"\\sqrt{x+1} and \\frac{1}{2}\n- item $a_i$\n# head \\(\\beta\\)",
	"use `$x$` here\n``tick ` $y$``\n$$\nmulti\n$$",
	"$$x\n\nno close\n$a$",
	"\\unknown{x} \\alpha\\beta\n$\\sum_{i=1}^{n} i$",
	"é\\frac\\frac\n\\alpha1",
	"Write \\frac\n\n# Title\n",
	"Use \\sqrt\n\n- item\n- b\n",
	"\\frac{1}\n{2} and \\sqrt\n[3]{x}\n",
	"\\[x\\[y\n\\]z $a$5 $b$\n",
}

func TestStreamMatchesSanitizeForEverySplit(t *testing.T) {
	for _, text := range streamSamples {
		want := Sanitize(text)
		for i := 0; i <= len(text); i++ {
			if i < len(text) && !utf8.RuneStart(text[i]) {
				continue
			}
			var s Stream
			got := s.Push(text[:i]) + s.Push(text[i:]) + s.Flush()
			require.Equal(t, want, got, "text %q split at %d", text, i)
		}
	}
}

func TestStreamMatchesSanitizeRuneByRune(t *testing.T) {
	for _, text := range streamSamples {
		var s Stream
		var got strings.Builder
		for _, r := range text {
			got.WriteString(s.Push(string(r)))
		}
		got.WriteString(s.Flush())
		assert.Equal(t, Sanitize(text), got.String(), "text %q", text)
	}
}

func TestStreamMatchesSanitizeForRandomChunks(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for _, text := range streamSamples {
		want := Sanitize(text)
		for round := 0; round < 200; round++ {
			var s Stream
			var got strings.Builder
			var chunks []string
			for rest := text; rest != ""; {
				n := 1 + rng.IntN(6)
				if n > len(rest) {
					n = len(rest)
				}
				chunks = append(chunks, rest[:n])
				got.WriteString(s.Push(rest[:n]))
				rest = rest[n:]
			}
			got.WriteString(s.Flush())
			require.Equal(t, want, got.String(), "text %q chunks %q", text, chunks)
		}
	}
}
