package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextPassesTextThrough(t *testing.T) {
	var got string
	s := &System{writeAll: func(text string) error {
		got = text
		return nil
	}}

	require.NoError(t, s.WriteText("fmt.Println(1)"))
	assert.Equal(t, "fmt.Println(1)", got)
}

func TestWriteTextReportsUnavailable(t *testing.T) {
	s := &System{writeAll: func(string) error { return errors.New("xclip not found") }}

	err := s.WriteText("x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "xclip not found")

	s = &System{unsupported: true, writeAll: func(string) error {
		t.Fatal("write must not be attempted")
		return nil
	}}
	assert.ErrorIs(t, s.WriteText("x"), ErrUnavailable)
}
