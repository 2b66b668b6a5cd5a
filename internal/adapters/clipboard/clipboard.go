package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/bnema/sage/internal/ports"
)

var ErrUnavailable = errors.New("clipboard unavailable")

// System writes to the operating system clipboard.
type System struct {
	writeAll    func(string) error
	unsupported bool
}

var _ ports.Clipboard = (*System)(nil)

func NewSystem() *System {
	return &System{writeAll: clipboard.WriteAll, unsupported: clipboard.Unsupported}
}

func (s *System) WriteText(text string) error {
	if s.unsupported {
		return ErrUnavailable
	}
	if err := s.writeAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", errors.Join(ErrUnavailable, err))
	}
	return nil
}
