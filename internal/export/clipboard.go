package export

import (
	"errors"

	"github.com/atotto/clipboard"
	"github.com/felixgeelhaar/escapekit/internal/domain"
)

// ErrClipboardUnsupported is returned when no system clipboard is available
var ErrClipboardUnsupported = errors.New("clipboard not supported on this system")

// Clipboard receives copied text. Callers log failures and carry on.
type Clipboard interface {
	Write(text string) error
}

// SystemClipboard writes to the operating system clipboard
type SystemClipboard struct{}

// NewSystemClipboard returns the system clipboard, or an error when the
// platform has no clipboard utility
func NewSystemClipboard() (*SystemClipboard, error) {
	if clipboard.Unsupported {
		return nil, ErrClipboardUnsupported
	}
	return &SystemClipboard{}, nil
}

func (c *SystemClipboard) Write(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return &domain.ClientSideError{Op: "clipboard", Err: err}
	}
	return nil
}
