package plugin

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrNoClipboard is returned when the platform has no usable clipboard,
// e.g. Linux without wl-clipboard, xclip or xsel.
var ErrNoClipboard = errors.New("no clipboard available (install wl-clipboard, xclip or xsel)")

// Clipboard places text on the system clipboard.
type Clipboard interface {
	Copy(text string) error
}

// SystemClipboard writes to the native clipboard: the Win32 API on
// Windows, pbcopy on macOS and the X11/Wayland tools elsewhere.
type SystemClipboard struct{}

// Copy implements Clipboard.
func (SystemClipboard) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrNoClipboard
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}
