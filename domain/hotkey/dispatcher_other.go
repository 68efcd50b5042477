//go:build !windows

package hotkey

import (
	"errors"
	"log/slog"
)

// ErrUnsupported is returned on platforms without a global hotkey backend.
var ErrUnsupported = errors.New("hotkey: global hotkeys require windows")

// NewDispatcher returns the platform hotkey dispatcher.
func NewDispatcher(Bindings, *slog.Logger) (Dispatcher, error) {
	return nil, ErrUnsupported
}
