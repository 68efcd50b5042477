//go:build !windows

package action

import "errors"

// ErrUnsupported is returned on platforms without an input backend.
var ErrUnsupported = errors.New("action: input injection requires windows")

// NewDevice returns the platform input device.
func NewDevice() (Device, error) {
	return nil, ErrUnsupported
}
