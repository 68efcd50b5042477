//go:build windows

package action

import (
	"time"

	"golang.org/x/sys/windows"
)

const (
	mouseeventfLeftdown = 0x0002
	mouseeventfLeftup   = 0x0004
	keyeventfKeyup      = 0x0002
)

var (
	user32         = windows.NewLazySystemDLL("user32.dll")
	procMouseEvent = user32.NewProc("mouse_event")
	procKeybdEvent = user32.NewProc("keybd_event")
)

// winDevice injects input through the legacy user32 event calls, which games
// with raw-input handling accept more reliably than SendInput.
type winDevice struct{}

// NewDevice returns the platform input device.
func NewDevice() (Device, error) {
	return &winDevice{}, nil
}

func (winDevice) MouseDown() error {
	_, _, _ = procMouseEvent.Call(mouseeventfLeftdown, 0, 0, 0, 0)
	return nil
}

func (winDevice) MouseUp() error {
	_, _, _ = procMouseEvent.Call(mouseeventfLeftup, 0, 0, 0, 0)
	return nil
}

func (d winDevice) Click() error {
	if err := d.MouseDown(); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return d.MouseUp()
}

func (winDevice) KeyDown(vk byte) error {
	_, _, _ = procKeybdEvent.Call(uintptr(vk), 0, 0, 0)
	return nil
}

func (winDevice) KeyUp(vk byte) error {
	_, _, _ = procKeybdEvent.Call(uintptr(vk), 0, keyeventfKeyup, 0)
	return nil
}
