//go:build windows

package hotkey

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	wmHotkey = 0x0312
	wmQuit   = 0x0012

	idStart     = 1
	idStop      = 2
	idEmergency = 3
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procRegisterHotKey     = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32.NewProc("UnregisterHotKey")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
	procGetCurrentThreadId = kernel32.NewProc("GetCurrentThreadId")
)

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	ptX     int32
	ptY     int32
}

type winDispatcher struct {
	b        Bindings
	logger   *slog.Logger
	threadID atomic.Uint32
}

// NewDispatcher returns the Windows hotkey dispatcher. Registration happens
// inside Run, on the thread that owns the message queue.
func NewDispatcher(b Bindings, logger *slog.Logger) (Dispatcher, error) {
	return &winDispatcher{b: b, logger: logger}, nil
}

// Run registers the three chords and pumps the message loop until Close.
// Hotkeys are bound to the calling thread's queue, so the whole body runs on
// one locked OS thread.
func (d *winDispatcher) Run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tid, _, _ := procGetCurrentThreadId.Call()
	d.threadID.Store(uint32(tid))

	chords := []struct {
		id    uintptr
		chord Chord
	}{
		{idStart, d.b.Start},
		{idStop, d.b.Stop},
		{idEmergency, d.b.Emergency},
	}
	for _, c := range chords {
		r, _, err := procRegisterHotKey.Call(0, c.id, uintptr(c.chord.Mods), uintptr(c.chord.VK))
		if r == 0 {
			for _, u := range chords {
				if u.id == c.id {
					break
				}
				_, _, _ = procUnregisterHotKey.Call(0, u.id)
			}
			return fmt.Errorf("hotkey: register id %d: %v", c.id, err)
		}
	}
	defer func() {
		for _, c := range chords {
			_, _, _ = procUnregisterHotKey.Call(0, c.id)
		}
	}()

	var m msg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch r {
		case 0: // WM_QUIT
			return nil
		case ^uintptr(0): // -1: queue error
			return fmt.Errorf("hotkey: message loop failed")
		}
		if m.message != wmHotkey {
			continue
		}
		switch m.wParam {
		case idStart:
			if d.b.OnStart != nil {
				d.b.OnStart()
			}
		case idStop:
			if d.b.OnStop != nil {
				d.b.OnStop()
			}
		case idEmergency:
			if d.b.OnEmergency != nil {
				d.b.OnEmergency()
			}
		}
	}
}

// Close posts WM_QUIT to the dispatcher thread.
func (d *winDispatcher) Close() {
	tid := d.threadID.Load()
	if tid == 0 {
		return
	}
	_, _, _ = procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0)
}
