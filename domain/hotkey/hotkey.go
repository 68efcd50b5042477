package hotkey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soocke/reel-bot-go/domain/action"
)

// Modifier masks, matching the Win32 RegisterHotKey values.
const (
	ModAlt   uint32 = 0x0001
	ModCtrl  uint32 = 0x0002
	ModShift uint32 = 0x0004
	ModWin   uint32 = 0x0008
)

// ErrEmptyChord is returned when a chord string has no key token.
var ErrEmptyChord = errors.New("hotkey: empty chord")

// Chord is a parsed global hotkey combination.
type Chord struct {
	Mods uint32
	VK   byte
}

// ParseChord parses strings like "ctrl+alt+F9" into a Chord. Modifier tokens
// are case-insensitive; the final token is the key.
func ParseChord(s string) (Chord, error) {
	var c Chord
	tokens := strings.Split(s, "+")
	if len(tokens) == 0 || strings.TrimSpace(s) == "" {
		return c, ErrEmptyChord
	}
	for i, tok := range tokens {
		t := strings.ToLower(strings.TrimSpace(tok))
		last := i == len(tokens)-1
		switch t {
		case "ctrl", "control":
			c.Mods |= ModCtrl
		case "alt":
			c.Mods |= ModAlt
		case "shift":
			c.Mods |= ModShift
		case "win", "super":
			c.Mods |= ModWin
		case "":
			return c, ErrEmptyChord
		default:
			if !last {
				return c, fmt.Errorf("hotkey: unknown modifier %q in %q", tok, s)
			}
			c.VK = action.ParseVK(t)
		}
	}
	if c.VK == 0 {
		return c, ErrEmptyChord
	}
	return c, nil
}

// Bindings couples the three chords to the controller commands. Emergency
// must release inputs before it returns; the composition root wires that in.
type Bindings struct {
	Start     Chord
	Stop      Chord
	Emergency Chord

	OnStart     func()
	OnStop      func()
	OnEmergency func()
}

// Dispatcher runs a platform event loop translating chord presses into the
// bound callbacks. Run blocks until Close.
type Dispatcher interface {
	Run() error
	Close()
}
