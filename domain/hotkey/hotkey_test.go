package hotkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChord(t *testing.T) {
	cases := []struct {
		in   string
		want Chord
	}{
		{"ctrl+alt+F9", Chord{Mods: ModCtrl | ModAlt, VK: 0x78}},
		{"CTRL+ALT+F10", Chord{Mods: ModCtrl | ModAlt, VK: 0x79}},
		{"shift+R", Chord{Mods: ModShift, VK: 'R'}},
		{"control+shift+win+Q", Chord{Mods: ModCtrl | ModShift | ModWin, VK: 'Q'}},
		{"F12", Chord{VK: 0x7B}},
	}
	for _, tc := range cases {
		got, err := ParseChord(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseChord_Errors(t *testing.T) {
	for _, in := range []string{"", "  ", "ctrl+", "bogus+F1"} {
		_, err := ParseChord(in)
		require.Error(t, err, "%q", in)
	}
}
