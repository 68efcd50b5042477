package theme

// Centralized theming for the reel bot status window. Provides palette
// constants and InitStyles to activate a base theme and register semantic
// widget styles by name. The current views apply palette colors directly
// and do not select these named styles.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Palette defines core semantic colors used across widgets.
const (
	ColorBg        = "#f7f9fb" // app background
	ColorSurface   = "#ffffff" // panels
	ColorBorder    = "#d0d7de"
	ColorPrimary   = "#2563eb" // start button, accents
	ColorDanger    = "#dc2626" // stop / emergency
	ColorAccent    = "#10b981" // phase badge
	ColorText      = "#1e293b"
	ColorTextMuted = "#64748b"
)

// Style names used with Style("primary.TButton") etc.
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleAccentLabel   = "accent.TLabel"
	StylePhaseLabel    = "phase.TLabel"
)

// InitStyles activates the base theme and registers the semantic styles.
func InitStyles() {
	_ = ActivateTheme("azure light")
	App.Configure(Background(ColorBg))

	StyleConfigure(StylePrimaryButton,
		Background(ColorPrimary), Foreground("#ffffff"), Relief("flat"))
	StyleConfigure(StyleDangerButton,
		Background(ColorDanger), Foreground("#ffffff"), Relief("flat"))
	StyleConfigure(StyleAccentLabel,
		Background(ColorBg), Foreground(ColorAccent))
	StyleConfigure(StylePhaseLabel,
		Background(ColorBg), Foreground(ColorText))
}
