package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// FileName is the default config file name, resolved under the XDG config
// directory by DefaultPath.
const FileName = "reel_bot_config.json"

// ErrNotFound is returned by Load when no config file exists at the path.
// Callers typically log it and continue with DefaultConfig.
var ErrNotFound = errors.New("config file not found")

// Config holds runtime configuration for perception, input timing and hotkeys.
// Fields are loaded from a JSON file; durations are expressed in seconds so
// the file stays readable.
type Config struct {
	Debug bool `json:"debug"`

	// Perception thresholds and poll pacing
	ClassifierThreshold float64 `json:"classifier_threshold"`
	TextThreshold       float64 `json:"text_threshold"`
	ClassifierInterval  float64 `json:"classifier_interval"`
	TextInterval        float64 `json:"text_interval"`

	// Phase timeouts
	InitialTimeout float64 `json:"initial_timeout"`
	State1Timeout  float64 `json:"state1_timeout"`

	// Input timing
	ClickDelayMin   float64 `json:"click_delay_min"`
	ClickDelayMax   float64 `json:"click_delay_max"`
	State3PauseTime float64 `json:"state3_pause_time"`
	SuccessWaitTime float64 `json:"success_wait_time"`
	CastHoldTime    float64 `json:"cast_hold_time"`
	KeyPressTime    float64 `json:"key_press_time"`

	// Key bindings for in-game actions
	PullRightKey      string `json:"pull_right_key"`
	PullLeftKey       string `json:"pull_left_key"`
	SuccessConfirmKey string `json:"success_confirm_key"`

	// Global hotkey chords
	HotkeyStart     string `json:"hotkey_start"`
	HotkeyStop      string `json:"hotkey_stop"`
	HotkeyEmergency string `json:"hotkey_emergency"`

	// Perception engine assets
	ClassifierModel string `json:"classifier_model"`
	OnnxRuntimeLib  string `json:"onnx_runtime_lib"`
	TessdataPrefix  string `json:"tessdata_prefix"`

	// Capture region in screen coordinates; zero width/height means full screen.
	CaptureX int `json:"capture_x"`
	CaptureY int `json:"capture_y"`
	CaptureW int `json:"capture_w"`
	CaptureH int `json:"capture_h"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:               false,
		ClassifierThreshold: 0.5,
		TextThreshold:       0.60,
		ClassifierInterval:  0.1,
		TextInterval:        0.2,
		InitialTimeout:      180,
		State1Timeout:       3.0,
		ClickDelayMin:       0.054,
		ClickDelayMax:       0.127,
		State3PauseTime:     1.0,
		SuccessWaitTime:     1.5,
		CastHoldTime:        2.0,
		KeyPressTime:        1.0,
		PullRightKey:        "D",
		PullLeftKey:         "A",
		SuccessConfirmKey:   "F",
		HotkeyStart:         "ctrl+alt+F9",
		HotkeyStop:          "ctrl+alt+F10",
		HotkeyEmergency:     "ctrl+alt+F12",
		ClassifierModel:     "models/fishing_state.onnx",
		OnnxRuntimeLib:      "bin/onnxruntime.dll",
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if c.ClassifierThreshold <= 0 || c.ClassifierThreshold > 1 {
		c.ClassifierThreshold = 0.5
	}
	if c.TextThreshold <= 0 || c.TextThreshold > 1 {
		c.TextThreshold = 0.60
	}
	if c.ClassifierInterval <= 0 {
		c.ClassifierInterval = 0.1
	}
	if c.TextInterval <= 0 {
		c.TextInterval = 0.2
	}
	if c.InitialTimeout <= 0 {
		c.InitialTimeout = 180
	}
	if c.State1Timeout <= 0 {
		c.State1Timeout = 3.0
	}
	if c.ClickDelayMin <= 0 {
		c.ClickDelayMin = 0.054
	}
	if c.ClickDelayMax <= c.ClickDelayMin {
		c.ClickDelayMax = c.ClickDelayMin + 0.073
	}
	if c.State3PauseTime <= 0 {
		c.State3PauseTime = 1.0
	}
	if c.SuccessWaitTime <= 0 {
		c.SuccessWaitTime = 1.5
	}
	if c.CastHoldTime <= 0 {
		c.CastHoldTime = 2.0
	}
	if c.KeyPressTime <= 0 {
		c.KeyPressTime = 1.0
	}
	if c.PullRightKey == "" {
		c.PullRightKey = "D"
	}
	if c.PullLeftKey == "" {
		c.PullLeftKey = "A"
	}
	if c.SuccessConfirmKey == "" {
		c.SuccessConfirmKey = "F"
	}
	if c.CaptureW < 0 || c.CaptureH < 0 {
		c.CaptureX, c.CaptureY, c.CaptureW, c.CaptureH = 0, 0, 0, 0
	}
	return nil
}

// Duration accessors convert the float second fields at the use site.

func (c *Config) ClassifierIntervalD() time.Duration { return secs(c.ClassifierInterval) }
func (c *Config) TextIntervalD() time.Duration       { return secs(c.TextInterval) }
func (c *Config) InitialTimeoutD() time.Duration     { return secs(c.InitialTimeout) }
func (c *Config) State1TimeoutD() time.Duration      { return secs(c.State1Timeout) }
func (c *Config) ClickDelayMinD() time.Duration      { return secs(c.ClickDelayMin) }
func (c *Config) ClickDelayMaxD() time.Duration      { return secs(c.ClickDelayMax) }
func (c *Config) State3PauseTimeD() time.Duration    { return secs(c.State3PauseTime) }
func (c *Config) SuccessWaitTimeD() time.Duration    { return secs(c.SuccessWaitTime) }
func (c *Config) CastHoldTimeD() time.Duration       { return secs(c.CastHoldTime) }
func (c *Config) KeyPressTimeD() time.Duration       { return secs(c.KeyPressTime) }

func secs(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// DefaultPath returns the preferred location of the config file. The XDG
// config home is used when resolvable; otherwise the working directory.
func DefaultPath() string {
	if p, err := xdg.ConfigFile(filepath.Join("reel-bot", FileName)); err == nil {
		return p
	}
	return FileName
}

// Load reads and validates a Config from path. A missing file yields
// DefaultConfig and ErrNotFound so callers can log and continue.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), ErrNotFound
		}
		return DefaultConfig(), err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the config as indented JSON, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
