package app

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/reel-bot-go/config"
	"github.com/soocke/reel-bot-go/domain/hotkey"
)

const tick = 100 * time.Millisecond

// app owns the UI lifecycle around the assembled container.
type app struct {
	c       *Container
	cfgPath string
	width   int
	height  int
	afterID string
	hotkeys hotkey.Dispatcher
}

// NewApp builds the container and prepares the root window.
func NewApp(title string, width, height int, cfg *config.Config, logger *slog.Logger, cfgPath string) (*app, error) {
	c, err := BuildContainer(cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &app{c: c, cfgPath: cfgPath, width: width, height: height}
	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))
	return a, nil
}

// Run builds the view, registers hotkeys and enters the Tk main loop.
// Returns after the window closes.
func (a *app) Run() error {
	defer func() {
		if r := recover(); r != nil && a.c.Logger != nil {
			a.c.Logger.Error("ui panic", "error", r, "stack", string(debug.Stack()))
		}
	}()

	ctrl := a.c.Controller
	a.c.RootView.Build(
		func() { a.startController() },
		ctrl.Stop,
		ctrl.EmergencyStop,
		a.exitHandler,
	)
	a.c.WirePresenters(a.scheduleUpdate)

	if err := a.registerHotkeys(); err != nil && a.c.Logger != nil {
		a.c.Logger.Warn("global hotkeys unavailable", "error", err)
	}

	a.scheduleUpdate()
	App.Wait()

	if a.hotkeys != nil {
		a.hotkeys.Close()
	}
	a.c.Close()
	return nil
}

func (a *app) startController() {
	if err := a.c.Controller.Start(); err != nil && a.c.Logger != nil {
		a.c.Logger.Error("controller start failed", "error", err)
	}
}

// registerHotkeys binds the configured chords to the controller commands.
// The emergency chord releases inputs synchronously before stopping.
func (a *app) registerHotkeys() error {
	cfg := a.c.Config
	start, err := hotkey.ParseChord(cfg.HotkeyStart)
	if err != nil {
		return err
	}
	stop, err := hotkey.ParseChord(cfg.HotkeyStop)
	if err != nil {
		return err
	}
	emergency, err := hotkey.ParseChord(cfg.HotkeyEmergency)
	if err != nil {
		return err
	}
	disp, err := hotkey.NewDispatcher(hotkey.Bindings{
		Start:       start,
		Stop:        stop,
		Emergency:   emergency,
		OnStart:     a.startController,
		OnStop:      a.c.Controller.Stop,
		OnEmergency: a.c.Controller.EmergencyStop,
	}, a.c.Logger)
	if err != nil {
		return err
	}
	a.hotkeys = disp
	go func() {
		if err := disp.Run(); err != nil && a.c.Logger != nil {
			a.c.Logger.Error("hotkey loop failed", "error", err)
		}
	}()
	return nil
}

// scheduleUpdate queues the next presenter tick on Tk's event loop thread.
func (a *app) scheduleUpdate() {
	a.afterID = TclAfter(tick, func() { a.c.Loop.Tick() })
}

func (a *app) exitHandler() {
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	if a.c.Config.Debug && a.c.Logger != nil {
		grabs, errs, mean := a.c.Capture.Stats()
		a.c.Logger.Debug("perception stats",
			"grabs", grabs, "grab_errors", errs, "grab_mean", mean,
			"polls", a.c.Facade.Polls(), "cache_hits", a.c.Facade.CacheHits(),
			"refused", a.c.Controller.RefusedObservations())
	}
	if err := a.c.Config.Save(a.cfgPath); err != nil && a.c.Logger != nil {
		a.c.Logger.Warn("config save failed", "error", err)
	}
	Destroy(App)
}
