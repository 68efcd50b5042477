package view

import (
	"log/slog"
	"time"

	"github.com/soocke/reel-bot-go/ui/theme"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// UI abstracts the view operations presenters need.
type UI interface {
	SetPhaseLabel(text string)
	SetRounds(n uint64)
	SetDetection(text string)
	SetError(text string)
	SetSession(session, total time.Duration)
}

// RootView composes the status window layout and wires button callbacks.
type RootView struct {
	logger *slog.Logger

	Status  StatusPanel
	Session SessionStats

	headerFrame  *FrameWidget
	statusFrame  *FrameWidget
	actionsFrame *FrameWidget

	startBtn     *ButtonWidget
	stopBtn      *ButtonWidget
	emergencyBtn *ButtonWidget
	exitBtn      *ButtonWidget
}

// NewRootView returns an unbuilt root view.
func NewRootView(logger *slog.Logger) *RootView {
	return &RootView{logger: logger}
}

// Build constructs the layout and binds the command callbacks.
func (rv *RootView) Build(onStart, onStop, onEmergency, onExit func()) {
	if rv == nil {
		return
	}
	theme.InitStyles()

	GridRowConfigure(App, 0, Weight(0))
	GridRowConfigure(App, 1, Weight(1))
	GridRowConfigure(App, 2, Weight(0))
	GridColumnConfigure(App, 0, Weight(1))

	rv.headerFrame = Frame(Background(theme.ColorBg))
	Grid(rv.headerFrame, Row(0), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.Session = NewSessionStats(rv.headerFrame, 0, 0)

	rv.statusFrame = Frame(Background(theme.ColorSurface), Relief("flat"))
	Grid(rv.statusFrame, Row(1), Column(0), Sticky("nwe"), Padx("0.4m"), Pady("0.2m"))
	rv.Status = NewStatusPanel(rv.statusFrame, 0)

	rv.actionsFrame = Frame(Background(theme.ColorBg))
	Grid(rv.actionsFrame, Row(2), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	rv.startBtn = Button(Txt("Start"), Background(theme.ColorPrimary), Foreground("white"), Relief("raised"), Borderwidth(1), Command(onStart))
	rv.stopBtn = Button(Txt("Stop"), Background(theme.ColorBorder), Foreground(theme.ColorText), Relief("raised"), Borderwidth(1), Command(onStop))
	rv.emergencyBtn = Button(Txt("Emergency"), Background(theme.ColorDanger), Foreground("white"), Relief("raised"), Borderwidth(1), Command(onEmergency))
	rv.exitBtn = Button(Txt("Exit"), Background(theme.ColorBorder), Foreground(theme.ColorText), Relief("raised"), Borderwidth(1), Command(onExit))
	Grid(rv.startBtn, In(rv.actionsFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Grid(rv.stopBtn, In(rv.actionsFrame), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Grid(rv.emergencyBtn, In(rv.actionsFrame), Row(0), Column(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Grid(rv.exitBtn, In(rv.actionsFrame), Row(0), Column(3), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
}

// The UI interface delegates to the composed panels.

func (rv *RootView) SetPhaseLabel(text string) { rv.Status.SetPhaseLabel(text) }
func (rv *RootView) SetRounds(n uint64)        { rv.Status.SetRounds(n) }
func (rv *RootView) SetDetection(text string)  { rv.Status.SetDetection(text) }
func (rv *RootView) SetError(text string)      { rv.Status.SetError(text) }
func (rv *RootView) SetSession(session, total time.Duration) {
	rv.Session.SetSession(session, total)
}

var _ UI = (*RootView)(nil)
