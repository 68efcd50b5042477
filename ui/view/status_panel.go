package view

import (
	"fmt"

	"github.com/soocke/reel-bot-go/ui/theme"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// StatusPanel shows the controller phase, round counter, last detection and
// last error.
type StatusPanel interface {
	SetPhaseLabel(text string)
	SetRounds(n uint64)
	SetDetection(text string)
	SetError(text string)
}

type statusPanel struct {
	phaseLbl  *TLabelWidget
	roundsLbl *TLabelWidget
	detectLbl *LabelWidget
	errorLbl  *LabelWidget
}

// NewStatusPanel lays the status lines out inside parent starting at row.
func NewStatusPanel(parent *FrameWidget, row int) StatusPanel {
	p := &statusPanel{
		phaseLbl:  TLabel(Txt("Phase: stopped")),
		roundsLbl: TLabel(Txt("Rounds: 0")),
		detectLbl: Label(Txt("Seen: -"), Width(28)),
		errorLbl:  Label(Width(28), Foreground(theme.ColorDanger)),
	}
	p.phaseLbl.Configure(Background(theme.ColorAccent), Foreground("white"))
	p.roundsLbl.Configure(Background(theme.ColorBg), Foreground(theme.ColorText))
	Grid(p.phaseLbl, In(parent), Row(row), Column(0), Sticky("w"), Padx("0.2m"))
	Grid(p.roundsLbl, In(parent), Row(row), Column(1), Sticky("w"), Padx("0.2m"))
	Grid(p.detectLbl, In(parent), Row(row+1), Column(0), Columnspan(2), Sticky("w"), Padx("0.2m"))
	Grid(p.errorLbl, In(parent), Row(row+2), Column(0), Columnspan(2), Sticky("w"), Padx("0.2m"))
	return p
}

func (p *statusPanel) SetPhaseLabel(text string) {
	if p == nil || p.phaseLbl == nil {
		return
	}
	p.phaseLbl.Configure(Txt(text))
}

func (p *statusPanel) SetRounds(n uint64) {
	if p == nil || p.roundsLbl == nil {
		return
	}
	p.roundsLbl.Configure(Txt(fmt.Sprintf("Rounds: %d", n)))
}

func (p *statusPanel) SetDetection(text string) {
	if p == nil || p.detectLbl == nil {
		return
	}
	p.detectLbl.Configure(Txt(text))
}

func (p *statusPanel) SetError(text string) {
	if p == nil || p.errorLbl == nil {
		return
	}
	if text == "" {
		p.errorLbl.Configure(Txt(""))
		return
	}
	p.errorLbl.Configure(Txt("Error: " + text))
}
