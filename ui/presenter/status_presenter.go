package presenter

import (
	"fmt"

	"github.com/soocke/reel-bot-go/domain/fishing"
	"github.com/soocke/reel-bot-go/ui/model"
)

// StatusView is the UI surface for controller status.
type StatusView interface {
	SetPhaseLabel(string)
	SetRounds(uint64)
	SetDetection(string)
	SetError(string)
}

// StatusPresenter mirrors the controller's status stream onto the view.
// Snapshots arrive on a status-channel goroutine and land in the model; the
// UI tick flushes the newest one to the view so Tk is only touched from the
// UI thread.
type StatusPresenter struct {
	model  *model.StatusModel
	view   StatusView
	handle string
	last   fishing.Status
	primed bool
}

// NewStatusPresenter subscribes to src and returns the presenter.
func NewStatusPresenter(src fishing.StatusSource, m *model.StatusModel, view StatusView) *StatusPresenter {
	p := &StatusPresenter{model: m, view: view}
	m.Set(src.Snapshot())
	p.handle = src.Subscribe(m.Set)
	return p
}

// Unsubscribe detaches from the status stream.
func (p *StatusPresenter) Unsubscribe(src fishing.StatusSource) {
	if p == nil || p.handle == "" {
		return
	}
	src.Unsubscribe(p.handle)
	p.handle = ""
}

// Tick pushes the newest snapshot to the view when it changed.
func (p *StatusPresenter) Tick() {
	if p == nil || p.model == nil || p.view == nil {
		return
	}
	st := p.model.Get()
	if p.primed && st == p.last {
		return
	}
	p.last = st
	p.primed = true

	p.view.SetPhaseLabel("Phase: " + st.Phase.String())
	p.view.SetRounds(st.Rounds)
	if st.HasLabel {
		p.view.SetDetection(fmt.Sprintf("Seen: %s (%.2f)", st.LastLabel.String(), st.LastConfidence))
	} else {
		p.view.SetDetection("Seen: -")
	}
	p.view.SetError(st.LastError)
}
