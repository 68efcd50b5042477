package presenter

import (
	"time"

	"github.com/soocke/reel-bot-go/ui/model"
)

// BotActiveModel reports whether the controller is running.
type BotActiveModel interface{ Running() bool }

// SessionView displays formatted session and total durations.
type SessionView interface {
	SetSession(session, total time.Duration)
}

// SessionPresenter formats session and total durations from the model to the view.
type SessionPresenter struct {
	sess *model.SessionModel
	bot  BotActiveModel
	view SessionView
}

// NewSessionPresenter returns a new SessionPresenter.
func NewSessionPresenter(sess *model.SessionModel, bot BotActiveModel, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, bot: bot, view: view}
}

// Tick updates the presenter: advance the session model and push values to the view.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.bot == nil || p.view == nil {
		return
	}
	p.sess.OnTick(p.bot.Running(), now)
	s, t := p.sess.Values()
	p.view.SetSession(s, t)
}
