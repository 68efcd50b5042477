package model

import (
	"time"
)

// SessionModel tracks how long the bot has been running and the accumulated
// time across completed sessions. Decoupled from UI; presenters poll Values()
// and update views. Zero value is usable.
type SessionModel struct {
	// active indicates whether the controller is currently running.
	active bool
	// sessionStart is the timestamp when the current session began.
	sessionStart time.Time
	// lastSessionDuration is the duration of the ongoing (if active) or most recent session.
	lastSessionDuration time.Duration
	// accumulated stores the sum of all completed session durations.
	accumulated time.Duration
}

// NewSessionModel constructs a new model instance.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick advances timing given the controller running state at time now.
// Call periodically (presenter tick).
func (m *SessionModel) OnTick(running bool, now time.Time) {
	if m == nil {
		return
	}
	if running {
		if !m.active { // transition from off -> on
			m.active = true
			m.sessionStart = now
			m.lastSessionDuration = 0
		}
		m.lastSessionDuration = now.Sub(m.sessionStart)
	} else if m.active { // transition from on -> off
		m.lastSessionDuration = now.Sub(m.sessionStart)
		m.accumulated += m.lastSessionDuration
		m.active = false
	}
}

// Values returns the current session and total durations. Total includes the
// ongoing session while active.
func (m *SessionModel) Values() (session, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	session = m.lastSessionDuration
	total = m.accumulated
	if m.active {
		total += session
	}
	return
}
