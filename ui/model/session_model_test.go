package model

import (
	"testing"
	"time"

	"github.com/soocke/reel-bot-go/domain/fishing"
)

func TestSessionModel_AccumulatesCompletedSessions(t *testing.T) {
	m := NewSessionModel()
	t0 := time.Now()

	m.OnTick(true, t0)
	m.OnTick(true, t0.Add(3*time.Second))
	m.OnTick(false, t0.Add(5*time.Second))

	session, total := m.Values()
	if session != 5*time.Second {
		t.Fatalf("session = %v, want 5s", session)
	}
	if total != 5*time.Second {
		t.Fatalf("total = %v, want 5s", total)
	}

	// Second session adds on top.
	m.OnTick(true, t0.Add(10*time.Second))
	m.OnTick(true, t0.Add(12*time.Second))
	session, total = m.Values()
	if session != 2*time.Second {
		t.Fatalf("session = %v, want 2s", session)
	}
	if total != 7*time.Second {
		t.Fatalf("total = %v, want 7s", total)
	}
}

func TestSessionModel_InactiveTicksDoNothing(t *testing.T) {
	m := NewSessionModel()
	m.OnTick(false, time.Now())
	session, total := m.Values()
	if session != 0 || total != 0 {
		t.Fatalf("expected zero durations, got %v / %v", session, total)
	}
}

func TestStatusModel_SetGet(t *testing.T) {
	m := NewStatusModel()
	if got := m.Get(); got.Phase.String() != "stopped" {
		t.Fatalf("zero model phase = %v", got.Phase)
	}
	m.Set(fishing.Status{Phase: fishing.PhaseFishHooked, Rounds: 3})
	if got := m.Get(); got.Phase != fishing.PhaseFishHooked || got.Rounds != 3 {
		t.Fatalf("Get after Set = %+v", got)
	}
}
