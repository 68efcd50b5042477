package fishing

import (
	"testing"
)

func TestAllowedLabels_Table(t *testing.T) {
	cases := []struct {
		phase   Phase
		allowed []Label
		denied  []Label
	}{
		{PhaseWaitingInitial, []Label{LabelWaiting, LabelHooked}, []Label{LabelReelLow, LabelReelHigh, LabelPullRight, LabelPullLeft, LabelSuccess}},
		{PhaseWaitingHook, []Label{LabelWaiting, LabelHooked}, []Label{LabelReelLow, LabelSuccess}},
		{PhaseFishHooked, []Label{LabelHooked, LabelReelLow, LabelReelHigh}, []Label{LabelWaiting, LabelPullRight, LabelPullLeft, LabelSuccess}},
		{PhasePullingNormal, []Label{LabelReelLow, LabelReelHigh, LabelPullRight, LabelPullLeft, LabelSuccess}, []Label{LabelWaiting, LabelHooked}},
		{PhasePullingHalfway, []Label{LabelReelLow, LabelReelHigh, LabelPullRight, LabelPullLeft, LabelSuccess}, []Label{LabelWaiting, LabelHooked}},
		{PhaseSuccess, []Label{LabelSuccess}, []Label{LabelWaiting, LabelHooked, LabelReelLow, LabelReelHigh, LabelPullRight, LabelPullLeft}},
		{PhaseCasting, nil, []Label{LabelWaiting, LabelHooked, LabelReelLow, LabelReelHigh, LabelPullRight, LabelPullLeft, LabelSuccess}},
		{PhaseStopped, nil, []Label{LabelWaiting, LabelSuccess}},
		{PhaseError, nil, []Label{LabelWaiting, LabelSuccess}},
	}
	for _, tc := range cases {
		set := AllowedLabels(tc.phase)
		for _, l := range tc.allowed {
			if !set.Contains(l) {
				t.Errorf("phase %v should allow %v", tc.phase, l)
			}
		}
		for _, l := range tc.denied {
			if set.Contains(l) {
				t.Errorf("phase %v should deny %v", tc.phase, l)
			}
		}
	}
}

func TestShowsLabel(t *testing.T) {
	showing := []Phase{PhaseWaitingInitial, PhaseWaitingHook, PhaseFishHooked, PhasePullingNormal, PhasePullingHalfway, PhaseSuccess}
	hidden := []Phase{PhaseCasting, PhaseStopped, PhaseError}
	for _, p := range showing {
		if !showsLabel(p) {
			t.Errorf("phase %v should carry labels in status", p)
		}
	}
	for _, p := range hidden {
		if showsLabel(p) {
			t.Errorf("phase %v must not carry labels in status", p)
		}
	}
}

func TestLabelSet_Contains(t *testing.T) {
	s := NewLabelSet(LabelWaiting, LabelSuccess)
	if !s.Contains(LabelWaiting) || !s.Contains(LabelSuccess) {
		t.Fatal("expected members missing")
	}
	if s.Contains(LabelHooked) || s.Contains(Label(-1)) || s.Contains(Label(99)) {
		t.Fatal("unexpected members present")
	}
}

func TestPhaseAndLabelStrings(t *testing.T) {
	for p := PhaseStopped; p <= PhaseError; p++ {
		if p.String() == "unknown" {
			t.Errorf("phase %d has no name", p)
		}
	}
	for l := LabelWaiting; l <= LabelSuccess; l++ {
		if l.String() == "unknown" {
			t.Errorf("label %d has no name", l)
		}
	}
}
