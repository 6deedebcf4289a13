package engine

import "testing"

func testPolicy() GuardPolicy {
	return GuardPolicy{
		Warn: map[SignalType]int{
			SignalForbiddenKey:   2,
			SignalContextMenu:    2,
			SignalTabHidden:      1,
			SignalFullscreenExit: 1,
		},
		Terminate: map[SignalType]int{
			SignalForbiddenKey:   3,
			SignalContextMenu:    3,
			SignalTabHidden:      2,
			SignalFullscreenExit: 2,
		},
	}
}

func TestGuard_ForbiddenKeyThresholds(t *testing.T) {
	g := NewGuard(testPolicy())

	// First key attempt: still normal.
	tr := g.Record(SignalForbiddenKey)
	if tr.State != GuardNormal || tr.Warned || tr.Terminated {
		t.Fatalf("After 1 key event expected normal, got %+v", tr)
	}

	// Second crosses the warn threshold.
	tr = g.Record(SignalForbiddenKey)
	if tr.State != GuardWarned || !tr.Warned {
		t.Fatalf("After 2 key events expected warned, got %+v", tr)
	}

	// Third crosses the terminate threshold.
	tr = g.Record(SignalForbiddenKey)
	if tr.State != GuardTerminated || !tr.Terminated {
		t.Fatalf("After 3 key events expected terminated, got %+v", tr)
	}
}

func TestGuard_TerminatedIsAbsorbing(t *testing.T) {
	g := NewGuard(testPolicy())
	for i := 0; i < 3; i++ {
		g.Record(SignalForbiddenKey)
	}
	if g.State() != GuardTerminated {
		t.Fatalf("Expected terminated, got %s", g.State())
	}

	// A 4th event has no further effect.
	tr := g.Record(SignalForbiddenKey)
	if tr.State != GuardTerminated || tr.Warned || tr.Terminated {
		t.Errorf("Expected absorbing no-op, got %+v", tr)
	}
	if got := g.Counts()["forbidden-key"]; got != 3 {
		t.Errorf("Expected counter frozen at 3, got %d", got)
	}
}

func TestGuard_VisibilityLossEscalatesFaster(t *testing.T) {
	g := NewGuard(testPolicy())

	tr := g.Record(SignalTabHidden)
	if tr.State != GuardWarned || !tr.Warned {
		t.Fatalf("After 1 visibility loss expected warned, got %+v", tr)
	}

	tr = g.Record(SignalTabHidden)
	if tr.State != GuardTerminated || !tr.Terminated {
		t.Fatalf("After 2 visibility losses expected terminated, got %+v", tr)
	}
}

func TestGuard_MixedSignalsEscalateAcrossTypes(t *testing.T) {
	g := NewGuard(testPolicy())

	// Warned via keyboard attempts.
	g.Record(SignalForbiddenKey)
	g.Record(SignalForbiddenKey)
	if g.State() != GuardWarned {
		t.Fatalf("Expected warned, got %s", g.State())
	}

	// One fullscreen exit while warned is below its terminate threshold.
	tr := g.Record(SignalFullscreenExit)
	if tr.State != GuardWarned {
		t.Fatalf("Expected still warned, got %+v", tr)
	}

	// The second reaches it and ends the session.
	tr = g.Record(SignalFullscreenExit)
	if tr.State != GuardTerminated || !tr.Terminated {
		t.Errorf("Expected terminated, got %+v", tr)
	}
}

func TestGuard_UnknownSignalNeverEscalates(t *testing.T) {
	g := NewGuard(testPolicy())
	for i := 0; i < 10; i++ {
		tr := g.Record(SignalType("mouse-wiggle"))
		if tr.State != GuardNormal {
			t.Fatalf("Unknown signal escalated state to %s", tr.State)
		}
	}
}
