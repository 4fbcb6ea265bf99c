package lid

import "testing"

func TestOpenThenClose(t *testing.T) {
	var l Lid
	var opens, closes int

	prev := l.Angle
	for i := 0; l.Angle < 1; i++ {
		if i > 20 {
			t.Fatal("lid never fully opened")
		}
		switch l.Tick(1) {
		case SoundOpen:
			opens++
		case SoundClose:
			closes++
		}
		if l.Angle <= prev {
			t.Fatalf("tick %d: angle %v did not increase from %v", i, l.Angle, prev)
		}
		prev = l.Angle
	}
	if l.Angle != 1 {
		t.Errorf("open angle = %v, want exactly 1", l.Angle)
	}
	if opens != 1 || closes != 0 {
		t.Errorf("opening played %d open / %d close sounds, want 1 / 0", opens, closes)
	}

	// staying open is silent
	for i := 0; i < 5; i++ {
		if s := l.Tick(2); s != SoundNone {
			t.Errorf("open lid played %v", s)
		}
	}

	prev = l.Angle
	for i := 0; l.Angle > 0; i++ {
		if i > 20 {
			t.Fatal("lid never fully closed")
		}
		switch l.Tick(0) {
		case SoundOpen:
			opens++
		case SoundClose:
			closes++
		}
		if l.Angle >= prev {
			t.Fatalf("tick %d: angle %v did not decrease from %v", i, l.Angle, prev)
		}
		prev = l.Angle
	}
	if l.Angle != 0 {
		t.Errorf("closed angle = %v, want exactly 0", l.Angle)
	}
	if opens != 1 || closes != 1 {
		t.Errorf("full cycle played %d open / %d close sounds, want 1 / 1", opens, closes)
	}
}

func TestClosedAndUnwatchedIsStill(t *testing.T) {
	var l Lid
	for i := 0; i < 10; i++ {
		if s := l.Tick(0); s != SoundNone {
			t.Errorf("idle lid played %v", s)
		}
	}
	if l.Angle != 0 || l.State() != Closed {
		t.Errorf("idle lid angle = %v state = %v, want 0 closed", l.Angle, l.State())
	}
}

func TestStateClassification(t *testing.T) {
	tests := []struct {
		lid  Lid
		want State
	}{
		{Lid{Angle: 0, PrevAngle: 0.1}, Closed},
		{Lid{Angle: 1, PrevAngle: 0.9}, Open},
		{Lid{Angle: 0.4, PrevAngle: 0.3}, Opening},
		{Lid{Angle: 0.4, PrevAngle: 0.5}, Closing},
	}

	for _, tt := range tests {
		if got := tt.lid.State(); got != tt.want {
			t.Errorf("%+v.State() = %v, want %v", tt.lid, got, tt.want)
		}
	}
}

func TestReopenWhileClosingIsSilent(t *testing.T) {
	l := Lid{Angle: 0.6}
	if s := l.Tick(0); s != SoundNone {
		t.Fatalf("0.6 -> 0.5 played %v", s)
	}
	if s := l.Tick(1); s != SoundNone {
		t.Errorf("reopening a half-open lid played %v", s)
	}
}

func TestInterpolated(t *testing.T) {
	l := Lid{PrevAngle: 0.2, Angle: 0.4}
	if got := l.Interpolated(0.5); got < 0.2999 || got > 0.3001 {
		t.Errorf("Interpolated(0.5) = %v, want 0.3", got)
	}
}
