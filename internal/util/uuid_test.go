package util

import "testing"

func TestNewCycleID(t *testing.T) {
	a, b := NewCycleID(), NewCycleID()
	if len(a) != 22 {
		t.Fatalf("len = %d, want 22", len(a))
	}
	if a == b {
		t.Fatalf("ids collided: %s", a)
	}
}
