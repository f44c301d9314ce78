package gpio

import (
	"errors"
	"testing"
)

var _ Indicator = (*FakeIndicator)(nil)
var _ Indicator = (*LED)(nil)

func TestFakeIndicatorSet(t *testing.T) {
	f := NewFakeIndicator()

	if f.Lit() {
		t.Error("should not be lit before any Set")
	}

	for _, v := range []bool{true, false, true} {
		if err := f.Set(v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(f.Values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(f.Values))
	}
	if !f.Lit() {
		t.Error("expected lit after last Set(true)")
	}
}

func TestFakeIndicatorError(t *testing.T) {
	f := NewFakeIndicator()
	f.SetError = errors.New("simulated error")

	err := f.Set(true)
	if err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
	if len(f.Values) != 0 {
		t.Error("failed Set should not be recorded")
	}
}

func TestFakeIndicatorClose(t *testing.T) {
	f := NewFakeIndicator()

	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestLevel(t *testing.T) {
	if level(true) != 1 || level(false) != 0 {
		t.Errorf("unexpected levels: %d %d", level(true), level(false))
	}
}
