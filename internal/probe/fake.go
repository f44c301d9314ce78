package probe

import "context"

// FakeProber is a test double that returns scripted outcomes.
type FakeProber struct {
	// Outcomes contains scripted reachability values.
	// Each call to Check consumes the next one; once exhausted the last
	// outcome repeats. With no outcomes, Check reports unreachable.
	Outcomes []bool

	index int

	// Calls counts Check invocations.
	Calls int
}

// NewFakeProber creates a FakeProber with the given outcomes.
func NewFakeProber(outcomes ...bool) *FakeProber {
	return &FakeProber{Outcomes: outcomes}
}

// Check returns the next scripted outcome.
func (f *FakeProber) Check(ctx context.Context) Result {
	f.Calls++
	if len(f.Outcomes) == 0 {
		return Result{Reachable: false, Message: "no outcomes configured"}
	}

	reachable := f.Outcomes[f.index]
	if f.index < len(f.Outcomes)-1 {
		f.index++
	}
	if reachable {
		return Result{Reachable: true, Message: "fake ok"}
	}
	return Result{Reachable: false, Message: "fake unreachable"}
}
