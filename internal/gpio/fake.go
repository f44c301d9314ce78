package gpio

// FakeIndicator records every value it is set to.
type FakeIndicator struct {
	// Values contains each value passed to Set, in order.
	Values []bool

	// SetError, if set, will be returned by Set and the value not recorded.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeIndicator creates a FakeIndicator for testing.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// Set records powered.
func (f *FakeIndicator) Set(powered bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Values = append(f.Values, powered)
	return nil
}

// Lit reports the last value set, false if never set.
func (f *FakeIndicator) Lit() bool {
	if len(f.Values) == 0 {
		return false
	}
	return f.Values[len(f.Values)-1]
}

// Close marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.Closed = true
	return nil
}
