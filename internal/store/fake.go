package store

import (
	"context"

	"github.com/sweeney/power-sensor/internal/logic"
)

// FakeStore is a test double that keeps the state in memory.
type FakeStore struct {
	// State is the stored value; Found reports whether anything is stored.
	State logic.OutageState
	Found bool

	// Saves records every state passed to Save, in order.
	Saves []logic.OutageState

	// LoadError, if set, will be returned by Load.
	LoadError error

	// SaveError, if set, will be returned by Save and the state is not stored.
	SaveError error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// NewFakeStoreWith creates a FakeStore already holding state.
func NewFakeStoreWith(state logic.OutageState) *FakeStore {
	return &FakeStore{State: state, Found: true}
}

// Load returns the stored state.
func (f *FakeStore) Load(ctx context.Context) (logic.OutageState, bool, error) {
	if f.LoadError != nil {
		return logic.OutageState{}, false, f.LoadError
	}
	return f.State, f.Found, nil
}

// Save records and stores the state.
func (f *FakeStore) Save(ctx context.Context, state logic.OutageState) error {
	if f.SaveError != nil {
		return f.SaveError
	}
	f.Saves = append(f.Saves, state)
	f.State = state
	f.Found = true
	return nil
}
