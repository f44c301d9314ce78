// Package store persists the outage state so it survives power loss and restarts.
// The real implementation writes a small JSON file atomically.
// The fake implementation keeps the state in memory for tests.
package store

import (
	"context"
	"errors"

	"github.com/sweeney/power-sensor/internal/logic"
)

// Namespace is the fixed key under which the outage fields are stored.
const Namespace = "power"

// Field names inside Namespace.
const (
	KeyState    = "state"
	KeyLastTime = "lastTime"
)

// ErrCorrupt is returned by Load when stored data cannot be decoded.
var ErrCorrupt = errors.New("store: corrupt state")

// Store loads and saves the outage state.
type Store interface {
	// Load returns the stored state. found is false, with a nil error,
	// when nothing has been stored yet.
	Load(ctx context.Context) (state logic.OutageState, found bool, err error)

	// Save persists state. It must not return before the write is durable
	// (or assumed durable).
	Save(ctx context.Context, state logic.OutageState) error
}
