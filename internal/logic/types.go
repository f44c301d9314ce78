// Package logic contains pure business logic for power line outage tracking.
// This package has NO external dependencies (no network, storage, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents the believed condition of the monitored line.
type State string

const (
	StatePowered   State = "POWERED"
	StateUnpowered State = "UNPOWERED"
)

// Direction represents a confirmed transition.
type Direction string

const (
	DirectionLoss        Direction = "POWER_OFF"
	DirectionRestoration Direction = "POWER_ON"
)

// OutageState is the persisted condition of the line.
type OutageState struct {
	// Unpowered is true while the line is believed OFF.
	Unpowered bool
	// LastTransition is the time of the most recent confirmed transition,
	// or the first boot time if none has happened yet.
	LastTransition time.Time
}

// State returns the State matching Unpowered.
func (s OutageState) State() State {
	if s.Unpowered {
		return StateUnpowered
	}
	return StatePowered
}

// Counters hold the in-memory debounce run lengths.
// At most one of Success and Failure is nonzero.
type Counters struct {
	Success int
	Failure int
}

// Transition is a confirmed state change produced by Monitor.Tick.
type Transition struct {
	Timestamp time.Time
	Direction Direction
	// Duration is how long the line spent in the previous state.
	Duration time.Duration
	// Previous is the state before the transition.
	Previous OutageState
	// Current is the state after the transition, to be persisted.
	Current OutageState
}

// EventCounts tracks the number of transitions since startup.
type EventCounts struct {
	Loss        int
	Restoration int
}
