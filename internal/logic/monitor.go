package logic

import "time"

// DefaultThreshold is the number of consecutive consistent probes required
// before a transition is accepted.
const DefaultThreshold = 5

// Monitor tracks the debounced power state of a single line.
type Monitor struct {
	threshold   int
	state       OutageState
	counters    Counters
	eventCounts EventCounts
}

// NewMonitor creates a monitor that resumes from the given state.
// Loading a state never produces a transition on its own; only fresh
// observations passed to Tick can. A threshold below 1 is treated as 1.
func NewMonitor(threshold int, initial OutageState) *Monitor {
	if threshold < 1 {
		threshold = 1
	}
	return &Monitor{
		threshold: threshold,
		state:     initial,
	}
}

// Tick feeds one probe observation taken at now into the monitor.
// It returns a Transition when the observation confirms a change of state,
// nil otherwise.
func (m *Monitor) Tick(reachable bool, now time.Time) *Transition {
	if reachable {
		m.counters.Failure = 0
		m.counters.Success++
		if m.counters.Success >= m.threshold && m.state.Unpowered {
			return m.fire(DirectionRestoration, now)
		}
		return nil
	}

	m.counters.Success = 0
	m.counters.Failure++
	if m.counters.Failure >= m.threshold && !m.state.Unpowered {
		return m.fire(DirectionLoss, now)
	}
	return nil
}

// fire flips the state and records the transition. Counters are left alone:
// the opposite branch of Tick resets them on the next contradicting probe.
func (m *Monitor) fire(dir Direction, now time.Time) *Transition {
	prev := m.state
	m.state = OutageState{
		Unpowered:      dir == DirectionLoss,
		LastTransition: now,
	}

	switch dir {
	case DirectionLoss:
		m.eventCounts.Loss++
	case DirectionRestoration:
		m.eventCounts.Restoration++
	}

	return &Transition{
		Timestamp: now,
		Direction: dir,
		Duration:  now.Sub(prev.LastTransition),
		Previous:  prev,
		Current:   m.state,
	}
}

// State returns the current believed state.
func (m *Monitor) State() OutageState {
	return m.state
}

// Counters returns the current debounce counters.
func (m *Monitor) Counters() Counters {
	return m.counters
}

// Threshold returns the debounce width.
func (m *Monitor) Threshold() int {
	return m.threshold
}

// EventCountsSnapshot returns the transition counts since startup.
func (m *Monitor) EventCountsSnapshot() EventCounts {
	return m.eventCounts
}
