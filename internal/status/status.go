// Package status provides a thread-safe status tracker for the power-sensor
// daemon. It is written by the run loop and read by the HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/power-sensor/internal/logic"
	"github.com/sweeney/power-sensor/internal/probe"
)

// Config contains daemon configuration for display.
type Config struct {
	Target        string
	Probe         string
	Interval      time.Duration
	Threshold     int
	Broker        string
	HTTPAddr      string
	NotifyEnabled bool
}

// ProbeInfo is the outcome of the most recent probe.
type ProbeInfo struct {
	At        time.Time
	Reachable bool
	Latency   time.Duration
	Message   string
}

// Failures counts side-effect failures since startup.
type Failures struct {
	Probe   int // unreachable probes, debounced or not
	Notify  int
	Persist int
	MQTT    int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Line          logic.OutageState
	Counters      logic.Counters
	Counts        logic.EventCounts
	LastProbe     *ProbeInfo
	Failures      Failures
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// InState returns how long the line has held its current state.
func (s Snapshot) InState() time.Duration {
	return s.Now.Sub(s.Line.LastTransition)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	now func() time.Time

	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker seeded with the loaded line state.
// now supplies the Now field of each snapshot; nil means time.Now.
func NewTracker(startTime time.Time, line logic.OutageState, cfg Config, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		now: now,
		snap: Snapshot{
			Line:      line,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the line state, debounce counters, and transition counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(line logic.OutageState, counters logic.Counters, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Line = line
	t.snap.Counters = counters
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordProbe stores the outcome of a probe taken at at.
func (t *Tracker) RecordProbe(at time.Time, r probe.Result) {
	t.mu.Lock()
	t.snap.LastProbe = &ProbeInfo{
		At:        at,
		Reachable: r.Reachable,
		Latency:   r.Latency,
		Message:   r.Message,
	}
	if !r.Reachable {
		t.snap.Failures.Probe++
	}
	t.mu.Unlock()
}

// RecordNotifyFailure counts a notification that could not be delivered.
func (t *Tracker) RecordNotifyFailure() {
	t.mu.Lock()
	t.snap.Failures.Notify++
	t.mu.Unlock()
}

// RecordPersistFailure counts a state write that did not reach disk.
func (t *Tracker) RecordPersistFailure() {
	t.mu.Lock()
	t.snap.Failures.Persist++
	t.mu.Unlock()
}

// RecordMQTTFailure counts a transition that could not be published.
func (t *Tracker) RecordMQTTFailure() {
	t.mu.Lock()
	t.snap.Failures.MQTT++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set from the tracker's clock at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastProbe != nil {
		p := *s.LastProbe
		s.LastProbe = &p
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
