// Package mqtt publishes power transitions and daemon lifecycle events to an
// MQTT broker, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/power-sensor/internal/logic"
)

// Topic is the MQTT topic for power transition events.
const Topic = "power/line/sensor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "power/line/sensor/system"

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventReconnected = "RECONNECTED"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a power transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(t logic.Transition) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g., "STARTUP", "SHUTDOWN"
	Reason    string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	// State is the line state at the time of the event, if known.
	State    *logic.OutageState
	Retained bool // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for a transition.
type Payload struct {
	Power PowerPayload `json:"power"`
}

// PowerPayload contains the transition details.
type PowerPayload struct {
	Timestamp       string `json:"timestamp"`
	Event           string `json:"event"`
	State           string `json:"state"`
	PreviousSince   string `json:"previous_since"`
	DurationSeconds int64  `json:"duration_seconds"`
	Duration        string `json:"duration"`
	Message         string `json:"message"`
}

// FormatPayload creates the JSON payload for a transition.
func FormatPayload(t logic.Transition) ([]byte, error) {
	payload := Payload{
		Power: PowerPayload{
			Timestamp:       t.Timestamp.UTC().Format(time.RFC3339),
			Event:           string(t.Direction),
			State:           string(t.Current.State()),
			PreviousSince:   t.Previous.LastTransition.UTC().Format(time.RFC3339),
			DurationSeconds: int64(t.Duration / time.Second),
			Duration:        logic.FormatDuration(t.Duration),
			Message:         t.Message(),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string     `json:"timestamp"`
	Event     string     `json:"event"`
	Reason    string     `json:"reason,omitempty"`
	Line      *LineState `json:"line,omitempty"`
}

// LineState is the JSON form of the persisted outage state.
type LineState struct {
	State string `json:"state"`
	Since string `json:"since"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	if event.State != nil {
		payload.System.Line = &LineState{
			State: string(event.State.State()),
			Since: event.State.LastTransition.UTC().Format(time.RFC3339),
		}
	}
	return json.Marshal(payload)
}
