package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/power-sensor/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	State         string       `json:"state"`
	Since         string       `json:"since"`
	InState       string       `json:"in_state"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Probe         *ProbeJSON   `json:"probe,omitempty"`
	Debounce      DebounceJSON `json:"debounce"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Failures      FailuresJSON `json:"failures"`
	Config        ConfigJSON   `json:"config"`
}

// ProbeJSON is the JSON representation of the last probe.
type ProbeJSON struct {
	At        string `json:"at"`
	Reachable bool   `json:"reachable"`
	LatencyMs int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

// DebounceJSON reports the consecutive-probe counters.
type DebounceJSON struct {
	Success   int `json:"success"`
	Failure   int `json:"failure"`
	Threshold int `json:"threshold"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	PowerOff int `json:"power_off"`
	PowerOn  int `json:"power_on"`
}

// FailuresJSON is the JSON representation of failure counters.
type FailuresJSON struct {
	Probe   int `json:"probe"`
	Notify  int `json:"notify"`
	Persist int `json:"persist"`
	MQTT    int `json:"mqtt"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Target        string `json:"target"`
	Probe         string `json:"probe"`
	IntervalMs    int64  `json:"interval_ms"`
	Threshold     int    `json:"threshold"`
	Broker        string `json:"broker,omitempty"`
	HTTPAddr      string `json:"http_addr"`
	NotifyEnabled bool   `json:"notify_enabled"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		State:         string(snap.Line.State()),
		Since:         snap.Line.LastTransition.UTC().Format(time.RFC3339),
		InState:       logic.FormatDuration(snap.InState()),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Debounce: DebounceJSON{
			Success:   snap.Counters.Success,
			Failure:   snap.Counters.Failure,
			Threshold: snap.Config.Threshold,
		},
		MQTT: MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			PowerOff: snap.Counts.Loss,
			PowerOn:  snap.Counts.Restoration,
		},
		Failures: FailuresJSON{
			Probe:   snap.Failures.Probe,
			Notify:  snap.Failures.Notify,
			Persist: snap.Failures.Persist,
			MQTT:    snap.Failures.MQTT,
		},
		Config: ConfigJSON{
			Target:        snap.Config.Target,
			Probe:         snap.Config.Probe,
			IntervalMs:    snap.Config.Interval.Milliseconds(),
			Threshold:     snap.Config.Threshold,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
			NotifyEnabled: snap.Config.NotifyEnabled,
		},
	}
	if p := snap.LastProbe; p != nil {
		inner.Probe = &ProbeJSON{
			At:        p.At.UTC().Format(time.RFC3339),
			Reachable: p.Reachable,
			LatencyMs: p.Latency.Milliseconds(),
			Message:   p.Message,
		}
	}
	return inner
}

// FormatJSON returns the indented JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
