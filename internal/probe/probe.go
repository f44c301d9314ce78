// Package probe checks whether the device on the monitored line answers.
// Any failure, including a malformed target, is reported as unreachable.
package probe

import (
	"context"
	"time"
)

// Result holds the outcome of a single probe.
type Result struct {
	Reachable bool
	Latency   time.Duration
	// Message describes the outcome, e.g. "connected" or the error text.
	Message string
}

// Prober is implemented by any reachability check (TCP, HTTP, ...).
type Prober interface {
	Check(ctx context.Context) Result
}
