// Package clock provides wall-clock time and blocks startup until the system
// clock has been synchronized. Boards without an RTC boot at the epoch (or at
// the last fake-hwclock save) until NTP catches up.
package clock

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MinValid is the earliest time accepted as synchronized.
var MinValid = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Clock returns the current wall-clock time.
type Clock interface {
	Now() time.Time
}

// System is the real wall clock in a fixed location.
type System struct {
	Location *time.Location
}

// NewSystem returns a System clock for the named IANA zone. An empty name
// or "Local" uses the host zone.
func NewSystem(zone string) (System, error) {
	if zone == "" || zone == "Local" {
		return System{Location: time.Local}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return System{}, err
	}
	return System{Location: loc}, nil
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// Synced reports whether t looks like a synchronized wall-clock reading.
func Synced(t time.Time) bool {
	return !t.Before(MinValid)
}

// WaitForSync polls c every retry until it reports a synchronized time and
// returns that time. There is no retry limit; only ctx ends the wait early.
func WaitForSync(ctx context.Context, c Clock, retry time.Duration, log *zap.Logger) (time.Time, error) {
	for attempt := 1; ; attempt++ {
		now := c.Now()
		if Synced(now) {
			if attempt > 1 {
				log.Info("clock synchronized", zap.Time("now", now), zap.Int("attempts", attempt))
			}
			return now, nil
		}
		log.Info("waiting for clock sync",
			zap.Time("now", now),
			zap.Time("min_valid", MinValid),
			zap.Int("attempt", attempt))

		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return time.Time{}, ctx.Err()
		case <-timer.C:
		}
	}
}
