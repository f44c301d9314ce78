package logic

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration renders d for humans. Anything under a minute is
// "less than a minute"; otherwise hours and minutes are listed with zero
// parts left out. Seconds are truncated, never rounded.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}

	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutes", minutes))
	}
	return strings.Join(parts, " ")
}

// FormatMessage composes the notification text for a transition in the
// given direction after the line spent d in its previous state.
func FormatMessage(dir Direction, d time.Duration) string {
	switch dir {
	case DirectionLoss:
		return "🔴 Power is OFF\nIt was on for " + FormatDuration(d)
	case DirectionRestoration:
		return "🟢 Power is BACK\nIt was off for " + FormatDuration(d)
	default:
		return fmt.Sprintf("Power state changed (%s) after %s", dir, FormatDuration(d))
	}
}

// Message returns the notification text for t.
func (t Transition) Message() string {
	return FormatMessage(t.Direction, t.Duration)
}
