// Package gpio drives the optional status LED that mirrors the line state.
// The real implementation uses the Linux GPIO character device; the fake
// records values for tests.
package gpio

// Indicator shows the current line state on a piece of hardware.
type Indicator interface {
	// Set lights the indicator when powered is true.
	Set(powered bool) error

	// Close switches the indicator off and releases its resources.
	Close() error
}

// DisabledPin is the configured pin value that turns the indicator off.
const DisabledPin = -1

// DefaultChip is the GPIO chip the indicator line is requested from.
const DefaultChip = "gpiochip0"

// level maps a logical on/off to the raw line value.
func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
