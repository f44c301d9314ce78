//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

// LED drives a single output line on a Linux GPIO chip.
type LED struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	pin  int
}

// NewLED requests pin on chip as an output, initially lit when powered is true.
func NewLED(chip string, pin int, powered bool) (*LED, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := c.RequestLine(pin, gpiocdev.AsOutput(level(powered)))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", pin, err)
	}

	return &LED{chip: c, line: line, pin: pin}, nil
}

// Set drives the line high when powered.
func (l *LED) Set(powered bool) error {
	if err := l.line.SetValue(level(powered)); err != nil {
		return fmt.Errorf("set LED pin %d: %w", l.pin, err)
	}
	return nil
}

// Close turns the LED off and hands the line back as an input with pull-down,
// matching the Pi boot defaults.
func (l *LED) Close() error {
	var err error
	if l.line != nil {
		err = multierr.Append(err, l.line.SetValue(0))
		err = multierr.Append(err, l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown))
		err = multierr.Append(err, l.line.Close())
	}
	if l.chip != nil {
		err = multierr.Append(err, l.chip.Close())
	}
	if err != nil {
		return fmt.Errorf("close LED pin %d: %w", l.pin, err)
	}
	return nil
}
