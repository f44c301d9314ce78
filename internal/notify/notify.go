// Package notify delivers human-readable messages to a chat channel.
// Delivery is best-effort: callers log failures and never retry.
package notify

import (
	"context"
	"errors"

	"go.uber.org/multierr"
)

// ErrDisabled is returned by a notifier that has no destination configured.
var ErrDisabled = errors.New("notify: disabled")

// Notifier sends a text message to a fixed destination.
// The text may be any UTF-8, including newlines and emoji.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Multi fans a message out to several notifiers. Every notifier is tried;
// the returned error combines all failures.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, text))
	}
	return err
}

// Nop discards every message.
type Nop struct{}

func (Nop) Send(context.Context, string) error { return nil }
