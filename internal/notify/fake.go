package notify

import "context"

// FakeNotifier records sent messages for test assertions.
type FakeNotifier struct {
	// Messages contains every text passed to Send, including failed ones.
	Messages []string

	// SendError, if set, will be returned by Send.
	SendError error
}

// NewFakeNotifier creates a FakeNotifier for testing.
func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

// Send records the message.
func (f *FakeNotifier) Send(ctx context.Context, text string) error {
	f.Messages = append(f.Messages, text)
	return f.SendError
}
