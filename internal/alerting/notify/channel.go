package notify

import (
	"context"
	"errors"
)

// Message is one rendered notification.
type Message struct {
	Subject string
	Body    string
}

// Channel delivers a rendered message.
type Channel interface {
	Send(ctx context.Context, msg Message) error
}

// MultiChannel fans a message out to several channels. Every channel is
// attempted; errors are joined so one failing channel does not mask another.
type MultiChannel struct {
	channels []Channel
}

// NewMultiChannel constructs a MultiChannel.
func NewMultiChannel(channels ...Channel) *MultiChannel {
	return &MultiChannel{channels: channels}
}

// Send implements Channel.
func (m *MultiChannel) Send(ctx context.Context, msg Message) error {
	if m == nil || len(m.channels) == 0 {
		return errors.New("multi channel: no channels configured")
	}
	var errs []error
	for _, channel := range m.channels {
		if channel == nil {
			continue
		}
		if err := channel.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
