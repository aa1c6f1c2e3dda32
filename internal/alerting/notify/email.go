package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const defaultSendGridHost = "https://api.sendgrid.com"

// EmailChannel delivers messages through the SendGrid v3 mail API. One API
// call addresses all receivers, so a sample breaching both metrics still
// produces a single outgoing mail.
type EmailChannel struct {
	apiKey    string
	host      string
	sender    string
	receivers []string
}

// EmailOption configures the email channel.
type EmailOption func(*EmailChannel)

// WithHost overrides the SendGrid API host.
func WithHost(host string) EmailOption {
	return func(c *EmailChannel) {
		if host != "" {
			c.host = host
		}
	}
}

// NewEmailChannel constructs an email channel.
func NewEmailChannel(apiKey, sender string, receivers []string, opts ...EmailOption) (*EmailChannel, error) {
	if apiKey == "" {
		return nil, errors.New("email channel: empty api key")
	}
	if sender == "" {
		return nil, errors.New("email channel: empty sender")
	}
	if len(receivers) == 0 {
		return nil, errors.New("email channel: no receivers")
	}
	channel := &EmailChannel{
		apiKey:    apiKey,
		host:      defaultSendGridHost,
		sender:    sender,
		receivers: receivers,
	}
	for _, opt := range opts {
		opt(channel)
	}
	return channel, nil
}

// Send implements Channel.
func (c *EmailChannel) Send(ctx context.Context, msg Message) error {
	if c == nil {
		return errors.New("email channel: nil")
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", c.sender))
	m.Subject = msg.Subject

	personalization := mail.NewPersonalization()
	for _, receiver := range c.receivers {
		personalization.AddTos(mail.NewEmail("", receiver))
	}
	m.AddPersonalizations(personalization)
	m.AddContent(mail.NewContent("text/plain", msg.Body))

	request := sendgrid.GetRequest(c.apiKey, "/v3/mail/send", c.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(m)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("email channel: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("email channel: status %d: %s", response.StatusCode, strings.TrimSpace(response.Body))
	}
	return nil
}
