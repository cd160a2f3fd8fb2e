package email

import (
	"context"
	"fmt"

	mail "gopkg.in/mail.v2"
)

// Client sends plain-text notification emails over SMTP.
type Client struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewClient(host string, port int, username, password, from string) *Client {
	return &Client{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", c.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := mail.NewDialer(c.host, c.port, c.username, c.password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// NoopSender discards emails. Used when SMTP delivery is disabled;
// the notification record is still written.
type NoopSender struct{}

func (NoopSender) Send(_ context.Context, _, _, _ string) error {
	return nil
}
