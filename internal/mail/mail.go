// Package mail delivers transactional email either directly over SMTP or
// through the background job queue.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// Message is a single outgoing HTML email.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SendFunc delivers a composed message. It matches
// (*gomail.Client).DialAndSendWithContext for a single message.
type SendFunc func(ctx context.Context, msg *gomail.Msg) error

// SMTPSender delivers mail synchronously over SMTP, upgrading to STARTTLS
// when the server offers it.
type SMTPSender struct {
	send SendFunc
}

// NewSMTPSender creates a sender for host:port. Authentication is used only
// when user is set.
func NewSMTPSender(host string, port int, user, pass string) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithPort(port),
	}
	if user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(user),
			gomail.WithPassword(pass),
		)
	}
	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: smtp client for %s:%d: %w", host, port, err)
	}
	return &SMTPSender{
		send: func(ctx context.Context, msg *gomail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
	}, nil
}

// WithSendFunc replaces the transport, used by tests.
func (s *SMTPSender) WithSendFunc(fn SendFunc) *SMTPSender {
	s.send = fn
	return s
}

// Send writes m to the SMTP server.
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.To == "" {
		return fmt.Errorf("mail: empty recipient")
	}
	msg, err := Compose(m)
	if err != nil {
		return err
	}
	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", m.To, err)
	}
	return nil
}

// Compose builds an HTML message. Non-ASCII headers are RFC 2047 encoded.
func Compose(m Message) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("mail: from %q: %w", m.From, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("mail: to %q: %w", m.To, err)
	}
	msg.Subject(strings.NewReplacer("\r", "", "\n", "").Replace(m.Subject))
	msg.SetBodyString(gomail.TypeTextHTML, m.HTML)
	return msg, nil
}

var resetTemplate = template.Must(template.New("reset").Parse(`<div class="email" style="border: 1px solid black; padding: 20px; font-family: sans-serif; line-height: 2; font-size: 20px;">
  <h2>Hello There!</h2>
  <p>Your Password Reset Token is here!</p>
  <p><a href="{{.Link}}">Click Here to Reset</a></p>
  <p>Sick Fits</p>
</div>`))

// ResetLink returns the frontend URL a user follows to reset their password.
func ResetLink(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/reset?resetToken=" + token
}

// ResetEmail builds the password reset message for to.
func ResetEmail(from, to, frontendURL, token string) (Message, error) {
	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, struct{ Link string }{ResetLink(frontendURL, token)}); err != nil {
		return Message{}, fmt.Errorf("mail: render reset email: %w", err)
	}
	return Message{
		From:    from,
		To:      to,
		Subject: "Your Password Reset Token",
		HTML:    body.String(),
	}, nil
}
