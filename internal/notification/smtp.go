package notification

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	log "github.com/sirupsen/logrus"
)

// SMTPNotifier sends rendered messages over SMTP.
type SMTPNotifier struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewSMTPNotifier returns a Notifier that delivers via the given SMTP server.
func NewSMTPNotifier(host, port, user, pass, from string) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, user: user, pass: pass, from: from}
}

// Send renders the message template and delivers it as a plain-text email.
func (s *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	body, err := Render(msg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.user, s.pass, s.host)

	e := email.NewEmail()
	e.From = s.from
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.Text = []byte(body)

	return e.Send(addr, auth)
}

// LogNotifier renders messages and logs them instead of sending. Used when SMTP
// is not configured (local development).
type LogNotifier struct{}

// Send renders the message and logs recipient and subject. The body is not
// logged: two-factor codes must not end up in log output.
func (LogNotifier) Send(ctx context.Context, msg Message) error {
	if _, err := Render(msg); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"to":       msg.To,
		"subject":  msg.Subject,
		"template": msg.Template,
	}).Info("email delivery skipped (SMTP not configured)")
	return nil
}
