// Package mail sends the feedback form onward. Delivery is best-effort;
// the chat core never depends on it.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog/log"
)

type Feedback struct {
	Name    string
	Email   string
	Message string
}

type Mailer interface {
	Send(ctx context.Context, fb Feedback) error
}

type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	to       string
}

func NewSMTPMailer(host string, port int, username, password, to string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, to: to}
}

func (m *SMTPMailer) Send(_ context.Context, fb Feedback) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Parlor feedback\r\n\r\nName: %s\r\nEmail: %s\r\n\r\n%s\r\n",
		m.username, m.to, fb.Name, fb.Email, fb.Message,
	)
	return smtp.SendMail(addr, auth, m.username, []string{m.to}, []byte(body))
}

// Disabled drops feedback with a log line, for deployments without SMTP.
type Disabled struct{}

func (Disabled) Send(_ context.Context, fb Feedback) error {
	log.Info().Str("module", "mail").Str("from", fb.Email).Msg("mailer disabled, feedback dropped")
	return nil
}
