package services

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// ErrEmailNotConfigured is returned when SMTP settings are incomplete.
var ErrEmailNotConfigured = errors.New("SMTP credentials not fully configured")

// EmailService sends plain-text mail through SMTP.
type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(host, port, user, password, from string) *EmailService {
	if from == "" {
		from = user
	}
	return &EmailService{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		send:     smtp.SendMail,
	}
}

// Configured reports whether every SMTP setting is present.
func (s *EmailService) Configured() bool {
	return s != nil && s.host != "" && s.port != "" && s.user != "" && s.password != ""
}

// SendEmail delivers a plain-text message to every recipient.
func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if !s.Configured() {
		return ErrEmailNotConfigured
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := s.send(addr, auth, s.from, to, buildMessage(s.from, to, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
