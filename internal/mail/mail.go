// Package mail dispatches the sign-up confirmation codes over SMTP.
package mail

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"sync"

	"github.com/jordan-wright/email"
)

// Mailer is the notification channel consumed by the sign-up flow.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPConfig holds the outgoing mail settings.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromName    string
	FromAddress string
	UseTLS      bool
}

// SMTPMailer sends plain-text mail through a single SMTP endpoint.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer validates the config and returns a Mailer.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("SMTP host and port are required")
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &SMTPMailer{cfg: cfg}, nil
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	e := email.NewEmail()
	e.From = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromAddress)
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	var err error
	if m.cfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: m.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		switch m.cfg.Port {
		case 465:
			err = e.SendWithTLS(addr, auth, tlsConfig)
		default:
			// 587 and friends expect STARTTLS.
			err = e.SendWithStartTLS(addr, auth, tlsConfig)
		}
	} else {
		err = e.Send(addr, auth)
	}
	if err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// ConfirmationBody renders the sign-up mail text.
func ConfirmationBody(username, code string) (subject, body string) {
	subject = "Your confirmation code"
	body = fmt.Sprintf("Hello, %s.\n\nYour confirmation code: %s\n\n"+
		"Exchange it for an access token at POST /api/v1/auth/token.\n", username, code)
	return subject, body
}

// LogMailer writes mail to the log instead of sending it. Used when SMTP is
// not configured; only suitable for development since confirmation codes end
// up in the log stream.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(to, subject, body string) error {
	m.Logger.Info("Mail dispatch skipped (SMTP not configured)",
		slog.String("to", to), slog.String("subject", subject), slog.String("body", body))
	return nil
}

// MockMailer records outgoing mail for tests and database-less runs.
type MockMailer struct {
	mu   sync.Mutex
	sent []SentMail
}

// SentMail is one recorded message.
type SentMail struct {
	To      string
	Subject string
	Body    string
}

// NewMockMailer creates an empty MockMailer.
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of everything sent so far.
func (m *MockMailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMail, len(m.sent))
	copy(out, m.sent)
	return out
}
