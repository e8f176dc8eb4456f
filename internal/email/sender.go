package email

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"github.com/ToryFriday/Renta/internal/config"
)

// Sender delivers an email message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, body string) error
}

// smtpSender sends via plain SMTP with optional auth.
type smtpSender struct {
	cfg *config.Config
}

// NewSMTPSender creates a Sender backed by the configured SMTP relay.
func NewSMTPSender(cfg *config.Config) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(ctx context.Context, to []string, subject string, body string) error {
	if s.cfg.SmtpHost == "" {
		return fmt.Errorf("SMTP host not configured")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", s.cfg.SmtpFromAddress))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	sb.WriteString("\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SmtpHost, s.cfg.SmtpPort)
	var auth smtp.Auth
	if s.cfg.SmtpUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SmtpUsername, s.cfg.SmtpPassword, s.cfg.SmtpHost)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.SmtpFromAddress, to, []byte(sb.String())); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}
	return nil
}

// logSender writes messages to the process log instead of delivering them.
// Used in development when no SMTP relay is configured.
type logSender struct{}

// NewLogSender creates a Sender that only logs.
func NewLogSender() Sender {
	return logSender{}
}

func (logSender) Send(ctx context.Context, to []string, subject string, body string) error {
	log.Printf("EMAIL (not sent): to=%v subject=%q\n%s", to, subject, body)
	return nil
}
