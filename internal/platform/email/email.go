package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"ewa/internal/platform/config"
)

// Sender delivers transactional mail. The SMTP sender is used when the
// config carries a host; otherwise LogSender keeps local development
// quiet but visible.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func NewFromConfig(cfg config.Config, logger *slog.Logger) Sender {
	if cfg.SMTPHost == "" {
		return &LogSender{Logger: logger}
	}
	return &SMTPSender{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPassword,
		From: cfg.EmailFrom,
	}
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.From, to, subject, body))
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	if err := smtp.SendMail(addr, auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.Logger.Info("email suppressed, no smtp host configured",
		slog.String("to", to),
		slog.String("subject", subject))
	return nil
}
