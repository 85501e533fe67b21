// Package notify provides the notification collaborator and the score-report
// rendering used for the terminal notification of a completed run. Delivery
// is best-effort: failures are logged by the workflow engine and never fail
// a run whose score has already been computed.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Notifier is the notification contract consumed by the pipeline.
type Notifier interface {
	Send(ctx context.Context, destination, subject, body string) error
}

// SMTPConfig holds mail-delivery settings.
type SMTPConfig struct {
	Addr     string `yaml:"addr"` // host:port
	Username string `yaml:"username"`
	Password string `yaml:"-"`
	From     string `yaml:"from"`
}

// SMTPNotifier delivers notifications over SMTP. The standard library client
// is used directly: none of the reference stacks carry a mail library, and
// plain-text reports need nothing more.
type SMTPNotifier struct {
	cfg SMTPConfig
}

// NewSMTPNotifier creates a mail notifier.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Addr == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp notifier requires addr and from")
	}
	return &SMTPNotifier{cfg: cfg}, nil
}

func (n *SMTPNotifier) Send(_ context.Context, destination, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + n.cfg.From,
		"To: " + destination,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	host := n.cfg.Addr
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		host = host[:idx]
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, host)
	}

	if err := smtp.SendMail(n.cfg.Addr, auth, n.cfg.From, []string{destination}, []byte(msg)); err != nil {
		return fmt.Errorf("send notification to %s: %w", destination, err)
	}
	return nil
}

// LogNotifier writes notifications to the structured log instead of
// delivering them. Default for local development.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, destination, subject, body string) error {
	n.logger.Info("notification (log-only delivery)",
		"destination", destination,
		"subject", subject,
		"body_bytes", len(body))
	return nil
}
