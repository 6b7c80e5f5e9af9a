// Package notify sends operator notifications. Email is the only channel;
// callback alerts must reach a human even when every other collaborator is
// down, so the sender has no dependency beyond an SMTP relay.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"voice-lead-pipeline/internal/observability/metrics"
)

// EmailConfig holds SMTP relay settings.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailSender delivers plain-text email through an SMTP relay.
type EmailSender struct {
	cfg     EmailConfig
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewEmailSender builds an EmailSender. A missing host yields nil, which the
// dispatcher treats as the channel being unconfigured.
func NewEmailSender(cfg EmailConfig, log zerolog.Logger) *EmailSender {
	if cfg.Host == "" {
		return nil
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailSender{
		cfg:     cfg,
		send:    smtp.SendMail,
		metrics: metrics.DefaultMetrics,
		log:     log.With().Str("component", "notify").Logger(),
	}
}

// SendEmail sends one plain-text message. The context only gates entry:
// net/smtp has no per-dial cancellation hook.
func (s *EmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		return fmt.Errorf("no recipient")
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	err := s.send(addr, auth, s.cfg.From, []string{to}, []byte(msg))
	s.metrics.RecordNotification("email", err)
	if err != nil {
		s.log.Error().Err(err).Str("to", to).Msg("email send failed")
		return fmt.Errorf("send email: %w", err)
	}
	s.log.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}
