package mailer

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/aims-campus/aims-api/pkg/config"
)

// Sender delivers transactional mail.
type Sender interface {
	SendLoginOTP(to, name, otp string) error
}

// SMTPSender sends mail through a plain SMTP account. With no host or
// credentials configured it logs the OTP instead, which keeps local
// development working without a mail account.
type SMTPSender struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTPSender constructs an SMTPSender.
func NewSMTPSender(cfg config.SMTPConfig, logger *zap.Logger) *SMTPSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPSender{cfg: cfg, logger: logger}
}

// SendLoginOTP mails the one-time password for the login challenge.
func (s *SMTPSender) SendLoginOTP(to, name, otp string) error {
	if s.cfg.Host == "" || s.cfg.Username == "" {
		s.logger.Warn("smtp not configured, logging otp instead",
			zap.String("to", to),
			zap.String("otp", otp),
		)
		return nil
	}

	subject := "Your AIMS Login OTP"
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your one-time password for AIMS login is:</p><h2>%s</h2><p>This code is valid for 5 minutes.</p>",
		name, otp,
	)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.cfg.From, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := smtp.SendMail(addr, auth, s.cfg.Username, []string{to}, msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}
