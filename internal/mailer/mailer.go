package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/dtroode/userhub/internal/config"
	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

var (
	_ model.Mailer = (*LogMailer)(nil)
	_ model.Mailer = (*SMTPMailer)(nil)
)

// New returns an SMTP mailer, or a LogMailer when no SMTP host is configured.
func New(cfg config.SMTP, logger *logger.Logger) model.Mailer {
	if cfg.Host == "" {
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg, logger)
}

// LogMailer writes verification links to the log instead of sending mail.
type LogMailer struct {
	logger *logger.Logger
}

func NewLogMailer(logger *logger.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerification(_ context.Context, to, nickname, link string) error {
	m.logger.Info("Mailer: verification email not sent, smtp disabled",
		"to", to,
		"nickname", nickname,
		"link", link)
	return nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers plain-text mail through an SMTP relay.
type SMTPMailer struct {
	addr   string
	from   string
	auth   smtp.Auth
	send   sendFunc
	logger *logger.Logger
}

func NewSMTPMailer(cfg config.SMTP, logger *logger.Logger) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:   cfg.From,
		auth:   auth,
		send:   smtp.SendMail,
		logger: logger,
	}
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to, nickname, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(m.from, to, "Verify your email", verificationBody(nickname, link))
	if err := m.send(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		m.logger.Error("Mailer: failed to send verification email", "to", to, "error", err.Error())
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	m.logger.Debug("Mailer: verification email sent", "to", to)
	return nil
}

func verificationBody(nickname, link string) string {
	return fmt.Sprintf("Hi %s,\r\n\r\nconfirm your email address by opening the link below:\r\n\r\n%s\r\n", nickname, link)
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
