// Package email envía los mails transaccionales de la app (hoy: el código de
// segundo factor) por SMTP usando go-mail.
package email

import (
	"crypto/tls"
	"errors"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/schooldir/internal/observability/logger"
)

// ErrNotConfigured: no hay host SMTP; el caller debe caer al canal de fallback.
var ErrNotConfigured = errors.New("email: smtp not configured")

// Sender envía un email con contenido HTML y texto plano.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPConfig configura el SMTPSender.
type SMTPConfig struct {
	Host               string
	Port               int
	From               string
	Username           string
	Password           string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

// Configured indica si hay suficiente config para intentar un envío.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

// SMTPSender implementa Sender usando SMTP.
type SMTPSender struct {
	cfg    SMTPConfig
	dialer func(m *mail.Message) error
}

// NewSMTPSender crea el sender. Port 0 usa 587.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	s := &SMTPSender{cfg: cfg}
	s.dialer = s.dialAndSend
	return s
}

// Send envía un email multipart/alternative (txt + html).
func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	if !s.cfg.Configured() {
		return ErrNotConfigured
	}

	log := logger.L().With(
		logger.Component("email.smtp"),
		logger.String("host", s.cfg.Host),
		logger.Int("port", s.cfg.Port),
		logger.Email(to),
	)

	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	if textBody != "" {
		m.SetBody("text/plain", textBody)
	}
	if htmlBody != "" {
		if textBody == "" {
			m.SetBody("text/html", htmlBody)
		} else {
			m.AddAlternative("text/html", htmlBody)
		}
	}

	if err := s.dialer(m); err != nil {
		d := DiagnoseSMTP(err)
		log.Error("smtp send failed",
			logger.String("diag", d.Code),
			logger.Bool("temporary", d.Temporary),
			logger.Err(err),
		)
		return fmt.Errorf("smtp send: %w", err)
	}

	log.Info("email sent")
	return nil
}

func (s *SMTPSender) dialAndSend(m *mail.Message) error {
	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.TLSConfig = &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify, // solo dev
	}

	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	return d.DialAndSend(m)
}
