package email

import (
	"errors"
	"net"
	"strings"
)

// SMTPDiag clasifica un error SMTP para logging.
type SMTPDiag struct {
	Code      string // not_configured|timeout|dial|tls|auth|rate_limited|invalid_recipient|rejected|network|unknown
	Temporary bool   // si conviene reintentar
}

// DiagnoseSMTP analiza un error SMTP y retorna información de diagnóstico.
func DiagnoseSMTP(err error) SMTPDiag {
	if err == nil {
		return SMTPDiag{Code: "unknown"}
	}
	if errors.Is(err, ErrNotConfigured) {
		return SMTPDiag{Code: "not_configured"}
	}
	s := strings.ToLower(err.Error())

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return SMTPDiag{Code: "timeout", Temporary: true}
	}
	if strings.Contains(s, "timeout") {
		return SMTPDiag{Code: "timeout", Temporary: true}
	}

	switch {
	case strings.Contains(s, "connection refused"),
		strings.Contains(s, "no such host"),
		strings.Contains(s, "dial tcp"):
		return SMTPDiag{Code: "dial", Temporary: true}

	case strings.Contains(s, "x509:"),
		strings.Contains(s, "tls") && (strings.Contains(s, "handshake") || strings.Contains(s, "certificate")):
		return SMTPDiag{Code: "tls"}

	case strings.Contains(s, "5.7.8"), strings.Contains(s, "535"),
		strings.Contains(s, "authentication failed"),
		strings.Contains(s, "username and password not accepted"):
		return SMTPDiag{Code: "auth"}

	case strings.Contains(s, "4.7.0"), strings.Contains(s, "rate limit"),
		strings.Contains(s, "try again later"),
		strings.Contains(s, "451"), strings.Contains(s, "421"):
		return SMTPDiag{Code: "rate_limited", Temporary: true}

	case strings.Contains(s, "5.1.1"), strings.Contains(s, "user unknown"),
		strings.Contains(s, "mailbox not found"):
		return SMTPDiag{Code: "invalid_recipient"}

	case strings.Contains(s, "5.7.1"), strings.Contains(s, "message rejected"),
		strings.Contains(s, "dmarc"), strings.Contains(s, "spf"):
		return SMTPDiag{Code: "rejected"}
	}

	if errors.As(err, &ne) {
		return SMTPDiag{Code: "network", Temporary: true}
	}
	return SMTPDiag{Code: "unknown"}
}
