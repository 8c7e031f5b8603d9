package secondfactor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dropDatabas3/schooldir/internal/email"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
)

// Canales de entrega.
const (
	ChannelEmail   = "email"
	ChannelConsole = "console"
)

// Notifier entrega un código a un destinatario.
type Notifier interface {
	Channel() string
	Send(ctx context.Context, to, code string) error
}

// EmailNotifier manda el código por SMTP.
type EmailNotifier struct {
	Sender  email.Sender
	AppName string
	Subject string
}

func (n *EmailNotifier) Channel() string { return ChannelEmail }

// Send implements Notifier.
func (n *EmailNotifier) Send(_ context.Context, to, code string) error {
	if n.Sender == nil {
		return email.ErrNotConfigured
	}
	html, text, err := email.RenderCode(email.CodeVars{AppName: n.AppName, UserEmail: to, Code: code})
	if err != nil {
		return fmt.Errorf("secondfactor: render: %w", err)
	}
	subject := n.Subject
	if subject == "" {
		subject = "Tu código de verificación"
	}
	return n.Sender.Send(to, subject, html, text)
}

// ConsoleNotifier escribe el código en el log operativo. Es el canal de
// último recurso cuando no hay SMTP.
type ConsoleNotifier struct {
	Logger *zap.Logger
}

func (n *ConsoleNotifier) Channel() string { return ChannelConsole }

// Send implements Notifier.
func (n *ConsoleNotifier) Send(_ context.Context, to, code string) error {
	l := n.Logger
	if l == nil {
		l = logger.L()
	}
	l.Warn("second factor code (console fallback)",
		logger.Component("secondfactor"),
		logger.Email(to),
		logger.String("code", code),
	)
	return nil
}

// Delivery es el resultado de una entrega.
type Delivery struct {
	Delivered bool   // true solo si lo entregó el canal primario
	Channel   string // canal que efectivamente emitió el código
}

// FallbackNotifier intenta Primary y, si es nil o falla, emite por Fallback.
type FallbackNotifier struct {
	Primary  Notifier
	Fallback Notifier
}

// Notify nunca falla: la entrega fallida se reporta en Delivery.
func (f *FallbackNotifier) Notify(ctx context.Context, to, code string) Delivery {
	log := logger.From(ctx).With(logger.Component("secondfactor"), logger.Email(to))

	if f.Primary != nil {
		err := f.Primary.Send(ctx, to, code)
		if err == nil {
			return Delivery{Delivered: true, Channel: f.Primary.Channel()}
		}
		log.Warn("primary delivery failed, using fallback",
			logger.String("channel", f.Primary.Channel()),
			logger.Err(err),
		)
	}

	fb := f.Fallback
	if fb == nil {
		fb = &ConsoleNotifier{}
	}
	if err := fb.Send(ctx, to, code); err != nil {
		log.Error("fallback delivery failed", logger.String("channel", fb.Channel()), logger.Err(err))
	}
	return Delivery{Delivered: false, Channel: fb.Channel()}
}
