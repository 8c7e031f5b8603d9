package secondfactor

import (
	"context"
	"errors"
)

// Issued es un código recién emitido.
type Issued struct {
	Code      string
	Delivered bool
	Channel   string
}

// Issuer genera un código con la Policy y lo entrega.
type Issuer struct {
	policy Policy
	notify *FallbackNotifier
}

// NewIssuer arma el issuer. primary puede ser nil (sin SMTP); fallback nil usa
// ConsoleNotifier sobre el logger global.
func NewIssuer(policy Policy, primary, fallback Notifier) (*Issuer, error) {
	if policy == nil {
		return nil, errors.New("secondfactor: policy is required")
	}
	return &Issuer{
		policy: policy,
		notify: &FallbackNotifier{Primary: primary, Fallback: fallback},
	}, nil
}

// Issue genera y entrega el código. Solo falla si no se pudo generar;
// una entrega fallida se informa con Delivered=false.
func (i *Issuer) Issue(ctx context.Context, to string) (Issued, error) {
	code, err := i.policy.Generate()
	if err != nil {
		return Issued{}, err
	}
	d := i.notify.Notify(ctx, to, code)
	return Issued{Code: code, Delivered: d.Delivered, Channel: d.Channel}, nil
}

// Insecure reporta si la política subyacente es insegura.
func (i *Issuer) Insecure() bool { return i.policy.Insecure() }
