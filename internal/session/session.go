// Package session implementa la máquina de estados de autenticación:
//
//	Anonymous -> PendingSecondFactor -> Authenticated
//
// Una Session solo lleva los campos válidos para su estado. Solo el Machine
// puede moverla de estado; los backends (cache o cookie firmada) solo la
// serializan.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/schooldir/internal/domain/repository"
)

// State es el estado de una sesión.
type State int

const (
	StateAnonymous State = iota
	StatePendingSecondFactor
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StatePendingSecondFactor:
		return "pending_second_factor"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

func parseState(v string) (State, error) {
	switch v {
	case "anonymous", "":
		return StateAnonymous, nil
	case "pending_second_factor":
		return StatePendingSecondFactor, nil
	case "authenticated":
		return StateAuthenticated, nil
	}
	return StateAnonymous, fmt.Errorf("session: unknown state %q", v)
}

// Pending es el sub-estado de segundo factor. El código esperado se guarda
// como digest HMAC; el plaintext nunca llega a un backend.
type Pending struct {
	UserID     string             `json:"user_id"`
	Profile    repository.Profile `json:"profile"`
	CodeDigest string             `json:"code_digest"`
	IssuedAt   time.Time          `json:"issued_at"`
}

// Principal es el usuario autenticado de una sesión.
type Principal struct {
	UserID          string    `json:"user_id"`
	DisplayName     string    `json:"display_name"`
	Email           string    `json:"email"`
	IsAdmin         bool      `json:"is_admin"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
}

// Session es la unión etiquetada {Anonymous, PendingSecondFactor, Authenticated}.
// El valor cero es Anonymous.
type Session struct {
	state     State
	pending   *Pending
	principal *Principal
}

// New retorna una sesión anónima.
func New() *Session { return &Session{} }

func (s *Session) State() State { return s.state }

// Principal retorna una copia del principal si la sesión está autenticada.
func (s *Session) Principal() (Principal, bool) {
	if s.state != StateAuthenticated || s.principal == nil {
		return Principal{}, false
	}
	return *s.principal, true
}

// Pending retorna una copia del sub-estado pendiente.
func (s *Session) Pending() (Pending, bool) {
	if s.state != StatePendingSecondFactor || s.pending == nil {
		return Pending{}, false
	}
	return *s.pending, true
}

// UserID es "" salvo en Authenticated.
func (s *Session) UserID() string {
	if p, ok := s.Principal(); ok {
		return p.UserID
	}
	return ""
}

// PendingUserID es "" salvo en PendingSecondFactor.
func (s *Session) PendingUserID() string {
	if p, ok := s.Pending(); ok {
		return p.UserID
	}
	return ""
}

// IsAdmin es true solo en una sesión autenticada como administrador.
func (s *Session) IsAdmin() bool {
	p, ok := s.Principal()
	return ok && p.IsAdmin
}

func (s *Session) reset() {
	s.state = StateAnonymous
	s.pending = nil
	s.principal = nil
}

func (s *Session) setPending(p Pending) {
	s.state = StatePendingSecondFactor
	s.pending = &p
	s.principal = nil
}

func (s *Session) authenticate(p Principal) {
	s.state = StateAuthenticated
	s.principal = &p
	s.pending = nil
}

// record es la forma serializada.
type record struct {
	State     string     `json:"state"`
	Pending   *Pending   `json:"pending,omitempty"`
	Principal *Principal `json:"principal,omitempty"`
}

// ErrMalformed indica un registro serializado inconsistente con su estado.
var ErrMalformed = errors.New("session: malformed record")

func (r record) toSession() (*Session, error) {
	st, err := parseState(r.State)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch st {
	case StateAnonymous:
		if r.Pending != nil || r.Principal != nil {
			return nil, fmt.Errorf("%w: anonymous with payload", ErrMalformed)
		}
		return New(), nil
	case StatePendingSecondFactor:
		if r.Principal != nil || r.Pending == nil || r.Pending.UserID == "" || r.Pending.CodeDigest == "" {
			return nil, fmt.Errorf("%w: pending state mismatch", ErrMalformed)
		}
		s := New()
		s.setPending(*r.Pending)
		return s, nil
	default:
		if r.Pending != nil || r.Principal == nil || r.Principal.UserID == "" {
			return nil, fmt.Errorf("%w: authenticated state mismatch", ErrMalformed)
		}
		s := New()
		s.authenticate(*r.Principal)
		return s, nil
	}
}

func (s *Session) toRecord() record {
	r := record{State: s.state.String()}
	switch s.state {
	case StatePendingSecondFactor:
		r.Pending = s.pending
	case StateAuthenticated:
		r.Principal = s.principal
	}
	return r
}

// MarshalJSON implements json.Marshaler.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toRecord())
}

// UnmarshalJSON implements json.Unmarshaler. Rechaza registros a medio llenar
// con ErrMalformed.
func (s *Session) UnmarshalJSON(b []byte) error {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	decoded, err := r.toSession()
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}
