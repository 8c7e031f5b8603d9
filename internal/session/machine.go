package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/schooldir/internal/domain/repository"
	"github.com/dropDatabas3/schooldir/internal/identity"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	"github.com/dropDatabas3/schooldir/internal/secondfactor"
)

// CodeIssuer emite y entrega códigos de segundo factor (ver secondfactor.Issuer).
type CodeIssuer interface {
	Issue(ctx context.Context, to string) (secondfactor.Issued, error)
	Insecure() bool
}

// ErrInsecurePolicy: NewMachine rechaza una política de código insegura salvo
// que se habilite explícitamente.
var ErrInsecurePolicy = errors.New("session: insecure second factor policy refused")

// Deps son los colaboradores del Machine.
type Deps struct {
	Identity identity.Provider
	Profiles repository.ProfileRepository
	Issuer   CodeIssuer

	// Secret es la clave HMAC del digest del código pendiente (>= 16 bytes).
	Secret []byte

	Recorder            Recorder // opcional
	AllowInsecurePolicy bool
	Now                 func() time.Time // opcional, tests
}

// Machine ejecuta las transiciones de sesión. Es seguro para uso concurrente;
// cada llamada muta solo la *Session que recibe.
type Machine struct {
	idp      identity.Provider
	profiles repository.ProfileRepository
	issuer   CodeIssuer
	secret   []byte
	rec      Recorder
	now      func() time.Time
}

// NewMachine valida las dependencias.
func NewMachine(d Deps) (*Machine, error) {
	switch {
	case d.Identity == nil:
		return nil, errors.New("session: identity provider is required")
	case d.Profiles == nil:
		return nil, errors.New("session: profile repository is required")
	case d.Issuer == nil:
		return nil, errors.New("session: code issuer is required")
	case len(d.Secret) < 16:
		return nil, errors.New("session: secret must be at least 16 bytes")
	}
	if d.Issuer.Insecure() && !d.AllowInsecurePolicy {
		return nil, ErrInsecurePolicy
	}

	m := &Machine{
		idp:      d.Identity,
		profiles: d.Profiles,
		issuer:   d.Issuer,
		secret:   append([]byte(nil), d.Secret...),
		rec:      d.Recorder,
		now:      d.Now,
	}
	if m.rec == nil {
		m.rec = nopRecorder{}
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	return m, nil
}

// LoginResult es el resultado de un Login exitoso.
type LoginResult struct {
	State State

	// Principal solo en StateAuthenticated.
	Principal *Principal

	// Solo en StatePendingSecondFactor.
	CodeDelivered   bool
	DeliveryChannel string
}

// DeliveryWarning indica que el código quizás no llegó al usuario.
func (r *LoginResult) DeliveryWarning() bool {
	return r.State == StatePendingSecondFactor && !r.CodeDelivered
}

// Login verifica credenciales y mueve la sesión a Authenticated (usuarios) o a
// PendingSecondFactor (administradores). Ante un error s queda intacta, salvo
// cuenta desactivada, que la resetea a Anonymous.
func (m *Machine) Login(ctx context.Context, s *Session, email, password string) (*LoginResult, error) {
	email = identity.NormalizeEmail(email)
	log := logger.From(ctx).With(logger.Layer("session"), logger.Op("Login"), logger.Email(email))

	ident, err := m.idp.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			m.rec.LoginOutcome(OutcomeInvalid)
			log.Info("login rejected", logger.Reason(OutcomeInvalid))
			// el mensaje del provider se muestra tal cual
			return nil, newError(ErrInvalidCredentials, err.Error(), err)
		}
		m.rec.LoginOutcome(OutcomeError)
		log.Error("sign in failed", logger.Err(err))
		return nil, providerError("sign in", err)
	}
	log = log.With(logger.UserID(ident.UserID))

	profile, err := m.loadOrRepairProfile(ctx, log, ident)
	if err != nil {
		m.rec.LoginOutcome(OutcomeError)
		return nil, err
	}

	if !profile.IsActive {
		m.forceSignOut(ctx, log, ident.UserID)
		s.reset()
		m.rec.LoginOutcome(OutcomeDeactivated)
		log.Info("login rejected", logger.Reason(OutcomeDeactivated))
		return nil, newError(ErrAccountDeactivated, msgDeactivated, nil)
	}

	if profile.IsAdmin {
		to := profile.Email
		if to == "" {
			to = ident.Email
		}
		issued, err := m.issuer.Issue(ctx, to)
		if err != nil {
			m.rec.LoginOutcome(OutcomeError)
			log.Error("second factor issue failed", logger.Err(err))
			return nil, providerError("issue code", err)
		}
		m.rec.CodeDelivery(issued.Channel, issued.Delivered)

		s.setPending(Pending{
			UserID:     ident.UserID,
			Profile:    *profile,
			CodeDigest: m.digest(ident.UserID, issued.Code),
			IssuedAt:   m.now(),
		})
		m.rec.LoginOutcome(OutcomePending)
		log.Info("second factor required",
			logger.String("channel", issued.Channel),
			logger.Bool("delivered", issued.Delivered),
		)
		return &LoginResult{
			State:           StatePendingSecondFactor,
			CodeDelivered:   issued.Delivered,
			DeliveryChannel: issued.Channel,
		}, nil
	}

	p := Principal{
		UserID:          ident.UserID,
		DisplayName:     profile.Name,
		Email:           profile.Email,
		IsAdmin:         false,
		AuthenticatedAt: m.now(),
	}
	s.authenticate(p)
	m.rec.LoginOutcome(OutcomeAuthenticated)
	log.Info("login ok", logger.SessionState(StateAuthenticated.String()))
	return &LoginResult{State: StateAuthenticated, Principal: &p}, nil
}

// loadOrRepairProfile trae el profile; si falta lo sintetiza (legacy repair).
// Si el insert falla el login sigue con el profile en memoria.
func (m *Machine) loadOrRepairProfile(ctx context.Context, log *zap.Logger, ident *identity.Identity) (*repository.Profile, error) {
	profile, err := m.profiles.Get(ctx, ident.UserID)
	if err == nil {
		return profile, nil
	}
	if !repository.IsNotFound(err) {
		log.Error("get profile failed", logger.Err(err))
		return nil, providerError("get profile", err)
	}

	email := identity.NormalizeEmail(ident.Email)
	p := repository.NewDefaultProfile(ident.UserID, email, defaultName(email))
	if err := m.profiles.Insert(ctx, p); err != nil {
		log.Warn("legacy profile repair failed, continuing in-memory", logger.Err(err))
	} else {
		log.Info("legacy profile repaired")
	}
	return &p, nil
}

func defaultName(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

// SubmitSecondFactor confirma el código pendiente. Si coincide la sesión pasa
// a Authenticated como administrador; si no, queda pendiente sin cambios y se
// puede reintentar.
func (m *Machine) SubmitSecondFactor(ctx context.Context, s *Session, code string) (*Principal, error) {
	log := logger.From(ctx).With(logger.Layer("session"), logger.Op("SubmitSecondFactor"))

	pending, ok := s.Pending()
	if !ok {
		return nil, newError(ErrAuthenticationRequired, msgLoginRequired, errNotPending)
	}
	log = log.With(logger.UserID(pending.UserID))

	if !hmac.Equal([]byte(m.digest(pending.UserID, code)), []byte(pending.CodeDigest)) {
		m.rec.SecondFactorResult(ResultMismatch)
		log.Info("second factor rejected", logger.Reason(ResultMismatch))
		return nil, newError(ErrInvalidSecondFactorCode, msgInvalidCode, nil)
	}

	// Un ban aplicado mientras el código estaba pendiente también corta acá.
	current, err := m.profiles.Get(ctx, pending.UserID)
	switch {
	case err == nil:
		if !current.IsActive {
			m.forceSignOut(ctx, log, pending.UserID)
			s.reset()
			m.rec.SecondFactorResult(ReasonDeactivated)
			log.Info("second factor rejected", logger.Reason(ReasonDeactivated))
			return nil, newError(ErrAccountDeactivated, msgDeactivated, nil)
		}
	case repository.IsNotFound(err):
		// profile en memoria de un legacy repair fallido: vale el snapshot
	default:
		log.Error("get profile failed", logger.Err(err))
		return nil, providerError("get profile", err)
	}

	snap := pending.Profile
	p := Principal{
		UserID:          pending.UserID,
		DisplayName:     snap.Name,
		Email:           snap.Email,
		IsAdmin:         true,
		AuthenticatedAt: m.now(),
	}
	s.authenticate(p)
	m.rec.SecondFactorResult(ResultOK)
	log.Info("second factor ok", logger.SessionState(StateAuthenticated.String()))
	return &p, nil
}

// Logout limpia la sesión y revoca la sesión del provider. La sesión queda
// Anonymous aunque el provider falle; ese error se devuelve como ProviderError.
func (m *Machine) Logout(ctx context.Context, s *Session) error {
	userID := s.UserID()
	if userID == "" {
		userID = s.PendingUserID()
	}
	s.reset()
	if userID == "" {
		return nil
	}

	log := logger.From(ctx).With(logger.Layer("session"), logger.Op("Logout"), logger.UserID(userID))
	if err := m.idp.SignOut(ctx, userID); err != nil {
		log.Warn("provider sign out failed", logger.Err(err))
		return providerError("sign out", err)
	}
	log.Info("logout ok")
	return nil
}

// RequireSession es el guard de toda operación protegida: exige Authenticated
// y re-valida el ban contra el Profile Store en cada llamada.
func (m *Machine) RequireSession(ctx context.Context, s *Session) (Principal, error) {
	return m.requireSession(ctx, s, GuardSession)
}

// RequireAdminSession aplica RequireSession y además exige is_admin en la sesión.
// Un rechazo por no-admin deja la sesión intacta.
func (m *Machine) RequireAdminSession(ctx context.Context, s *Session) (Principal, error) {
	p, err := m.requireSession(ctx, s, GuardAdmin)
	if err != nil {
		return Principal{}, err
	}
	if !p.IsAdmin {
		m.rec.GuardRejection(GuardAdmin, ReasonNotAdmin)
		return Principal{}, newError(ErrAuthorizationDenied, msgAdminRequired, nil)
	}
	return p, nil
}

func (m *Machine) requireSession(ctx context.Context, s *Session, guard string) (Principal, error) {
	p, ok := s.Principal()
	if !ok {
		m.rec.GuardRejection(guard, ReasonUnauthenticated)
		return Principal{}, newError(ErrAuthenticationRequired, msgLoginRequired, errNotAuthenticated)
	}

	log := logger.From(ctx).With(logger.Layer("session"), logger.Op("RequireSession"), logger.UserID(p.UserID))

	profile, err := m.profiles.Get(ctx, p.UserID)
	switch {
	case err == nil:
		if !profile.IsActive {
			m.forceSignOut(ctx, log, p.UserID)
			s.reset()
			m.rec.GuardRejection(guard, ReasonDeactivated)
			log.Info("session terminated", logger.Reason(ReasonDeactivated))
			return Principal{}, newError(ErrAccountDeactivated, msgDeactivated, nil)
		}
	case repository.IsNotFound(err):
		// sin fila no hay ban que aplicar
	default:
		m.rec.GuardRejection(guard, ReasonError)
		log.Error("get profile failed", logger.Err(err))
		return Principal{}, providerError("get profile", err)
	}

	// el ban va primero: un baneado también figura deslogueado en el provider
	valid, err := m.idp.SessionValid(ctx, p.UserID, p.AuthenticatedAt)
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		valid = false
	case err != nil:
		m.rec.GuardRejection(guard, ReasonError)
		log.Error("session validation failed", logger.Err(err))
		return Principal{}, providerError("session valid", err)
	}
	if !valid {
		s.reset()
		m.rec.GuardRejection(guard, ReasonRevoked)
		log.Info("session terminated", logger.Reason(ReasonRevoked))
		return Principal{}, newError(ErrAuthenticationRequired, msgLoginRequired, ErrSessionRevoked)
	}
	return p, nil
}

// ProfileUpdate son los cambios que el propio usuario puede pedir.
// Name nil = no tocar; Password vacío (y PasswordConfirm vacío) = no tocar.
type ProfileUpdate struct {
	Name            *string
	Password        string
	PasswordConfirm string
}

// ProfileUpdateResult informa qué se aplicó.
type ProfileUpdateResult struct {
	Principal       Principal
	NameUpdated     bool
	PasswordUpdated bool
}

// UpdateProfile aplica primero el nombre (store + sesión) y después el password
// vía el provider. Si el password falla se devuelve PasswordUpdateFailed junto
// con el resultado, y el cambio de nombre ya aplicado se mantiene.
func (m *Machine) UpdateProfile(ctx context.Context, s *Session, in ProfileUpdate) (*ProfileUpdateResult, error) {
	p, err := m.RequireSession(ctx, s)
	if err != nil {
		return nil, err
	}
	log := logger.From(ctx).With(logger.Layer("session"), logger.Op("UpdateProfile"), logger.UserID(p.UserID))

	var name string
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, newError(ErrInvalidInput, "Name cannot be empty.", nil)
		}
	}
	wantPassword := in.Password != "" || in.PasswordConfirm != ""
	if wantPassword && in.Password != in.PasswordConfirm {
		return nil, newError(ErrPasswordUpdateFailed, msgPasswordMismatch, nil)
	}

	res := &ProfileUpdateResult{Principal: p}

	if in.Name != nil {
		if err := m.profiles.Update(ctx, p.UserID, repository.ProfileUpdate{Name: &name}); err != nil {
			log.Error("update profile failed", logger.Err(err))
			return nil, providerError("update profile", err)
		}
		s.principal.DisplayName = name
		res.Principal.DisplayName = name
		res.NameUpdated = true
	}

	if wantPassword {
		if err := m.idp.AdminUpdatePassword(ctx, p.UserID, in.Password); err != nil {
			log.Warn("password update failed", logger.Err(err))
			msg := msgPasswordFailed
			if errors.Is(err, identity.ErrWeakPassword) {
				msg = msgWeakPassword
			}
			return res, newError(ErrPasswordUpdateFailed, msg, err)
		}
		res.PasswordUpdated = true
	}

	log.Info("profile updated",
		logger.Bool("name", res.NameUpdated),
		logger.Bool("password", res.PasswordUpdated),
	)
	return res, nil
}

// Registration son los datos del alta de un usuario final.
type Registration struct {
	Name     string
	Email    string
	Password string
}

// Register da de alta la identidad y su profile (no admin, activo) y deja la
// sesión autenticada.
func (m *Machine) Register(ctx context.Context, s *Session, in Registration) (*Principal, error) {
	name := strings.TrimSpace(in.Name)
	email := identity.NormalizeEmail(in.Email)
	log := logger.From(ctx).With(logger.Layer("session"), logger.Op("Register"), logger.Email(email))

	if name == "" || email == "" || in.Password == "" {
		return nil, newError(ErrInvalidInput, "All fields are required.", nil)
	}
	if !identity.ValidEmail(email) {
		return nil, newError(ErrInvalidInput, msgInvalidEmail, nil)
	}

	if _, err := m.profiles.GetByEmail(ctx, email); err == nil {
		return nil, newError(ErrEmailTaken, "Email already registered.", nil)
	} else if !repository.IsNotFound(err) {
		log.Error("get profile by email failed", logger.Err(err))
		return nil, providerError("get profile by email", err)
	}

	ident, err := m.idp.SignUp(ctx, email, in.Password)
	switch {
	case errors.Is(err, identity.ErrEmailExists):
		return nil, newError(ErrEmailTaken, "Email already registered.", err)
	case errors.Is(err, identity.ErrWeakPassword):
		return nil, newError(ErrInvalidInput, msgWeakPassword, err)
	case err != nil:
		log.Error("sign up failed", logger.Err(err))
		return nil, providerError("sign up", err)
	}

	prof := repository.NewDefaultProfile(ident.UserID, email, name)
	if err := m.profiles.Insert(ctx, prof); err != nil {
		log.Error("insert profile failed", logger.UserID(ident.UserID), logger.Err(err))
		return nil, providerError("insert profile", err)
	}

	p := Principal{
		UserID:          ident.UserID,
		DisplayName:     name,
		Email:           email,
		AuthenticatedAt: m.now(),
	}
	s.authenticate(p)
	log.Info("user registered", logger.UserID(ident.UserID))
	return &p, nil
}

// forceSignOut revoca la sesión del provider; best effort.
func (m *Machine) forceSignOut(ctx context.Context, log *zap.Logger, userID string) {
	if err := m.idp.SignOut(ctx, userID); err != nil {
		log.Warn("forced sign out failed", logger.Err(err))
	}
}

func (m *Machine) digest(userID, code string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(userID))
	mac.Write([]byte{0})
	mac.Write([]byte(code))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
