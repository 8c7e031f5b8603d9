package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/schooldir/internal/domain/repository"
	"github.com/dropDatabas3/schooldir/internal/identity"
	memidp "github.com/dropDatabas3/schooldir/internal/identity/memory"
	"github.com/dropDatabas3/schooldir/internal/secondfactor"
	memstore "github.com/dropDatabas3/schooldir/internal/store/memory"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type captureNotifier struct {
	mu      sync.Mutex
	channel string
	err     error
	codes   map[string]string
}

func (n *captureNotifier) Channel() string { return n.channel }

func (n *captureNotifier) Send(_ context.Context, to, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[to] = code
	return n.err
}

func (n *captureNotifier) last(to string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[to]
}

type countingRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *countingRecorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *countingRecorder) LoginOutcome(o string)       { r.add("login:" + o) }
func (r *countingRecorder) SecondFactorResult(o string) { r.add("2fa:" + o) }
func (r *countingRecorder) CodeDelivery(ch string, ok bool) {
	if ok {
		r.add("delivery:" + ch + ":ok")
	} else {
		r.add("delivery:" + ch + ":failed")
	}
}
func (r *countingRecorder) GuardRejection(g, reason string) { r.add("guard:" + g + ":" + reason) }

// flakyProfiles permite inyectar fallas del Profile Store.
type flakyProfiles struct {
	repository.ProfileRepository
	getErr    error
	insertErr error
}

func (f *flakyProfiles) Get(ctx context.Context, id string) (*repository.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.ProfileRepository.Get(ctx, id)
}

func (f *flakyProfiles) Insert(ctx context.Context, p repository.Profile) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.ProfileRepository.Insert(ctx, p)
}

type fixture struct {
	m        *Machine
	idp      *memidp.Provider
	profiles *flakyProfiles
	email    *captureNotifier
	console  *captureNotifier
	rec      *countingRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		idp:      memidp.New(),
		profiles: &flakyProfiles{ProfileRepository: memstore.New().Profiles()},
		email:    &captureNotifier{channel: secondfactor.ChannelEmail, codes: map[string]string{}},
		console:  &captureNotifier{channel: secondfactor.ChannelConsole, codes: map[string]string{}},
		rec:      &countingRecorder{},
	}
	iss, err := secondfactor.NewIssuer(secondfactor.GeneratedPolicy{}, f.email, f.console)
	require.NoError(t, err)

	f.m, err = NewMachine(Deps{
		Identity: f.idp,
		Profiles: f.profiles,
		Issuer:   iss,
		Secret:   testSecret,
		Recorder: f.rec,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) addUser(t *testing.T, email, password string, admin, active bool) string {
	t.Helper()
	ident, err := f.idp.SignUp(context.Background(), email, password)
	require.NoError(t, err)
	p := repository.NewDefaultProfile(ident.UserID, email, "Name "+email)
	p.IsAdmin = admin
	p.IsActive = active
	require.NoError(t, f.profiles.Insert(context.Background(), p))
	return ident.UserID
}

func (f *fixture) setActive(t *testing.T, userID string, active bool) {
	t.Helper()
	require.NoError(t, f.profiles.Update(context.Background(), userID, repository.ProfileUpdate{IsActive: &active}))
}

func (f *fixture) loginAdmin(t *testing.T, email, password string) *Session {
	t.Helper()
	s := New()
	res, err := f.m.Login(context.Background(), s, email, password)
	require.NoError(t, err)
	require.Equal(t, StatePendingSecondFactor, res.State)
	return s
}

func TestLogin_WrongPasswordNeverSetsIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "a@x.com", "p1-password", false, true)
	f.addUser(t, "admin@x.com", "p2-password", true, true)

	for _, email := range []string{"a@x.com", "admin@x.com", "nobody@x.com"} {
		s := New()
		res, err := f.m.Login(ctx, s, email, "wrong-password")
		require.Nil(t, res)
		require.ErrorIs(t, err, ErrInvalidCredentials)
		require.Equal(t, "Invalid login credentials", err.Error())
		require.Equal(t, StateAnonymous, s.State())
		require.Empty(t, s.UserID())
		require.Empty(t, s.PendingUserID())
	}
	require.Empty(t, f.email.codes)
}

func TestLogin_NonAdminAuthenticates(t *testing.T) {
	f := newFixture(t)
	uid := f.addUser(t, "a@x.com", "p1-password", false, true)

	s := New()
	res, err := f.m.Login(context.Background(), s, "A@x.com ", "p1-password")
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, res.State)
	require.NotNil(t, res.Principal)
	require.False(t, res.Principal.IsAdmin)

	require.Equal(t, StateAuthenticated, s.State())
	require.Equal(t, uid, s.UserID())
	require.False(t, s.IsAdmin())
	require.Empty(t, s.PendingUserID())

	p, ok := s.Principal()
	require.True(t, ok)
	require.Equal(t, "a@x.com", p.Email)
	require.Equal(t, "Name a@x.com", p.DisplayName)
}

func TestLogin_AdminRequiresSecondFactor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.addUser(t, "admin@x.com", "p2-password", true, true)

	s := New()
	res, err := f.m.Login(ctx, s, "admin@x.com", "p2-password")
	require.NoError(t, err)
	require.Equal(t, StatePendingSecondFactor, res.State)
	require.Nil(t, res.Principal)
	require.True(t, res.CodeDelivered)
	require.False(t, res.DeliveryWarning())

	// todavía no autorizado
	require.Empty(t, s.UserID())
	require.False(t, s.IsAdmin())
	require.Equal(t, uid, s.PendingUserID())
	_, err = f.m.RequireSession(ctx, s)
	require.ErrorIs(t, err, ErrAuthenticationRequired)

	code := f.email.last("admin@x.com")
	require.Len(t, code, secondfactor.DefaultLength)

	p, err := f.m.SubmitSecondFactor(ctx, s, code)
	require.NoError(t, err)
	require.True(t, p.IsAdmin)
	require.Equal(t, uid, p.UserID)

	require.Equal(t, StateAuthenticated, s.State())
	require.True(t, s.IsAdmin())
	require.Empty(t, s.PendingUserID())
	_, pending := s.Pending()
	require.False(t, pending)

	// exactamente una vez
	_, err = f.m.SubmitSecondFactor(ctx, s, code)
	require.ErrorIs(t, err, ErrAuthenticationRequired)
	require.True(t, s.IsAdmin())
}

func TestSubmitSecondFactor_WrongCodeKeepsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "admin@x.com", "p2-password", true, true)
	s := f.loginAdmin(t, "admin@x.com", "p2-password")

	before, ok := s.Pending()
	require.True(t, ok)

	code := f.email.last("admin@x.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < 3; i++ {
		_, err := f.m.SubmitSecondFactor(ctx, s, wrong)
		require.ErrorIs(t, err, ErrInvalidSecondFactorCode)
		require.Equal(t, StatePendingSecondFactor, s.State())
		after, ok := s.Pending()
		require.True(t, ok)
		require.Equal(t, before, after)
	}

	// igualdad exacta: con espacios no matchea
	_, err := f.m.SubmitSecondFactor(ctx, s, " "+code)
	require.ErrorIs(t, err, ErrInvalidSecondFactorCode)

	_, err = f.m.SubmitSecondFactor(ctx, s, code)
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, s.State())
}

func TestSubmitSecondFactor_NotPending(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.SubmitSecondFactor(context.Background(), New(), "123456")
	require.ErrorIs(t, err, ErrAuthenticationRequired)
	require.ErrorIs(t, err, errNotPending)
}

func TestSubmitSecondFactor_BannedWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.addUser(t, "admin@x.com", "p2-password", true, true)
	s := f.loginAdmin(t, "admin@x.com", "p2-password")

	f.setActive(t, uid, false)
	_, err := f.m.SubmitSecondFactor(ctx, s, f.email.last("admin@x.com"))
	require.ErrorIs(t, err, ErrAccountDeactivated)
	require.Equal(t, StateAnonymous, s.State())
	require.True(t, f.idp.SignedOut(uid))
}

func TestLogin_DeactivatedRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.addUser(t, "banned@x.com", "p3-password", false, false)
	adminID := f.addUser(t, "badmin@x.com", "p4-password", true, false)

	s := New()
	_, err := f.m.Login(ctx, s, "banned@x.com", "p3-password")
	require.ErrorIs(t, err, ErrAccountDeactivated)
	require.Equal(t, StateAnonymous, s.State())
	require.True(t, f.idp.SignedOut(uid))

	_, err = f.m.Login(ctx, s, "badmin@x.com", "p4-password")
	require.ErrorIs(t, err, ErrAccountDeactivated)
	require.Equal(t, StateAnonymous, s.State())
	require.Empty(t, s.PendingUserID())
	require.True(t, f.idp.SignedOut(adminID))
	require.Empty(t, f.email.codes)
}

func TestLogin_DeactivatedDiscardsPreviousSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "a@x.com", "p1-password", false, true)
	f.addUser(t, "banned@x.com", "p3-password", false, false)

	s := New()
	_, err := f.m.Login(ctx, s, "a@x.com", "p1-password")
	require.NoError(t, err)

	_, err = f.m.Login(ctx, s, "banned@x.com", "p3-password")
	require.ErrorIs(t, err, ErrAccountDeactivated)
	require.Equal(t, StateAnonymous, s.State())
}

func TestRequireSession_BanDetectedOnNextCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.addUser(t, "a@x.com", "p1-password", false, true)

	s := New()
	_, err := f.m.Login(ctx, s, "a@x.com", "p1-password")
	require.NoError(t, err)

	p, err := f.m.RequireSession(ctx, s)
	require.NoError(t, err)
	require.Equal(t, uid, p.UserID)

	f.setActive(t, uid, false)
	_, err = f.m.RequireSession(ctx, s)
	require.ErrorIs(t, err, ErrAccountDeactivated)
	require.Equal(t, StateAnonymous, s.State())
	require.Empty(t, s.UserID())
	require.True(t, f.idp.SignedOut(uid))

	_, err = f.m.RequireSession(ctx, s)
	require.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestRequireAdminSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "a@x.com", "p1-password", false, true)
	f.addUser(t, "admin@x.com", "p2-password", true, true)

	s := New()
	_, err := f.m.Login(ctx, s, "a@x.com", "p1-password")
	require.NoError(t, err)
	before, _ := s.Principal()

	_, err = f.m.RequireAdminSession(ctx, s)
	require.ErrorIs(t, err, ErrAuthorizationDenied)
	after, ok := s.Principal()
	require.True(t, ok)
	require.Equal(t, before, after)

	_, err = f.m.RequireAdminSession(ctx, New())
	require.ErrorIs(t, err, ErrAuthenticationRequired)

	admin := f.loginAdmin(t, "admin@x.com", "p2-password")
	_, err = f.m.RequireAdminSession(ctx, admin)
	require.ErrorIs(t, err, ErrAuthenticationRequired)

	_, err = f.m.SubmitSecondFactor(ctx, admin, f.email.last("admin@x.com"))
	require.NoError(t, err)
	p, err := f.m.RequireAdminSession(ctx, admin)
	require.NoError(t, err)
	require.True(t, p.IsAdmin)
}

func TestRequireSession_ProviderErrorKeepsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "a@x.com", "p1-password", false, true)
	s := New()
	_, err := f.m.Login(ctx, s, "a@x.com", "p1-password")
	require.NoError(t, err)

	boom := errors.New("remote store unreachable")
	f.profiles.getErr = boom
	_, err = f.m.RequireSession(ctx, s)
	require.ErrorIs(t, err, ErrProviderError)
	require.ErrorIs(t, err, boom)
	require.NotContains(t, err.Error(), "unreachable")
	require.Equal(t, StateAuthenticated, s.State())
}

func TestLogin_LegacyRepair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ident, err := f.idp.SignUp(ctx, "legacy@x.com", "legacy-password")
	require.NoError(t, err)

	s := New()
	res, err := f.m.Login(ctx, s, "legacy@x.com", "legacy-password")
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, res.State)
	require.False(t, s.IsAdmin())

	p, err := f.profiles.Get(ctx, ident.UserID)
	require.NoError(t, err)
	require.False(t, p.IsAdmin)
	require.True(t, p.IsActive)
	require.Equal(t, "legacy@x.com", p.Email)
	require.Equal(t, "legacy", p.Name)
}

func TestLogin_LegacyRepairInsertFailureProceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ident, err := f.idp.SignUp(ctx, "legacy@x.com", "legacy-password")
	require.NoError(t, err)
	f.profiles.insertErr = errors.New("insert failed")

	s := New()
	res, err := f.m.Login(ctx, s, "legacy@x.com", "legacy-password")
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, res.State)

	_, err = f.profiles.Get(ctx, ident.UserID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// sin fila: el guard no tiene ban que aplicar
	_, err = f.m.RequireSession(ctx, s)
	require.NoError(t, err)
}

func TestLogin_ProviderErrorTranslated(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "a@x.com", "p1-password", false, true)
	f.idp.FailNext = errors.New("dial tcp: connection reset")

	s := New()
	_, err := f.m.Login(context.Background(), s, "a@x.com", "p1-password")
	require.ErrorIs(t, err, ErrProviderError)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, msgProvider, err.Error())
	require.Equal(t, StateAnonymous, s.State())
	require.Equal(t, ErrProviderError, KindOf(err))
}

func TestLogin_DeliveryFailureStillPending(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "admin@x.com", "p2-password", true, true)
	f.email.err = errors.New("smtp down")

	s := New()
	res, err := f.m.Login(context.Background(), s, "admin@x.com", "p2-password")
	require.NoError(t, err)
	require.Equal(t, StatePendingSecondFactor, res.State)
	require.True(t, res.DeliveryWarning())
	require.Equal(t, secondfactor.ChannelConsole, res.DeliveryChannel)

	code := f.console.last("admin@x.com")
	require.NotEmpty(t, code)
	_, err = f.m.SubmitSecondFactor(context.Background(), s, code)
	require.NoError(t, err)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.addUser(t, "a@x.com", "p1-password", false, true)

	s := New()
	_, err := f.m.Login(ctx, s, "a@x.com", "p1-password")
	require.NoError(t, err)

	require.NoError(t, f.m.Logout(ctx, s))
	require.Equal(t, StateAnonymous, s.State())
	require.True(t, f.idp.SignedOut(uid))

	// anónima: no-op
	require.NoError(t, f.m.Logout(ctx, s))
}

func TestRequireSession_CopiedCookieRevokedByLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "a@x.com", "p1-password", false, true)
	// la autenticación queda claramente antes del sign out
	f.m.now = func() time.Time { return time.Now().UTC().Add(-time.Second) }

	st, err := NewCookieStore(cookieKey, time.Hour)
	require.NoError(t, err)

	s := New()
	_, err = f.m.Login(ctx, s, "a@x.com", "p1-password")
	require.NoError(t, err)
	tok := mustSave(t, st, s)

	require.NoError(t, f.m.Logout(ctx, s))
	require.NoError(t, st.Destroy(ctx, tok))

	// el cookie firmado sigue decodificando, pero el provider lo revocó
	copied, err := st.Load(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, copied.State())

	_, err = f.m.RequireSession(ctx, copied)
	require.ErrorIs(t, err, ErrAuthenticationRequired)
	require.ErrorIs(t, err, ErrSessionRevoked)
	require.Equal(t, StateAnonymous, copied.State())

	// un login nuevo vale
	f.m.now = func() time.Time { return time.Now().UTC().Add(time.Second) }
	fresh := New()
	_, err = f.m.Login(ctx, fresh, "a@x.com", "p1-password")
	require.NoError(t, err)
	_, err = f.m.RequireSession(ctx, fresh)
	require.NoError(t, err)
}

func TestRequireSession_SessionCheckFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "a@x.com", "p1-password", false, true)
	s := New()
	_, err := f.m.Login(ctx, s, "a@x.com", "p1-password")
	require.NoError(t, err)

	f.idp.SessionErr = errors.New("provider timeout")
	_, err = f.m.RequireSession(ctx, s)
	require.ErrorIs(t, err, ErrProviderError)
	require.Equal(t, StateAuthenticated, s.State())
	require.Equal(t, []string{"guard:" + GuardSession + ":" + ReasonError}, f.rec.events[len(f.rec.events)-1:])
}

func TestLogout_ProviderFailureStillClears(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "admin@x.com", "p2-password", true, true)
	s := f.loginAdmin(t, "admin@x.com", "p2-password")

	f.idp.FailNext = errors.New("provider down")
	err := f.m.Logout(ctx, s)
	require.ErrorIs(t, err, ErrProviderError)
	require.Equal(t, StateAnonymous, s.State())
	require.Empty(t, s.PendingUserID())
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.addUser(t, "a@x.com", "p1-password", false, true)
	s := New()
	_, err := f.m.Login(ctx, s, "a@x.com", "p1-password")
	require.NoError(t, err)

	name := "  Ana  "
	res, err := f.m.UpdateProfile(ctx, s, ProfileUpdate{Name: &name, Password: "new-password", PasswordConfirm: "new-password"})
	require.NoError(t, err)
	require.True(t, res.NameUpdated)
	require.True(t, res.PasswordUpdated)
	require.Equal(t, "Ana", res.Principal.DisplayName)

	p, _ := s.Principal()
	require.Equal(t, "Ana", p.DisplayName)
	stored, err := f.profiles.Get(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, "Ana", stored.Name)

	_, err = f.idp.SignIn(ctx, "a@x.com", "new-password")
	require.NoError(t, err)
}

func TestUpdateProfile_PasswordMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.addUser(t, "a@x.com", "p1-password", false, true)
	s := New()
	_, err := f.m.Login(ctx, s, "a@x.com", "p1-password")
	require.NoError(t, err)

	name := "Ana"
	_, err = f.m.UpdateProfile(ctx, s, ProfileUpdate{Name: &name, Password: "new-password", PasswordConfirm: "other-password"})
	require.ErrorIs(t, err, ErrPasswordUpdateFailed)
	require.Equal(t, msgPasswordMismatch, err.Error())

	stored, err := f.profiles.Get(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, "Name a@x.com", stored.Name)
	_, err = f.idp.SignIn(ctx, "a@x.com", "p1-password")
	require.NoError(t, err)
}

func TestUpdateProfile_PasswordFailureKeepsName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.addUser(t, "a@x.com", "p1-password", false, true)
	s := New()
	_, err := f.m.Login(ctx, s, "a@x.com", "p1-password")
	require.NoError(t, err)

	f.idp.FailNext = errors.New("provider timeout")
	name := "Ana"
	res, err := f.m.UpdateProfile(ctx, s, ProfileUpdate{Name: &name, Password: "new-password", PasswordConfirm: "new-password"})
	require.ErrorIs(t, err, ErrPasswordUpdateFailed)
	require.NotNil(t, res)
	require.True(t, res.NameUpdated)
	require.False(t, res.PasswordUpdated)

	p, _ := s.Principal()
	require.Equal(t, "Ana", p.DisplayName)
	stored, err := f.profiles.Get(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, "Ana", stored.Name)
}

func TestUpdateProfile_RequiresSession(t *testing.T) {
	f := newFixture(t)
	name := "x"
	_, err := f.m.UpdateProfile(context.Background(), New(), ProfileUpdate{Name: &name})
	require.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := New()
	p, err := f.m.Register(ctx, s, Registration{Name: " Ana ", Email: "Ana@X.com", Password: "ana-password"})
	require.NoError(t, err)
	require.Equal(t, "ana@x.com", p.Email)
	require.Equal(t, "Ana", p.DisplayName)
	require.False(t, p.IsAdmin)
	require.Equal(t, StateAuthenticated, s.State())

	stored, err := f.profiles.Get(ctx, p.UserID)
	require.NoError(t, err)
	require.False(t, stored.IsAdmin)
	require.True(t, stored.IsActive)

	_, err = f.m.Register(ctx, New(), Registration{Name: "Otra", Email: "ana@x.com", Password: "ana-password"})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.m.Register(ctx, New(), Registration{Name: "", Email: "b@x.com", Password: "b-password"})
	require.ErrorIs(t, err, ErrInvalidInput)

	for _, bad := range []string{"not-an-email", "@x.com", "c@", "c@@x.com", "c d@x.com"} {
		_, err = f.m.Register(ctx, New(), Registration{Name: "C", Email: bad, Password: "c-password"})
		require.ErrorIs(t, err, ErrInvalidInput, bad)
	}
	_, err = f.profiles.GetByEmail(ctx, "not-an-email")
	require.True(t, repository.IsNotFound(err))

	s2 := New()
	_, err = f.m.Register(ctx, s2, Registration{Name: "B", Email: "b@x.com", Password: "short"})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, identity.ErrWeakPassword)
	require.Equal(t, StateAnonymous, s2.State())
}

func TestNewMachine_InsecurePolicy(t *testing.T) {
	idp := memidp.New()
	profiles := memstore.New().Profiles()
	iss, err := secondfactor.NewIssuer(secondfactor.FixedPolicy{Code: "123456"}, nil, &captureNotifier{channel: "console", codes: map[string]string{}})
	require.NoError(t, err)

	_, err = NewMachine(Deps{Identity: idp, Profiles: profiles, Issuer: iss, Secret: testSecret})
	require.ErrorIs(t, err, ErrInsecurePolicy)

	m, err := NewMachine(Deps{Identity: idp, Profiles: profiles, Issuer: iss, Secret: testSecret, AllowInsecurePolicy: true})
	require.NoError(t, err)

	ctx := context.Background()
	ident, err := idp.SignUp(ctx, "admin@x.com", "p2-password")
	require.NoError(t, err)
	prof := repository.NewDefaultProfile(ident.UserID, "admin@x.com", "Admin")
	prof.IsAdmin = true
	require.NoError(t, profiles.Insert(ctx, prof))

	s := New()
	_, err = m.Login(ctx, s, "admin@x.com", "p2-password")
	require.NoError(t, err)
	_, err = m.SubmitSecondFactor(ctx, s, "123456")
	require.NoError(t, err)
	require.True(t, s.IsAdmin())
}

func TestNewMachine_Validation(t *testing.T) {
	iss, err := secondfactor.NewIssuer(secondfactor.GeneratedPolicy{}, nil, nil)
	require.NoError(t, err)

	_, err = NewMachine(Deps{Profiles: memstore.New().Profiles(), Issuer: iss, Secret: testSecret})
	require.Error(t, err)
	_, err = NewMachine(Deps{Identity: memidp.New(), Profiles: memstore.New().Profiles(), Issuer: iss, Secret: []byte("short")})
	require.Error(t, err)
}

func TestRecorderEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "a@x.com", "p1-password", false, true)
	f.addUser(t, "admin@x.com", "p2-password", true, true)

	_, _ = f.m.Login(ctx, New(), "a@x.com", "bad-password")
	s := New()
	_, _ = f.m.Login(ctx, s, "a@x.com", "p1-password")
	_, _ = f.m.RequireAdminSession(ctx, s)
	admin := f.loginAdmin(t, "admin@x.com", "p2-password")
	_, _ = f.m.SubmitSecondFactor(ctx, admin, "not-the-code")

	require.Equal(t, []string{
		"login:" + OutcomeInvalid,
		"login:" + OutcomeAuthenticated,
		"guard:" + GuardAdmin + ":" + ReasonNotAdmin,
		"delivery:email:ok",
		"login:" + OutcomePending,
		"2fa:" + ResultMismatch,
	}, f.rec.events)
}
