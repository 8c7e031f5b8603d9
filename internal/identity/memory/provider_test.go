package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/schooldir/internal/identity"
)

func TestProvider_SignUpSignIn(t *testing.T) {
	ctx := context.Background()
	p := New()

	id, err := p.SignUp(ctx, "  A@X.com ", "password1")
	require.NoError(t, err)
	require.Equal(t, "a@x.com", id.Email)
	require.NotEmpty(t, id.UserID)

	got, err := p.SignIn(ctx, "a@x.com", "password1")
	require.NoError(t, err)
	require.Equal(t, id.UserID, got.UserID)

	_, err = p.SignIn(ctx, "a@x.com", "wrong-password")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
	var ce *identity.CredentialError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "Invalid login credentials", ce.Message)

	_, err = p.SignUp(ctx, "a@x.com", "password2")
	require.ErrorIs(t, err, identity.ErrEmailExists)
}

func TestProvider_AdminUpdatePasswordAndSignOut(t *testing.T) {
	ctx := context.Background()
	p := New()
	id, err := p.SignUp(ctx, "b@x.com", "password1")
	require.NoError(t, err)

	require.ErrorIs(t, p.AdminUpdatePassword(ctx, id.UserID, "short"), identity.ErrWeakPassword)
	require.NoError(t, p.AdminUpdatePassword(ctx, id.UserID, "password2"))

	_, err = p.SignIn(ctx, "b@x.com", "password1")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
	_, err = p.SignIn(ctx, "b@x.com", "password2")
	require.NoError(t, err)

	require.False(t, p.SignedOut(id.UserID))
	require.NoError(t, p.SignOut(ctx, id.UserID))
	require.True(t, p.SignedOut(id.UserID))
	require.ErrorIs(t, p.SignOut(ctx, "missing"), identity.ErrUserNotFound)
}

func TestProvider_FailNext(t *testing.T) {
	p := New()
	boom := errors.New("provider down")
	p.FailNext = boom
	_, err := p.SignIn(context.Background(), "x@x.com", "whatever1")
	require.ErrorIs(t, err, boom)
	// solo una vez
	_, err = p.SignIn(context.Background(), "x@x.com", "whatever1")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestProvider_SessionValid(t *testing.T) {
	ctx := context.Background()
	p := New()
	id, err := p.SignUp(ctx, "c@x.com", "password1")
	require.NoError(t, err)

	before := time.Now().Add(-time.Minute)
	ok, err := p.SessionValid(ctx, id.UserID, before)
	require.NoError(t, err)
	require.True(t, ok, "never signed out")

	require.NoError(t, p.SignOut(ctx, id.UserID))
	ok, err = p.SessionValid(ctx, id.UserID, before)
	require.NoError(t, err)
	require.False(t, ok, "authenticated before the sign out")

	ok, err = p.SessionValid(ctx, id.UserID, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok, "authenticated after the sign out")

	_, err = p.SessionValid(ctx, "missing", before)
	require.ErrorIs(t, err, identity.ErrUserNotFound)
}
