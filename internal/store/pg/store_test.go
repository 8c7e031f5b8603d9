package pg

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/schooldir/internal/domain/repository"
)

// Requiere SCHOOLDIR_TEST_PG_DSN apuntando a una base descartable.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("SCHOOLDIR_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("SCHOOLDIR_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	st, err := Connect(ctx, Config{DSN: dsn, MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(st.Close)

	_, err = st.Migrate(ctx)
	require.NoError(t, err)
	return st
}

func TestLikePattern(t *testing.T) {
	require.Equal(t, "%abc%", likePattern("  ABC "))
	require.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}

func TestMigrate_Idempotent(t *testing.T) {
	st := openTestStore(t)
	n, err := st.Migrate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestProfiles_RoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	repo := st.Profiles()

	id := uuid.NewString()
	email := id[:8] + "@example.com"
	require.NoError(t, repo.Insert(ctx, repository.NewDefaultProfile(id, email, "Ana")))
	require.ErrorIs(t, repo.Insert(ctx, repository.NewDefaultProfile(id, email, "Ana")), repository.ErrConflict)

	got, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, id, got.UserID)
	require.True(t, got.IsActive)
	require.False(t, got.IsAdmin)

	inactive := false
	require.NoError(t, repo.Update(ctx, id, repository.ProfileUpdate{IsActive: &inactive}))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	_, err = repo.Get(ctx, uuid.NewString())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSchoolsAndFavorites(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	userID := uuid.NewString()
	require.NoError(t, st.Profiles().Insert(ctx, repository.NewDefaultProfile(userID, userID[:8]+"@example.com", "")))

	s, err := st.Schools().Create(ctx, repository.SchoolInput{Name: "Escuela Norte", City: "Rosario"})
	require.NoError(t, err)

	favs := st.Favorites()
	require.NoError(t, favs.Add(ctx, userID, s.ID))
	require.NoError(t, favs.Add(ctx, userID, s.ID))
	list, err := favs.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.ErrorIs(t, favs.Add(ctx, userID, uuid.NewString()), repository.ErrNotFound)

	require.NoError(t, st.Schools().Delete(ctx, s.ID))
	list, err = favs.List(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, list)
}
