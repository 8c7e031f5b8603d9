package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/schooldir/internal/domain/repository"
)

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	st := New()
	repo := st.Profiles()

	require.NoError(t, repo.Insert(ctx, repository.NewDefaultProfile("u1", "Ana@Example.com", "Ana")))
	require.ErrorIs(t, repo.Insert(ctx, repository.NewDefaultProfile("u2", "ana@example.com", "")), repository.ErrConflict)
	require.ErrorIs(t, repo.Insert(ctx, repository.NewDefaultProfile("u1", "otro@example.com", "")), repository.ErrConflict)

	p, err := repo.GetByEmail(ctx, " ANA@example.com ")
	require.NoError(t, err)
	require.Equal(t, "u1", p.UserID)
	require.True(t, p.IsActive)

	name := "Ana María"
	require.NoError(t, repo.Update(ctx, "u1", repository.ProfileUpdate{Name: &name}))
	p, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Ana María", p.Name)

	require.ErrorIs(t, repo.Update(ctx, "nope", repository.ProfileUpdate{Name: &name}), repository.ErrNotFound)
	_, err = repo.Get(ctx, "nope")
	require.True(t, repository.IsNotFound(err))
}

func TestProfiles_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		p := repository.NewDefaultProfile(id, id+"@example.com", "")
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, st.Profiles().Insert(ctx, p))
	}

	out, err := st.Profiles().List(ctx, repository.ListProfilesFilter{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, "c", out[0].UserID)
	require.Equal(t, "a", out[2].UserID)

	out, err = st.Profiles().List(ctx, repository.ListProfilesFilter{Search: "B@"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	out, err = st.Profiles().List(ctx, repository.ListProfilesFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestSchools_FavoritesCascade(t *testing.T) {
	ctx := context.Background()
	st := New()
	require.NoError(t, st.Profiles().Insert(ctx, repository.NewDefaultProfile("u1", "u1@example.com", "")))

	north, err := st.Schools().Create(ctx, repository.SchoolInput{Name: "Norte", Region: "A"})
	require.NoError(t, err)
	south, err := st.Schools().Create(ctx, repository.SchoolInput{Name: "Sur", Region: "B"})
	require.NoError(t, err)

	list, err := st.Schools().List(ctx, repository.ListSchoolsFilter{Region: "B"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, south.ID, list[0].ID)

	favs := st.Favorites()
	require.NoError(t, favs.Add(ctx, "u1", north.ID))
	require.NoError(t, favs.Add(ctx, "u1", south.ID))
	require.NoError(t, favs.Add(ctx, "u1", north.ID))
	require.ErrorIs(t, favs.Add(ctx, "u1", "missing"), repository.ErrNotFound)

	got, err := favs.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, south.ID, got[0].ID)

	require.NoError(t, st.Schools().Delete(ctx, south.ID))
	got, err = favs.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, favs.Remove(ctx, "u1", north.ID))
	require.NoError(t, favs.Remove(ctx, "u1", north.ID))
	got, err = favs.List(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, got)

	require.ErrorIs(t, st.Schools().Delete(ctx, south.ID), repository.ErrNotFound)
}
