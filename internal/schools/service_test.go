package schools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/schooldir/internal/domain/repository"
	"github.com/dropDatabas3/schooldir/internal/store/memory"
)

func newService() (*Service, *memory.Store) {
	st := memory.New()
	return NewService(st.Schools(), st.Favorites()), st
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.Create(ctx, "admin", repository.SchoolInput{Name: "   "})
	require.ErrorIs(t, err, ErrInvalidInput)

	for _, site := range []string{"escuela.edu", "ftp://escuela.edu", "https://", "/relative"} {
		_, err := svc.Create(ctx, "admin", repository.SchoolInput{Name: "E", Website: site})
		require.ErrorIs(t, err, ErrInvalidInput, site)
	}

	sc, err := svc.Create(ctx, "admin", repository.SchoolInput{Name: " Escuela 1 ", Kind: "PUBLIC", Website: "https://e1.edu"})
	require.NoError(t, err)
	require.Equal(t, "Escuela 1", sc.Name)
	require.Equal(t, "public", sc.Kind)
}

func TestUpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	sc, err := svc.Create(ctx, "admin", repository.SchoolInput{Name: "A"})
	require.NoError(t, err)

	up, err := svc.Update(ctx, "admin", sc.ID, repository.SchoolInput{Name: "B", City: "Córdoba"})
	require.NoError(t, err)
	require.Equal(t, "B", up.Name)

	_, err = svc.Update(ctx, "admin", "missing", repository.SchoolInput{Name: "B"})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "admin", sc.ID))
	require.ErrorIs(t, svc.Delete(ctx, "admin", sc.ID), ErrNotFound)
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	svc, st := newService()
	require.NoError(t, st.Profiles().Insert(ctx, repository.NewDefaultProfile("u1", "u1@x.com", "U1")))

	a, err := svc.Create(ctx, "admin", repository.SchoolInput{Name: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, "admin", repository.SchoolInput{Name: "B"})
	require.NoError(t, err)

	require.NoError(t, svc.AddFavorite(ctx, "u1", a.ID))
	require.NoError(t, svc.AddFavorite(ctx, "u1", b.ID))
	require.NoError(t, svc.AddFavorite(ctx, "u1", a.ID)) // idempotente
	require.ErrorIs(t, svc.AddFavorite(ctx, "u1", "missing"), ErrNotFound)

	favs, err := svc.ListFavorites(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, favs, 2)
	require.Equal(t, b.ID, favs[0].ID)

	require.NoError(t, svc.RemoveFavorite(ctx, "u1", b.ID))
	require.NoError(t, svc.RemoveFavorite(ctx, "u1", b.ID))

	// borrar la escuela borra el favorito
	require.NoError(t, svc.Delete(ctx, "admin", a.ID))
	favs, err = svc.ListFavorites(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, favs)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	in, err := ParseImport(strings.NewReader(`
schools:
  - name: Escuela Normal
    city: Paraná
    region: Entre Ríos
    kind: public
    website: https://normal.edu.ar
  - name: Colegio Nacional
    city: Rosario
`))
	require.NoError(t, err)
	require.Len(t, in, 2)

	n, err := svc.Import(ctx, "cli", in)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	list, err := svc.List(ctx, repository.ListSchoolsFilter{Search: "rosario"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Colegio Nacional", list[0].Name)

	// una inválida: no se crea ninguna
	n, err = svc.Import(ctx, "cli", []repository.SchoolInput{{Name: "Ok"}, {Name: ""}})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Zero(t, n)
	all, err := svc.List(ctx, repository.ListSchoolsFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestParseImport_UnknownField(t *testing.T) {
	_, err := ParseImport(strings.NewReader("schools:\n  - name: A\n    colour: red\n"))
	require.Error(t, err)
}
