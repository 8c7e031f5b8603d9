package app

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/schooldir/internal/config"
	"github.com/dropDatabas3/schooldir/internal/domain/repository"
	"github.com/dropDatabas3/schooldir/internal/identity"
	idpmem "github.com/dropDatabas3/schooldir/internal/identity/memory"
	idppg "github.com/dropDatabas3/schooldir/internal/identity/pg"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	"github.com/dropDatabas3/schooldir/internal/store/memory"
	"github.com/dropDatabas3/schooldir/internal/store/pg"
)

// Backend agrupa el Profile Store, las escuelas y el identity provider según
// storage.driver. Lo comparten el servidor y schooldirctl.
type Backend struct {
	Profiles  repository.ProfileRepository
	Schools   repository.SchoolRepository
	Favorites repository.FavoriteRepository
	Identity  identity.Provider

	// PG es nil con el driver memory.
	PG *pg.Store
}

// OpenBackend conecta el storage. Con storage.migrate aplica las migraciones.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	log := logger.From(ctx).With(logger.Component("app"), logger.Op("OpenBackend"))

	switch cfg.Storage.Driver {
	case "memory":
		st := memory.New()
		log.Warn("using in-memory storage, data is lost on restart")
		return &Backend{
			Profiles:  st.Profiles(),
			Schools:   st.Schools(),
			Favorites: st.Favorites(),
			Identity:  idpmem.New(),
		}, nil

	case "postgres":
		st, err := pg.Connect(ctx, pg.Config{
			DSN:             cfg.Storage.DSN,
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: config.Duration(cfg.Storage.Postgres.ConnMaxLifetime),
		})
		if err != nil {
			return nil, err
		}
		if cfg.Storage.Migrate {
			n, err := st.Migrate(ctx)
			if err != nil {
				st.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied", logger.Int("count", n))
		}
		return &Backend{
			Profiles:  st.Profiles(),
			Schools:   st.Schools(),
			Favorites: st.Favorites(),
			Identity:  idppg.New(st.Pool(), cfg.Storage.Postgres.BcryptCost),
			PG:        st,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// Ping implementa health.Checker.
func (b *Backend) Ping(ctx context.Context) error {
	if b.PG == nil {
		return nil
	}
	return b.PG.Ping(ctx)
}

func (b *Backend) Close() {
	if b.PG != nil {
		b.PG.Close()
	}
}
