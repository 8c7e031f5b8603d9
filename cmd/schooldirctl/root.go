package main

import (
	"context"
	"errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/schooldir/internal/accounts"
	"github.com/dropDatabas3/schooldir/internal/app"
	"github.com/dropDatabas3/schooldir/internal/config"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	"github.com/dropDatabas3/schooldir/internal/schools"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "schooldirctl",
		Short:         "Operational tasks for the school directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config YAML (env vars override it)")

	root.AddCommand(
		newMigrateCmd(opts),
		newAdminCmd(opts),
		newUsersCmd(opts),
		newSchoolsCmd(opts),
	)
	return root
}

// env es lo que necesita cada subcomando: backend abierto y servicios.
type env struct {
	backend  *app.Backend
	accounts *accounts.Service
	schools  *schools.Service
}

func (o *rootOptions) open(ctx context.Context) (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "schooldirctl"})

	if cfg.Storage.Driver != "postgres" {
		return nil, errors.New("schooldirctl needs storage.driver=postgres (memory data lives only inside the server)")
	}
	// solo el subcomando migrate toca el esquema
	cfg.Storage.Migrate = false
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b, err := app.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &env{
		backend:  b,
		accounts: accounts.NewService(b.Identity, b.Profiles),
		schools:  schools.NewService(b.Schools, b.Favorites),
	}, nil
}

func (e *env) Close() { e.backend.Close() }
