// Package app arma el servidor a partir de la configuración: storage, cache,
// sesiones, segundo factor, métricas y router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/schooldir/internal/accounts"
	"github.com/dropDatabas3/schooldir/internal/cache"
	"github.com/dropDatabas3/schooldir/internal/config"
	"github.com/dropDatabas3/schooldir/internal/email"
	adminctrl "github.com/dropDatabas3/schooldir/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/schooldir/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/schooldir/internal/http/controllers/health"
	schoolsctrl "github.com/dropDatabas3/schooldir/internal/http/controllers/schools"
	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	mw "github.com/dropDatabas3/schooldir/internal/http/middlewares"
	"github.com/dropDatabas3/schooldir/internal/http/router"
	"github.com/dropDatabas3/schooldir/internal/metrics"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	"github.com/dropDatabas3/schooldir/internal/rate"
	"github.com/dropDatabas3/schooldir/internal/schools"
	"github.com/dropDatabas3/schooldir/internal/secondfactor"
	"github.com/dropDatabas3/schooldir/internal/session"
)

// Options permite reemplazar piezas (tests).
type Options struct {
	// Registry de Prometheus. nil = registry global.
	Registry *prometheus.Registry

	// Notifier reemplaza al EmailNotifier como canal primario del código.
	Notifier secondfactor.Notifier

	// Backend ya abierto; nil = OpenBackend(cfg). Si viene de afuera, Close
	// no lo cierra.
	Backend *Backend

	Version string
}

// App es el servidor armado.
type App struct {
	Config  *config.Config
	Handler http.Handler
	Machine *session.Machine
	Backend *Backend
	Cache   cache.Client

	ownsBackend bool
}

// New arma la aplicación. cfg tiene que haber pasado Validate.
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	log := logger.From(ctx).With(logger.Component("app"))
	a := &App{Config: cfg, Backend: opts.Backend}

	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if a.Backend == nil {
		if a.Backend, err = OpenBackend(ctx, cfg); err != nil {
			return nil, err
		}
		a.ownsBackend = true
	}

	a.Cache, err = cache.New(ctx, cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	store, err := newSessionStore(cfg, a.Cache)
	if err != nil {
		return nil, err
	}

	issuer, err := newIssuer(cfg, opts.Notifier)
	if err != nil {
		return nil, err
	}

	mcfg := metrics.Config{Registry: opts.Registry}
	if a.Backend.PG != nil {
		pgStore := a.Backend.PG
		mcfg.Pool = func() *pgxpool.Pool { return pgStore.Pool() }
	}
	m, err := metrics.New(mcfg)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	a.Machine, err = session.NewMachine(session.Deps{
		Identity:            a.Backend.Identity,
		Profiles:            a.Backend.Profiles,
		Issuer:              issuer,
		Secret:              []byte(cfg.Session.Secret),
		Recorder:            m,
		AllowInsecurePolicy: cfg.SecondFactor.AllowInsecure,
	})
	if err != nil {
		return nil, err
	}

	sessions := &helpers.Sessions{
		Store: store,
		Cookie: helpers.CookieConfig{
			Name:     cfg.Session.Cookie.Name,
			Domain:   cfg.Session.Cookie.Domain,
			SameSite: cfg.Session.Cookie.SameSite,
			Secure:   cfg.Session.Cookie.Secure,
			TTL:      config.Duration(cfg.Session.TTL),
		},
	}

	accountsSvc := accounts.NewService(a.Backend.Identity, a.Backend.Profiles)
	schoolsSvc := schools.NewService(a.Backend.Schools, a.Backend.Favorites)

	proxies, err := mw.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("server.trusted_proxies: %w", err)
	}

	a.Handler = router.New(router.Deps{
		Auth:    authctrl.NewControllers(a.Machine, sessions),
		Schools: schoolsctrl.NewController(schoolsSvc, a.Machine, sessions),
		Admin:   adminctrl.NewControllers(accountsSvc, schoolsSvc, a.Machine, sessions),
		Health: healthctrl.NewController(opts.Version, map[string]healthctrl.Checker{
			"storage": a.Backend,
			"cache":   a.Cache,
		}),
		Metrics: m,
		Limits:  newLimits(cfg, a.Cache),

		Sessions:       sessions,
		TrustedProxies: proxies,
	})

	log.Info("app ready",
		logger.String("storage", cfg.Storage.Driver),
		logger.String("cache", cfg.Cache.Kind),
		logger.String("session_store", cfg.Session.Store),
		logger.String("second_factor", cfg.SecondFactor.Policy),
		logger.Bool("rate_limit", cfg.Rate.Enabled),
	)
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.ownsBackend && a.Backend != nil {
		a.Backend.Close()
	}
	return errors.Join(errs...)
}

func newSessionStore(cfg *config.Config, c cache.Client) (session.Store, error) {
	ttl := config.Duration(cfg.Session.TTL)
	switch cfg.Session.Store {
	case "cookie":
		return session.NewCookieStore([]byte(cfg.Session.Secret), ttl)
	case "cache":
		return session.NewCacheStore(c, ttl), nil
	}
	return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
}

func newIssuer(cfg *config.Config, primary secondfactor.Notifier) (*secondfactor.Issuer, error) {
	var policy secondfactor.Policy
	switch cfg.SecondFactor.Policy {
	case "fixed":
		policy = secondfactor.FixedPolicy{Code: cfg.SecondFactor.FixedCode}
	default:
		policy = secondfactor.GeneratedPolicy{Length: cfg.SecondFactor.CodeLength}
	}

	if primary == nil {
		smtp := email.SMTPConfig{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			From:               cfg.SMTP.From,
			Username:           cfg.SMTP.Username,
			Password:           cfg.SMTP.Password,
			TLSMode:            cfg.SMTP.TLS,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		}
		if smtp.Configured() {
			primary = &secondfactor.EmailNotifier{
				Sender:  email.NewSMTPSender(smtp),
				AppName: cfg.Email.AppName,
				Subject: cfg.Email.Subject,
			}
		} else {
			logger.L().Warn("smtp not configured, second factor codes go to the log only",
				logger.Component("app"))
		}
	}
	return secondfactor.NewIssuer(policy, primary, &secondfactor.ConsoleNotifier{Logger: logger.L()})
}

// newLimits arma los limiters de login, segundo factor y registro. Con cache
// redis se comparten entre réplicas; si no, son por proceso. El bucket va en
// la key (ver middlewares.WithRateLimit).
func newLimits(cfg *config.Config, c cache.Client) router.Limits {
	if !cfg.Rate.Enabled {
		return router.Limits{}
	}
	build := func(rl config.RateLimit) rate.Limiter {
		rule := rate.Rule{Max: rl.Limit, Window: config.Duration(rl.Window)}
		if rdb, ok := cache.Redis(c); ok {
			return rate.NewRedisLimiter(rdb, cfg.Cache.Redis.Prefix+"rl:", rule)
		}
		return rate.NewMemoryLimiter(rule)
	}
	return router.Limits{
		Login:        build(cfg.Rate.Login),
		SecondFactor: build(cfg.Rate.SecondFactor),
		Register:     build(cfg.Rate.Register),
	}
}
