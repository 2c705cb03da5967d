// internal/app/app.go
//
// Component wiring shared by cmd/web and cmd/maillogctl.
//
// Context
// -------
// Build turns a validated Config into the running object graph:
//
//	database ─▶ logstore ─┬─▶ capture ─(hook)─▶ mailer ─▶ tester
//	                      ├─▶ retention
//	                      └─▶ logquery ─▶ api
//
// Nothing here starts goroutines or listens; callers decide which parts to
// run.  Close releases the database pool.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/maillog/internal/api"
	"github.com/yanizio/maillog/internal/capture"
	"github.com/yanizio/maillog/internal/config"
	"github.com/yanizio/maillog/internal/database"
	"github.com/yanizio/maillog/internal/logquery"
	"github.com/yanizio/maillog/internal/logstore"
	"github.com/yanizio/maillog/internal/mailer"
	"github.com/yanizio/maillog/internal/retention"
	"github.com/yanizio/maillog/internal/tester"
	"github.com/yanizio/maillog/internal/vault"
)

// Version is stamped at build time with -ldflags "-X ...app.Version=...".
var Version = "dev"

// App holds the wired components.
type App struct {
	Config   *config.Config
	DB       *sqlx.DB
	Store    *logstore.Store
	Capturer *capture.Capturer
	Mailer   *mailer.Mailer
	Tester   *tester.Sender
	Sweeper  *retention.Sweeper
	Queries  *logquery.Service
	Log      *zap.SugaredLogger
}

// Option customises Build.
type Option func(*options)

type options struct {
	dialer mailer.Dialer
}

// WithDialer replaces the SMTP dialer.  Tests use it.
func WithDialer(d mailer.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// LoadConfig loads configuration, resolving vault: references through a
// Vault client when VAULT_ADDR is set.
func LoadConfig(ctx context.Context) (*config.Config, error) {
	var sr config.SecretResolver
	if os.Getenv("VAULT_ADDR") != "" {
		cli, err := vault.New(ctx, zap.S())
		if err != nil {
			return nil, err
		}
		sr = cli
	}
	return config.Load(ctx, sr)
}

// Build opens the database and wires every component.  The schema must
// already be migrated.
func Build(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, opts ...Option) (*App, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if log == nil {
		log = zap.S()
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	store := logstore.New(db)

	capt := capture.New(store,
		capture.WithLogger(log.Named("capture")),
		capture.WithTimeout(cfg.Capture.Timeout),
		capture.WithSwitch(func() bool { return live(cfg).Settings.Enabled }),
	)

	m := mailer.New(cfg.Mail, o.dialer, log.Named("mailer"))
	m.Use(capt.Hook())

	a := &App{
		Config:   cfg,
		DB:       db,
		Store:    store,
		Capturer: capt,
		Mailer:   m,
		Tester:   tester.New(m, tester.Site{Name: cfg.Site.Name, URL: cfg.Site.URL}, log.Named("tester")),
		Sweeper:  retention.New(store, cfg.Retention.Days, cfg.Retention.Interval, log.Named("retention")),
		Queries:  logquery.New(store),
		Log:      log,
	}
	log.Infow("components wired", "driver", cfg.Database.Driver, "version", Version)
	return a, nil
}

// Handler returns the HTTP API for a.
func (a *App) Handler() *api.Handler {
	return &api.Handler{
		Queries:    a.Queries,
		Tester:     a.Tester,
		Settings:   func() config.Settings { return live(a.Config).Settings },
		Version:    Version,
		ForceHTTPS: a.Config.HTTP.ForceHTTPS,
		Log:        a.Log.Named("http"),
	}
}

// Close releases the database pool.
func (a *App) Close() error {
	return a.DB.Close()
}

// live prefers the cached config so Reload() reaches running components.
func live(fallback *config.Config) *config.Config {
	if c := config.Get(); c != nil {
		return c
	}
	return fallback
}
