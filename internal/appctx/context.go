// Package appctx wires the application's components together and carries the
// bundle through the cobra command context.
package appctx

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ajopay/ajo-cli/internal/api"
	"github.com/ajopay/ajo-cli/internal/apierr"
	"github.com/ajopay/ajo-cli/internal/auth"
	"github.com/ajopay/ajo-cli/internal/cache"
	"github.com/ajopay/ajo-cli/internal/config"
	"github.com/ajopay/ajo-cli/internal/kv"
	"github.com/ajopay/ajo-cli/internal/netmon"
	"github.com/ajopay/ajo-cli/internal/offline"
	"github.com/ajopay/ajo-cli/internal/output"
	"github.com/ajopay/ajo-cli/internal/services"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	JSON     bool
	Quiet    bool
	BaseURL  string
	CacheDir string
	NoCache  bool
	Offline  bool
	Verbose  int
}

// App holds the shared application context for all commands.
type App struct {
	Config   *config.Config
	Session  *auth.Session
	Store    *auth.Store
	Tokens   *auth.TokenManager
	Cache    *cache.Cache
	Queue    *offline.Queue
	Monitor  *netmon.Monitor
	Client   *api.Client
	Services *services.Services
	Output   *output.Writer
	ErrLog   *apierr.Log
	Logger   *slog.Logger

	Flags GlobalFlags
}

// NewApp builds the full component graph from configuration.
func NewApp(cfg *config.Config, flags GlobalFlags) *App {
	level := slog.LevelWarn
	switch {
	case flags.Verbose >= 2:
		level = slog.LevelDebug
	case flags.Verbose == 1:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	httpClient := &http.Client{Timeout: 30 * time.Second}

	store := auth.NewStore(config.GlobalConfigDir())
	session := auth.NewSession()
	session.Restore(store)

	tokens := auth.NewTokenManager(cfg.BaseURL, store, session, httpClient)
	responseCache := cache.New(kv.New(cfg.CacheDir))
	monitor := netmon.New(cfg.BaseURL+cfg.HealthPath, cfg.ProbeInterval.Duration(), nil)
	errlog := apierr.NewLog(0)
	queue := offline.NewQueue(offline.NewStore(cfg.CacheDir), monitor, errlog, logger)

	client := api.NewClient(api.Options{
		Config:     cfg,
		Session:    session,
		Tokens:     tokens,
		Cache:      responseCache,
		Queue:      queue,
		Monitor:    monitor,
		ErrLog:     errlog,
		Logger:     logger,
		HTTPClient: httpClient,
	})
	queue.SetReplayer(client)

	svcs := services.New(client)
	svcs.Auth.Bind(session, store)

	format := resolveFormat(cfg, flags)

	if flags.Offline {
		monitor.SetOnline(false)
	}

	return &App{
		Config:   cfg,
		Session:  session,
		Store:    store,
		Tokens:   tokens,
		Cache:    responseCache,
		Queue:    queue,
		Monitor:  monitor,
		Client:   client,
		Services: svcs,
		Output:   output.New(format, os.Stdout),
		ErrLog:   errlog,
		Logger:   logger,
		Flags:    flags,
	}
}

// resolveFormat picks the output format. The config default applies first
// ("quiet" strips the envelope, "auto" and "json" keep it), then flags
// override, with --quiet winning over --json when both are set.
func resolveFormat(cfg *config.Config, flags GlobalFlags) output.Format {
	format := output.FormatJSON
	if cfg.Format == "quiet" {
		format = output.FormatQuiet
	}
	if flags.JSON {
		format = output.FormatJSON
	}
	if flags.Quiet {
		format = output.FormatQuiet
	}
	return format
}

// Initialize performs the startup work that touches disk and network: loads
// the persisted queue, subscribes replay to connectivity transitions, and
// probes connectivity once (skipped in forced-offline mode).
func (a *App) Initialize(ctx context.Context) error {
	if err := a.Queue.Initialize(ctx); err != nil {
		return err
	}
	if !a.Flags.Offline {
		a.Monitor.Probe(ctx)
	}
	return nil
}

// WithApp stores the app in a context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from a context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
