package cli

import (
	"context"
	"fmt"
	"time"

	"finstudent/internal/api"
	"finstudent/internal/cache"
	"finstudent/internal/config"
	"finstudent/internal/currency"
	"finstudent/internal/log"
	"finstudent/internal/resources"
	"finstudent/internal/session"
	"finstudent/internal/storage"
)

// App wires storage, API client, session and preferences for one process.
type App struct {
	Config      *config.Config
	Logger      *log.Logger
	Storage     storage.KeyValueStore
	Client      *api.Client
	Resources   *resources.Clients
	Session     *session.Store
	Preferences *currency.Preferences

	caches *cache.Manager
}

// NewApp builds the application graph over kv. The session is restored
// (and its access token refreshed) before NewApp returns.
func NewApp(ctx context.Context, cfg *config.Config, kv storage.KeyValueStore, logger *log.Logger) (*App, error) {
	client, err := api.NewClient(api.Options{
		BaseURL:   cfg.APIURL,
		Django:    cfg.DjangoBackend,
		Timeout:   cfg.HTTPTimeout,
		Tokens:    session.NewTokens(kv, logger),
		CacheTTL:  cfg.CacheTTL,
		CacheSize: cfg.CacheSize,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}

	res := resources.New(client)
	app := &App{
		Config:      cfg,
		Logger:      logger,
		Storage:     kv,
		Client:      client,
		Resources:   res,
		Session:     session.NewStore(kv, res.Auth, logger),
		Preferences: currency.NewPreferences(kv, logger),
		caches:      cache.NewManager(logger),
	}
	if c := client.Cache(); c != nil {
		app.caches.Register(c)
		app.caches.StartCleanup(cleanupInterval(cfg.CacheTTL))
	}

	if err := app.Session.Init(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return app, nil
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

// Close stops background work and releases the state database.
func (a *App) Close() error {
	a.caches.Stop()
	a.Client.Close()
	return a.Session.Close()
}
