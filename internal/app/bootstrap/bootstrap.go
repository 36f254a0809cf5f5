package bootstrap

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lorekeeper/app/internal/data/database"
	dataguild "lorekeeper/app/internal/data/guild"
	"lorekeeper/app/internal/data/migrations"
	datawiki "lorekeeper/app/internal/data/wiki"
	domainwiki "lorekeeper/app/internal/domain/wiki"
	"lorekeeper/app/internal/infrastructure/fandom"
	"lorekeeper/app/internal/platform/config"
	presentationhttp "lorekeeper/app/internal/presentation/http"
)

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	WikiService   domainwiki.Service
	Store         *domainwiki.Store
	Fetcher       *fandom.Fetcher
	GuildSettings *dataguild.Repository
	HTTPServer    *presentationhttp.Server
	Database      *gorm.DB
	Cleanup       func() error
}

// Build composes the Lorekeeper application layers and returns the constructed components.
// The wiki document is loaded from the configured backend before Build returns.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	cfg := deps.Config

	db, err := database.Open(database.Options{Path: cfg.DBPath, Logger: deps.Logger})
	if err != nil {
		return Result{}, eris.Wrap(err, "opening database")
	}

	var httpServer *presentationhttp.Server
	cleanup := func() error {
		if httpServer != nil {
			httpServer.Close()
		}
		return database.Close(db)
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := cleanup(); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return Result{}, wrapper
	}

	if err := migrations.Migrate(ctx, db, deps.Logger); err != nil {
		return closeOnError(eris.Wrap(err, "running migrations"))
	}

	persister, err := newPersister(cfg, db, deps.Logger)
	if err != nil {
		return closeOnError(err)
	}

	store, err := domainwiki.NewStore(persister, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating wiki store"))
	}
	if err := store.Load(ctx); err != nil {
		return closeOnError(eris.Wrap(err, "loading wiki document"))
	}

	guildSettings, err := dataguild.NewRepository(db, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating guild settings repository"))
	}

	fetcher, err := fandom.NewFetcher(fandom.Options{
		BaseURL:     cfg.Fetch.BaseURL,
		Timeout:     cfg.Fetch.Timeout,
		MaxAttempts: cfg.Fetch.MaxAttempts,
		Logger:      deps.Logger,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating fandom fetcher"))
	}

	wikiService, err := domainwiki.NewService(domainwiki.ServiceOptions{
		Store:             store,
		Fetcher:           fetcher,
		Logger:            deps.Logger,
		SentryHub:         deps.SentryHub,
		StrictPersistence: cfg.StrictPersistence,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating wiki service"))
	}

	httpServer, err = presentationhttp.NewServer(presentationhttp.Options{
		WikiService:   wikiService,
		GuildSettings: guildSettings,
		Database:      db,
		Logger:        deps.Logger,
		SentryHub:     deps.SentryHub,
		RateLimiter: presentationhttp.RateLimiterSettings{
			Burst:             cfg.RateLimit.Burst,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			ClientTTL:         cfg.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	if deps.Logger != nil {
		deps.Logger.WithFields(logrus.Fields{
			"backend": cfg.WikiBackend,
			"fandom":  cfg.Fetch.BaseURL,
			"strict":  cfg.StrictPersistence,
		}).Info("application components built")
	}

	return Result{
		WikiService:   wikiService,
		Store:         store,
		Fetcher:       fetcher,
		GuildSettings: guildSettings,
		HTTPServer:    httpServer,
		Database:      db,
		Cleanup:       cleanup,
	}, nil
}

func newPersister(cfg config.Config, db *gorm.DB, logger *logrus.Logger) (domainwiki.Persister, error) {
	switch cfg.WikiBackend {
	case config.BackendJSON:
		persister, err := datawiki.NewFilePersister(cfg.WikiFile, logger)
		if err != nil {
			return nil, eris.Wrap(err, "creating wiki file persister")
		}
		return persister, nil
	case config.BackendSQLite, "":
		persister, err := datawiki.NewGormPersister(db, logger)
		if err != nil {
			return nil, eris.Wrap(err, "creating wiki gorm persister")
		}
		return persister, nil
	default:
		return nil, eris.Errorf("unsupported wiki backend: %s", cfg.WikiBackend)
	}
}
