// Package app wires configuration, storage and services into one value
// shared by the CLI commands and the local bridge.
package app

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/kolp/internal/config"
	"github.com/dmitrijs2005/kolp/internal/credentials"
	"github.com/dmitrijs2005/kolp/internal/events"
	"github.com/dmitrijs2005/kolp/internal/filex"
	"github.com/dmitrijs2005/kolp/internal/logging"
	"github.com/dmitrijs2005/kolp/internal/oauth"
	"github.com/dmitrijs2005/kolp/internal/remote"
	"github.com/dmitrijs2005/kolp/internal/repositories/history"
	"github.com/dmitrijs2005/kolp/internal/services"
)

type App struct {
	Config  *config.Config
	Logger  logging.Logger
	Bus     *events.Bus
	Store   *credentials.Store
	Journal *history.Journal
	Auth    services.AuthService
	Backup  services.BackupService
}

// New builds the application. browser opens the consent page; nil means
// the system browser.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, browser oauth.BrowserOpener) (*App, error) {
	if browser == nil {
		browser = oauth.SystemBrowser{}
	}
	if _, err := filex.EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	db, err := history.Open(ctx, cfg.JournalPath())
	if err != nil {
		return nil, fmt.Errorf("journal init error: %w", err)
	}
	journal := history.NewJournal(db, cfg.JournalRetention)

	bus := events.NewBus()
	store := credentials.NewStore(cfg.AuthDir(), logger)

	flow := oauth.NewFlow(cfg, store, oauth.GoogleIdentity{Endpoint: cfg.APIEndpoint}, browser, logger,
		oauth.WithStateHook(services.AuthStateHook(bus)))
	refresher := oauth.NewRefresher(cfg, store, logger)
	drive := remote.NewClient(cfg.APIEndpoint, nil, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Bus:     bus,
		Store:   store,
		Journal: journal,
		Auth:    services.NewAuthService(flow, store, journal, bus, logger),
		Backup:  services.NewBackupService(cfg.BackupDir(), refresher, drive, journal, bus, logger),
	}, nil
}

func (a *App) Close() error {
	if a.Journal == nil {
		return nil
	}
	if err := a.Journal.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}
