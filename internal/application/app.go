// Package application wires configuration, storage, events and the ledger
// service together for the server and the CLI.
package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/JonMunkholm/payables/internal/config"
	"github.com/JonMunkholm/payables/internal/core"
	"github.com/JonMunkholm/payables/internal/events/kafka"
	"github.com/JonMunkholm/payables/internal/store"
)

// App holds the long-lived components built from a Config.
type App struct {
	Config  *config.Config
	Repo    store.Repository
	Service *core.Service

	publisher *kafka.Publisher
}

// New opens the repository, the optional Kafka publisher and the service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	repo, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Repo: repo}

	var events core.EventPublisher
	if cfg.Events.Enabled {
		app.publisher = kafka.NewPublisher(cfg.Events)
		events = app.publisher
		slog.Info("event publishing enabled", "brokers", cfg.Events.Brokers, "topic", cfg.Events.Topic)
	}

	app.Service = core.NewService(repo, events, core.Options{
		ValidateOnImport:     cfg.Upload.ValidateOnImport,
		MaxConcurrentImports: cfg.Upload.MaxConcurrent,
		ImportWait:           cfg.Upload.MaxWaitTime,
	})
	return app, nil
}

// Close flushes the publisher and closes the repository.
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	errs = append(errs, a.Repo.Close())
	return errors.Join(errs...)
}
