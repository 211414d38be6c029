package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	config "github.com/phillip/chama-tracker-go/config"
	"github.com/phillip/chama-tracker-go/logger"
	notify "github.com/phillip/chama-tracker-go/notify"
	services "github.com/phillip/chama-tracker-go/services"
	store "github.com/phillip/chama-tracker-go/store"
)

// App holds everything built from the configuration.
type App struct {
	Config *config.Config
	Log    *slog.Logger
	Store  store.Store
	Ledger *services.Ledger

	closers []func(context.Context) error
}

func Run(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		return &App{Config: cfg, Log: log}, err
	}

	app := &App{Config: cfg, Log: log}

	s, err := NewStore(ctx, cfg)
	if err != nil {
		return app, err
	}
	app.Store = s
	if c, ok := s.(interface{ Close(context.Context) error }); ok {
		app.closers = append(app.closers, c.Close)
	}

	notifiers := notify.Multi{}
	if cfg.AMQPURL != "" {
		a, err := notify.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			app.Close(ctx)
			return app, err
		}
		notifiers = append(notifiers, a)
		app.closers = append(app.closers, func(context.Context) error { return a.Close() })
		log.Info("AMQP notifications enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}
	if cfg.EmailEnabled() {
		notifiers = append(notifiers, &notify.Email{
			APIURL: cfg.ZeptoAPIURL,
			APIKey: cfg.ZeptoAPIKey,
			From:   cfg.EmailFrom,
			To:     cfg.NotifyEmailTo,
			ToName: cfg.EmailToName,
			Client: &http.Client{Timeout: 10 * time.Second},
		})
		log.Info("email notifications enabled", "to", cfg.NotifyEmailTo)
	}

	app.Ledger = services.NewLedger(s,
		services.WithNotifier(notifiers),
		services.WithTimeout(cfg.StoreTimeout),
	)
	log.Info("storage ready", "backend", s.Name())
	return app, nil
}

// NewStore builds the backend named by cfg.Backend.
func NewStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return store.NewFile(cfg.DataFile)
	case config.BackendCloudinary:
		return store.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryPublicID)
	case config.BackendGitHub:
		return store.NewGitHub(store.GitHubOptions{
			Token:  cfg.GitHubToken,
			Owner:  cfg.GitHubOwner,
			Repo:   cfg.GitHubRepo,
			Path:   cfg.GitHubPath,
			Branch: cfg.GitHubBranch,
		}), nil
	case config.BackendMongo:
		ctx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
		return store.NewMongo(ctx, store.MongoOptions{
			URI:        cfg.MongoURI,
			Database:   cfg.DBName,
			Collection: cfg.MongoCollection,
			DocumentID: cfg.DocumentID,
		})
	case config.BackendSQLite:
		return store.NewSQLite(cfg.SQLitePath, cfg.DocumentID)
	case config.BackendMemory:
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Close flushes pending notifications, then releases backend and broker connections.
func (a *App) Close(ctx context.Context) error {
	if a.Ledger != nil {
		a.Ledger.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
