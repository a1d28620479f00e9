package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ardiansyahn/crm-backoffice/internal"
	"github.com/ardiansyahn/crm-backoffice/internal/core/events"
	"github.com/ardiansyahn/crm-backoffice/internal/datacache"
	"github.com/ardiansyahn/crm-backoffice/internal/gateway"
	"github.com/ardiansyahn/crm-backoffice/internal/session"
	"github.com/ardiansyahn/crm-backoffice/internal/storage"
	"github.com/ardiansyahn/crm-backoffice/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "crm-backoffice",
	Short: "CRM Back Office",
	Long:  `Command line client for the CRM backend: leads, tasks, projects and staff workflows.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("CRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", "http://localhost:8000/api")
	v.SetDefault("api.request_timeout", "15s")
	v.SetDefault("storage.path", "crm-backoffice.db")
	v.SetDefault("refresh.enabled", true)
	v.SetDefault("refresh.interval", "60s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	if err := v.ReadInConfig(); err != nil {
		// no config file is fine, defaults plus CRM_* env cover it
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}
	return &cfg, nil
}

// app holds the wired dependency graph every command operates on.
type app struct {
	Config   *internal.Config
	Logger   *slog.Logger
	Store    *storage.Store
	Tokens   *session.TokenStore
	Client   *gateway.Client
	Sessions *session.Store
	Bus      *events.Bus
	Cache    *datacache.Cache
}

func newApp() (*app, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.Logging.Format, cfg.Logging.Level)
	log := logger.L()

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	tokens, err := session.NewTokenStore(store)
	if err != nil {
		store.Close()
		return nil, err
	}

	client := gateway.NewClient(gateway.Config{
		BaseURL:        cfg.API.BaseURL,
		RequestTimeout: cfg.API.RequestTimeout,
	}, tokens, log)

	sessions := session.NewStore(client, tokens, log)
	bus := events.NewBus(log)
	client.SetAuthFailureHandler(func() {
		sessions.HandleAuthFailure()
		bus.Publish(context.Background(), events.New(events.TypeSessionExpired, "session expired, please log in again", nil))
	})

	cache := datacache.New(client, store, bus, log)
	sessions.OnLogout(cache.Clear)

	bus.Subscribe(events.TypeRefreshFailed, func(_ context.Context, event events.Event) {
		log.Warn(event.Message, "details", event.Fields)
	})
	bus.Subscribe(events.TypeSessionExpired, func(_ context.Context, event events.Event) {
		log.Warn(event.Message)
	})

	return &app{
		Config:   cfg,
		Logger:   log,
		Store:    store,
		Tokens:   tokens,
		Client:   client,
		Sessions: sessions,
		Bus:      bus,
		Cache:    cache,
	}, nil
}

func (a *app) Close() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("failed to close state store", "error", err)
	}
}

// requireSession hydrates from persisted tokens and fails when nobody is
// logged in.
func (a *app) requireSession(ctx context.Context) (session.Session, error) {
	a.Sessions.Hydrate(ctx)
	sess, ok := a.Sessions.Current()
	if !ok {
		return session.Session{}, internal.ErrNotAuthenticated
	}
	return sess, nil
}

// fail prints a user-facing error message and exits non-zero.
func fail(err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		fmt.Fprintln(os.Stderr, "error:", appErr.UserMessage())
	} else {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(1)
}
