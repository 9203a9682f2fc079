package main

import (
	"context"
	"fmt"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/teams-inbox/config"
	"github.com/marcelsud/teams-inbox/graph"
	"github.com/marcelsud/teams-inbox/integration"
	stateredis "github.com/marcelsud/teams-inbox/state/redis"
	"github.com/marcelsud/teams-inbox/subscription"
	"github.com/marcelsud/teams-inbox/token"
	"github.com/marcelsud/teams-inbox/token/entra"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// verbose enables debug logging
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "teamsctl",
	Short: "Operate the Teams notification inbox",
	Long: `teamsctl reconciles the Microsoft Graph subscription, refreshes the
cached access token and checks consumer configuration.

Settings are read from .env in the working directory and the environment,
exactly like the api server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
}

func newLogger() zerolog.Logger {
	level := "info"
	if verbose {
		level = "debug"
	}
	return httplog.NewLogger("teamsctl", httplog.Options{
		LogLevel: level,
		Concise:  true,
	})
}

// connect builds the integration service against the configured tenant and Redis
func connect() (*integration.Service, func(), error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, nil, err
	}
	logger := newLogger()

	store, err := stateredis.NewStore(cfg.GetRedisAddr(), cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}

	provider := entra.NewProvider(cfg.GetAuthorityURL(), cfg.TenantID, cfg.ClientID, cfg.ClientSecret)
	tokens := token.NewCache(provider, store, token.WithLogger(logger))
	client := graph.NewClient(cfg.GetGraphBaseURL())
	manager := subscription.NewManager(client, tokens, cfg.GetClientState(), subscription.WithLogger(logger))

	svc := integration.NewService(tokens, client, manager, store, integration.Settings{
		EnableSubscriptions: cfg.EnableSubscriptions,
		Endpoints: subscription.Endpoints{
			NotificationURL: cfg.NotificationURL(),
			LifecycleURL:    cfg.LifecycleURL(),
		},
	}, logger)

	closeFn := func() {
		svc.Wait()
		_ = store.Close(context.Background())
	}
	return svc, closeFn, nil
}
