package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/teams-inbox/config"
	"github.com/marcelsud/teams-inbox/consumer"
	"github.com/marcelsud/teams-inbox/delivery"
	"github.com/marcelsud/teams-inbox/graph"
	"github.com/marcelsud/teams-inbox/inbox"
	inboxredis "github.com/marcelsud/teams-inbox/inbox/redis"
	"github.com/marcelsud/teams-inbox/integration"
	"github.com/marcelsud/teams-inbox/internal/http/chi"
	"github.com/marcelsud/teams-inbox/metrics"
	"github.com/marcelsud/teams-inbox/router"
	"github.com/marcelsud/teams-inbox/scheduler"
	stateredis "github.com/marcelsud/teams-inbox/state/redis"
	"github.com/marcelsud/teams-inbox/subscription"
	"github.com/marcelsud/teams-inbox/token"
	"github.com/marcelsud/teams-inbox/token/entra"
	"github.com/marcelsud/teams-inbox/tracing"
)

const TIMEOUT = 30 * time.Second

// outgoing Graph request budget
const (
	graphRequestsPerSecond = 10
	graphBurst             = 20
)

/* main wires every package together and owns the process lifetime:
 * the HTTP server, the delivery workers and the schedulers all stop
 * when a termination signal arrives.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := cfg.ValidateCredentials(); err != nil {
		fmt.Println(err)
		return
	}
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	logger := httplog.NewLogger("teams-inbox", httplog.Options{
		JSON:     true,
		LogLevel: cfg.LogLevel,
	})

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:      cfg.OTelEnabled,
		OTLPEndpoint: cfg.OTelEndpoint,
		OTLPInsecure: cfg.OTelInsecure,
		SampleRatio:  cfg.OTelSampleRatio,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to set up tracing")
		return
	}

	repo, err := inboxredis.NewRepository(cfg.GetRedisAddr(), cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to redis")
		return
	}
	defer repo.Close(context.Background())
	store := stateredis.NewStoreWithClient(repo.GetClient())

	registry := consumer.NewFileRegistry(cfg.GetConsumersFile(), logger)

	exporter, err := metrics.NewOTelExporter(metrics.NewRedisCollector(repo.GetClient(), registry))
	if err != nil {
		logger.Error().Err(err).Msg("failed to create metrics exporter")
		return
	}

	provider := entra.NewProvider(cfg.GetAuthorityURL(), cfg.TenantID, cfg.ClientID, cfg.ClientSecret)
	tokens := token.NewCache(provider, store, token.WithLogger(logger))
	graphClient := graph.NewClient(cfg.GetGraphBaseURL(),
		graph.WithRateLimiter(graph.NewRateLimiter(graphRequestsPerSecond, graphBurst)),
	)
	manager := subscription.NewManager(graphClient, tokens, cfg.GetClientState(), subscription.WithLogger(logger))

	inboxService := inbox.NewService(repo)
	notificationRouter := router.NewRouter(registry, graphClient, tokens, inboxService,
		router.WithLogger(logger),
		router.WithCounters(exporter.Counters()),
	)

	pool := delivery.NewPool(ctx, inboxService, repo, repo, delivery.Settings{
		DeliveredTTL: cfg.GetDeliveredTTL(),
		FailedTTL:    cfg.GetFailedTTL(),
		Counters:     exporter.Counters(),
		Logger:       logger,
	})
	registry.OnReload(pool.Sync)
	if err := registry.Load(); err != nil {
		logger.Error().Err(err).Msg("failed to load consumers")
		return
	}
	go func() {
		if err := registry.Watch(ctx); err != nil {
			logger.Error().Err(err).Msg("consumers file watcher stopped")
		}
	}()

	integrationService := integration.NewService(tokens, graphClient, manager, store, integration.Settings{
		EnableSubscriptions: cfg.EnableSubscriptions,
		Endpoints: subscription.Endpoints{
			NotificationURL: cfg.NotificationURL(),
			LifecycleURL:    cfg.LifecycleURL(),
		},
	}, logger)

	// a failed first sync is retried by the schedule, the endpoints still serve
	if err := integrationService.Sync(ctx); err != nil {
		logger.Error().Err(err).Msg("initial sync failed")
	}
	go scheduler.Every(ctx, cfg.GetTokenRefreshInterval(), "token-refresh", integrationService.RefreshToken, logger)
	go scheduler.Every(ctx, cfg.GetSubscriptionSyncInterval(), "subscription-sync", integrationService.Sync, logger)

	r := chi.NotificationHandlers(ctx, notificationRouter, integrationService, chi.Options{
		ClientState:       cfg.GetClientState(),
		VerifyClientState: cfg.ShouldVerifyClientState(),
		Metrics:           exporter.ServeHTTP(),
	}, logger)
	http.Handle("/", r)
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.GetPort(),
		Handler:      http.DefaultServeMux,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.GetPort()).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server failed")
		return
	}
	err = <-errShutdown
	if err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}

	pool.Stop()
	integrationService.Wait()

	ctxTimeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()
	if err := exporter.Shutdown(ctxTimeout); err != nil {
		logger.Warn().Err(err).Msg("failed to shut down metrics exporter")
	}
	if err := shutdownTracing(ctxTimeout); err != nil {
		logger.Warn().Err(err).Msg("failed to shut down tracing")
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
	}
}
