package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/teams-inbox/notification"
	"github.com/rs/zerolog"
)

// Router routes a batch of data notifications; it never fails the request
type Router interface {
	Route(ctx context.Context, notifications []notification.Notification)
}

// Resyncer reconciles the subscription in the background after a lifecycle event
type Resyncer interface {
	Resync(event notification.LifecycleEvent)
}

type Options struct {
	ClientState       string
	VerifyClientState bool

	// Metrics is mounted on GET /metrics when set
	Metrics http.Handler
}

// NotificationHandlers serves the Graph notification endpoints next to /health and /metrics
func NotificationHandlers(ctx context.Context, router Router, resyncer Resyncer, opts Options, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(Tracing("teams-inbox"))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	endpoint := notificationEndpoint(router, resyncer, opts)
	r.NotFound(endpoint)
	r.MethodNotAllowed(endpoint)

	return r
}
