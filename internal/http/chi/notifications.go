package chi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/teams-inbox/notification"
)

const maxNotificationBody = 4 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type acceptedResponse struct {
	Status string `json:"status"`
}

// notificationEndpoint dispatches on the path suffix so the service can be
// mounted under any prefix, for every method
func notificationEndpoint(router Router, resyncer Resyncer, opts Options) http.HandlerFunc {
	webhook := handleWebhook(router, opts)
	lifecycle := handleLifecycle(resyncer)

	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/lifecycle"):
			lifecycle(w, r)
		case strings.HasSuffix(path, "/webhook"):
			webhook(w, r)
		default:
			log := httplog.LogEntry(r.Context())
			log.Warn().
				Str("path", path).
				Msg("received request on unhandled HTTP path")
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "Endpoint not found"})
		}
	}
}

// handleWebhook receives data notifications
func handleWebhook(router Router, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if echoValidation(w, r) {
			return
		}
		log := httplog.LogEntry(r.Context())

		body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid notification payload"})
			return
		}
		envelope, err := notification.ParseEnvelope(body)
		if err != nil {
			log.Warn().Err(err).Msg("rejected notification")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid notification payload"})
			return
		}

		if opts.VerifyClientState && opts.ClientState != "" {
			if err := envelope.VerifyClientState(opts.ClientState); err != nil {
				log.Warn().Err(err).Msg("rejected notification")
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid client state"})
				return
			}
		}

		log.Debug().Int("notifications", len(envelope.Value)).Msg("routing notifications")
		router.Route(r.Context(), envelope.Value)

		writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted"})
	}
}

// handleLifecycle receives subscription lifecycle notifications
func handleLifecycle(resyncer Resyncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if echoValidation(w, r) {
			return
		}
		log := httplog.LogEntry(r.Context())

		body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid lifecycle notification payload"})
			return
		}
		envelope, err := notification.ParseLifecycle(body)
		if err != nil {
			log.Warn().Err(err).Msg("rejected lifecycle notification")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid lifecycle notification payload"})
			return
		}

		event := envelope.Event()
		switch event {
		case notification.ReauthorizationRequired:
			log.Warn().Str("lifecycle_event", string(event)).Msg("subscription requires reauthorization, resyncing")
			resyncer.Resync(event)
		case notification.SubscriptionRemoved:
			log.Error().Str("lifecycle_event", string(event)).Msg("subscription removed, resyncing")
			resyncer.Resync(event)
		case notification.Missed:
			log.Info().Str("lifecycle_event", string(event)).Msg("notifications were missed")
		default:
			log.Warn().Str("lifecycle_event", string(event)).Msg("unknown lifecycle event")
		}

		writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted"})
	}
}

// echoValidation answers the Graph validation handshake without reading the body
func echoValidation(w http.ResponseWriter, r *http.Request) bool {
	token := r.URL.Query().Get("validationToken")
	if token == "" {
		return false
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, token)
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
