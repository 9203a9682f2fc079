package delivery

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/marcelsud/teams-inbox/consumer"
	"github.com/marcelsud/teams-inbox/inbox"
	inboxredis "github.com/marcelsud/teams-inbox/inbox/redis"
	"github.com/marcelsud/teams-inbox/inbox/signature"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

func setupInbox(t *testing.T) (context.Context, *inboxredis.Repository, *inbox.Service) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "miniredis start")
	t.Cleanup(mr.Close)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := inboxredis.NewRepositoryWithClient(client)
	return context.Background(), repo, inbox.NewService(repo)
}

func enqueue(t *testing.T, ctx context.Context, repo *inboxredis.Repository, id, consumerID string, maxRetries int) {
	t.Helper()
	_, err := repo.Enqueue(ctx, []inbox.Event{{
		ID:         id,
		ConsumerID: consumerID,
		Type:       "teams.message.created",
		Payload:    []byte(`{"type":"teams.message.created","timestamp":"2024-01-01T00:00:00Z","data":{"id":"M1"}}`),
		Status:     inbox.Pending,
		MaxRetries: maxRetries,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}}, time.Hour)
	require.NoError(t, err)
}

func statusServer(t *testing.T, code int, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWorker_DeliversSignedPayload(t *testing.T) {
	ctx, repo, service := setupInbox(t)
	secret, err := signature.ParseSecret(testSecret)
	require.NoError(t, err)

	verified := make(chan bool, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ts, _ := strconv.ParseInt(r.Header.Get(signature.HeaderTimestamp), 10, 64)
		verified <- r.Method == http.MethodPost &&
			r.Header.Get("Content-Type") == "application/json" &&
			r.Header.Get(signature.HeaderID) == "evt_1" &&
			signature.Verify(secret, "evt_1", time.Unix(ts, 0), body, r.Header.Get(signature.HeaderSignature))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	reg := consumer.Registration{ID: "alpha", TeamID: "T1", TargetURL: srv.URL, SigningSecret: testSecret, MaxRetries: 3}
	enqueue(t, ctx, repo, "evt_1", "alpha", 3)
	worker := NewWorker(reg, service, repo, repo, Settings{Block: 10 * time.Millisecond})

	n, err := worker.Poll(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, <-verified)
	got, err := repo.Get(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, inbox.Delivered, got.Status)

	beats, err := repo.ActiveWorkers(ctx)
	require.NoError(t, err)
	assert.Contains(t, beats, "alpha")
}

func TestWorker_UnsignedWithoutSecret(t *testing.T) {
	ctx, repo, service := setupInbox(t)
	signed := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signed <- r.Header.Get(signature.HeaderSignature)
	}))
	defer srv.Close()

	enqueue(t, ctx, repo, "evt_1", "alpha", 3)
	worker := NewWorker(consumer.Registration{ID: "alpha", TargetURL: srv.URL}, service, repo, nil, Settings{Block: 10 * time.Millisecond})

	_, err := worker.Poll(ctx)

	require.NoError(t, err)
	assert.Empty(t, <-signed)
}

func TestWorker_Failures(t *testing.T) {
	t.Run("server error is retried after a growing delay", func(t *testing.T) {
		ctx, repo, service := setupInbox(t)
		var hits int32
		srv := statusServer(t, http.StatusServiceUnavailable, &hits)
		enqueue(t, ctx, repo, "evt_1", "alpha", 3)
		worker := NewWorker(consumer.Registration{ID: "alpha", TargetURL: srv.URL}, service, repo, repo, Settings{Block: 10 * time.Millisecond})
		var ahead time.Duration
		worker.now = func() time.Time { return time.Now().Add(ahead) }

		_, err := worker.Poll(ctx)
		require.NoError(t, err)

		got, err := repo.Get(ctx, "evt_1")
		require.NoError(t, err)
		assert.Equal(t, inbox.Retrying, got.Status)
		assert.Equal(t, 1, got.RetryCount)
		assert.Equal(t, "delivery failed with status: 503", got.LastError)
		assert.WithinDuration(t, time.Now().Add(inbox.RetryBaseDelay), got.NextRetryAt, time.Second)

		n, err := worker.Poll(ctx)
		require.NoError(t, err)
		assert.Zero(t, n, "not redelivered before the delay")
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

		ahead = inbox.RetryBaseDelay + 500*time.Millisecond
		n, err = worker.Poll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "redelivered once due")
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

		// the second retry waits twice as long
		n, err = worker.Poll(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		ahead = 2*inbox.RetryBaseDelay + 500*time.Millisecond
		n, err = worker.Poll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	})

	t.Run("exhausted retries fail", func(t *testing.T) {
		ctx, repo, service := setupInbox(t)
		var hits int32
		srv := statusServer(t, http.StatusInternalServerError, &hits)
		enqueue(t, ctx, repo, "evt_1", "alpha", 0)
		worker := NewWorker(consumer.Registration{ID: "alpha", TargetURL: srv.URL}, service, repo, repo, Settings{Block: 10 * time.Millisecond, FailedTTL: 2 * time.Hour})

		_, err := worker.Poll(ctx)
		require.NoError(t, err)

		got, err := repo.Get(ctx, "evt_1")
		require.NoError(t, err)
		assert.Equal(t, inbox.Failed, got.Status)
	})

	t.Run("410 gone is not retried", func(t *testing.T) {
		ctx, repo, service := setupInbox(t)
		var hits int32
		srv := statusServer(t, http.StatusGone, &hits)
		enqueue(t, ctx, repo, "evt_1", "alpha", 5)
		worker := NewWorker(consumer.Registration{ID: "alpha", TargetURL: srv.URL}, service, repo, repo, Settings{Block: 10 * time.Millisecond})

		_, err := worker.Poll(ctx)
		require.NoError(t, err)

		got, err := repo.Get(ctx, "evt_1")
		require.NoError(t, err)
		assert.Equal(t, inbox.Failed, got.Status)
		assert.Equal(t, 0, got.RetryCount)
	})

	t.Run("unreachable endpoint is retried", func(t *testing.T) {
		ctx, repo, service := setupInbox(t)
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		enqueue(t, ctx, repo, "evt_1", "alpha", 3)
		worker := NewWorker(consumer.Registration{ID: "alpha", TargetURL: srv.URL}, service, repo, repo, Settings{Block: 10 * time.Millisecond})

		_, err := worker.Poll(ctx)
		require.NoError(t, err)

		got, err := repo.Get(ctx, "evt_1")
		require.NoError(t, err)
		assert.Equal(t, inbox.Retrying, got.Status)
	})
}

func TestWorker_FilteredEventIsCompleted(t *testing.T) {
	ctx, repo, service := setupInbox(t)
	var hits int32
	srv := statusServer(t, http.StatusOK, &hits)
	enqueue(t, ctx, repo, "evt_1", "alpha", 3)
	reg := consumer.Registration{ID: "alpha", TargetURL: srv.URL, EventTypes: []string{"teams.message.updated"}}
	worker := NewWorker(reg, service, repo, repo, Settings{Block: 10 * time.Millisecond})

	_, err := worker.Poll(ctx)
	require.NoError(t, err)

	assert.Zero(t, atomic.LoadInt32(&hits))
	got, err := repo.Get(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, inbox.Delivered, got.Status)
}

func TestWorker_RunRecoversPending(t *testing.T) {
	ctx, repo, service := setupInbox(t)
	var hits int32
	srv := statusServer(t, http.StatusOK, &hits)
	enqueue(t, ctx, repo, "evt_1", "alpha", 3)

	// read but never finished, as after a crash
	_, err := repo.Consume(ctx, "alpha", 0)
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	worker := NewWorker(consumer.Registration{ID: "alpha", TargetURL: srv.URL}, service, repo, repo, Settings{Block: 10 * time.Millisecond})
	go func() {
		defer close(done)
		worker.Run(runCtx)
	}()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	got, err := repo.Get(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, inbox.Delivered, got.Status)
}

func TestStatusError(t *testing.T) {
	assert.True(t, (&StatusError{StatusCode: 500}).Retryable())
	assert.True(t, (&StatusError{StatusCode: 404}).Retryable())
	assert.False(t, (&StatusError{StatusCode: 410}).Retryable())
	assert.Equal(t, "delivery failed with status: 410", (&StatusError{StatusCode: 410}).Error())
}
