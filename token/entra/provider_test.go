package entra_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marcelsud/teams-inbox/token"
	"github.com/marcelsud/teams-inbox/token/entra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("exchanges client credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/tenant-1/oauth2/v2.0/token", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			assert.Equal(t, entra.GraphScope, r.PostForm.Get("scope"))
			assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
			assert.Equal(t, "secret-1", r.PostForm.Get("client_secret"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"abc","token_type":"Bearer","expires_in":3599}`))
		}))
		defer server.Close()

		provider := entra.NewProvider(server.URL, "tenant-1", "client-1", "secret-1")
		start := time.Now()
		cred, err := provider.FetchToken(ctx)

		require.NoError(t, err)
		assert.Equal(t, "abc", cred.AccessToken)
		assert.WithinDuration(t, start.Add(3599*time.Second), cred.ExpiresAt, 5*time.Second)
	})

	t.Run("missing expires_in uses default lifetime", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"abc","token_type":"Bearer"}`))
		}))
		defer server.Close()

		provider := entra.NewProvider(server.URL, "tenant-1", "client-1", "secret-1",
			entra.WithClock(func() time.Time { return now }))
		cred, err := provider.FetchToken(ctx)

		require.NoError(t, err)
		assert.Equal(t, now.Add(3599*time.Second), cred.ExpiresAt)
	})

	t.Run("rejection reports the error description", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_client","error_description":"AADSTS7000215: Invalid client secret provided."}`))
		}))
		defer server.Close()

		provider := entra.NewProvider(server.URL, "tenant-1", "client-1", "wrong")
		_, err := provider.FetchToken(ctx)

		require.Error(t, err)
		assert.ErrorIs(t, err, token.ErrAuthFailure)
		assert.Contains(t, err.Error(), "AADSTS7000215")
	})

	t.Run("rejection without description reports the code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"unauthorized_client"}`))
		}))
		defer server.Close()

		provider := entra.NewProvider(server.URL, "tenant-1", "client-1", "secret-1")
		_, err := provider.FetchToken(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unauthorized_client")
	})

	t.Run("unreachable endpoint is an auth failure", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		provider := entra.NewProvider(url, "tenant-1", "client-1", "secret-1")
		_, err := provider.FetchToken(ctx)

		require.Error(t, err)
		assert.ErrorIs(t, err, token.ErrAuthFailure)
	})
}

func TestTokenURL(t *testing.T) {
	assert.Equal(t,
		"https://login.microsoftonline.com/contoso/oauth2/v2.0/token",
		entra.TokenURL("https://login.microsoftonline.com/", "contoso"))
}
