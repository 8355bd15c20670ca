package hubclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/auth/token", r.URL.Path)

		var req struct {
			Secret string `json:"secret"`
			Role   string `json:"role"`
			TabID  string `json:"tabId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "agent", req.Role)
		require.Equal(t, "tab-1", req.TabID)

		if req.Secret != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid secret"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok-123", "expiresIn": 3600})
	}))
	defer srv.Close()

	token, err := FetchToken(context.Background(), srv.URL, "s3cret", "agent", "tab-1")
	require.NoError(t, err)
	require.Equal(t, "tok-123", token)

	_, err = FetchToken(context.Background(), srv.URL, "wrong", "agent", "tab-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid secret")
}

func TestFetchTokenRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": ""})
	}))
	defer srv.Close()

	_, err := FetchToken(context.Background(), srv.URL, "s", "panel", "")
	require.Error(t, err)
}

func TestWSURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"http://localhost:3100", "ws://localhost:3100/v1/ws"},
		{"http://localhost:3100/", "ws://localhost:3100/v1/ws"},
		{"https://hub.example.com", "wss://hub.example.com/v1/ws"},
		{"ws://hub.example.com", "ws://hub.example.com/v1/ws"},
	}
	for _, tc := range cases {
		got, err := WSURL(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got)
	}

	_, err := WSURL("ftp://hub.example.com")
	require.Error(t, err)
}
