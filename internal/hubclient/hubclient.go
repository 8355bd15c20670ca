// Package hubclient connects peer binaries to the hub: it trades the
// install secret for a peer token and dials the websocket entry point.
package hubclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeff0926/webinsight-sub001/internal/transport"
)

// authTimeout bounds the token request.
const authTimeout = 10 * time.Second

// FetchToken exchanges the install secret for a peer token. Agents pass
// their tab id; panels leave it empty.
func FetchToken(ctx context.Context, baseURL, secret, role, tabID string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"secret": secret,
		"role":   role,
		"tabId":  tabID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	authURL := strings.TrimRight(baseURL, "/") + "/v1/auth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: authTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request rejected: %s - %s",
			resp.Status, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if result.Token == "" {
		return "", errors.New("hub returned an empty token")
	}
	return result.Token, nil
}

// WSURL converts the hub's base address into its websocket endpoint.
func WSURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("bad hub url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported hub url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/ws"
	return u.String(), nil
}

// Connect authenticates against the hub and dials the websocket.
func Connect(ctx context.Context, baseURL, secret, role, tabID string) (*transport.WSConn, error) {
	token, err := FetchToken(ctx, baseURL, secret, role, tabID)
	if err != nil {
		return nil, err
	}
	wsURL, err := WSURL(baseURL)
	if err != nil {
		return nil, err
	}
	conn, err := transport.Dial(ctx, wsURL, token)
	if err != nil {
		return nil, fmt.Errorf("dial hub: %w", err)
	}
	return conn, nil
}
