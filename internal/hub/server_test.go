package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/jeff0926/webinsight-sub001/internal/config"
	"github.com/jeff0926/webinsight-sub001/internal/crypto"
	"github.com/jeff0926/webinsight-sub001/internal/report"
	"github.com/jeff0926/webinsight-sub001/internal/transport"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

type serverFixture struct {
	*hubFixture
	srv    *httptest.Server
	signer *crypto.URLSigner
}

func startServer(t *testing.T) *serverFixture {
	t.Helper()

	f := startHub(t)
	cfg := &config.Config{
		MasterSecret:   "install-secret",
		AllowedOrigins: []string{"*"},
	}
	tokens, err := crypto.NewTokenManager([]byte(cfg.MasterSecret))
	require.NoError(t, err)
	signer, err := crypto.NewURLSigner([]byte("hub-test-secret"))
	require.NoError(t, err)

	s := NewServer(cfg, f.hub, tokens, signer, f.reports)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	return &serverFixture{hubFixture: f, srv: srv, signer: signer}
}

func (f *serverFixture) issueToken(t *testing.T, role, tabID string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"secret": "install-secret",
		"role":   role,
		"tabId":  tabID,
	})
	resp, err := http.Post(f.srv.URL+"/v1/auth/token", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tr tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	require.NotEmpty(t, tr.Token)
	return tr.Token
}

// dialWS connects a websocket peer through the server using a real token.
func (f *serverFixture) dialWS(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/v1/ws?token=" + token
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestAuthTokenExchange(t *testing.T) {
	t.Parallel()
	f := startServer(t)

	token := f.issueToken(t, "panel", "")
	require.NotEmpty(t, token)

	// Agent tokens need a tab binding.
	body, _ := json.Marshal(map[string]string{
		"secret": "install-secret",
		"role":   "agent",
	})
	resp, err := http.Post(f.srv.URL+"/v1/auth/token", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()
	f := startServer(t)

	body, _ := json.Marshal(map[string]string{
		"secret": "wrong",
		"role":   "panel",
	})
	resp, err := http.Post(f.srv.URL+"/v1/auth/token", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var er errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
	require.Equal(t, "invalid secret", er.Error)
}

func TestWSRejectsBadToken(t *testing.T) {
	t.Parallel()
	f := startServer(t)

	resp, err := http.Get(f.srv.URL + "/v1/ws?token=garbage")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSPanelSessionOverHTTP(t *testing.T) {
	t.Parallel()
	f := startServer(t)

	ws := f.dialWS(t, f.issueToken(t, "panel", ""))
	panel := transport.NewPeer(transport.NewWSConn(ws), transport.WithName("panel"))
	go panel.Run(context.Background())
	t.Cleanup(func() { panel.Close() })

	resp := panel.Send(context.Background(), wire.KindSavePage, wire.SavePageRequest{
		PageData: wire.PageData{
			URL:   "https://example.com",
			Title: "Example",
			Text:  "A page saved through the real websocket endpoint.",
		},
	})
	require.True(t, resp.Success, "save failed: %s", resp.Error)

	var ref wire.SavedRef
	require.NoError(t, resp.Bind(&ref))
	item, err := f.store.GetItem(context.Background(), ref.ID)
	require.NoError(t, err)
	require.Equal(t, "Example", item.Title)
}

func TestReportDownload(t *testing.T) {
	t.Parallel()
	f := startServer(t)

	name, pages, err := f.reports.Render(report.ReportData{
		TagName:     "go",
		GeneratedAt: time.Now(),
		Items: []report.ReportItem{
			{Title: "Only item", Content: "Body text for the report."},
		},
	})
	require.NoError(t, err)
	require.Greater(t, pages, 0)

	exp := time.Now().Add(5 * time.Minute)
	sig := f.signer.Sign(name, exp)
	url := fmt.Sprintf("%s/v1/reports/%s?exp=%d&sig=%s", f.srv.URL, name, exp.Unix(), sig)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	// Tampered signatures never reach the file.
	resp, err = http.Get(fmt.Sprintf("%s/v1/reports/%s?exp=%d&sig=bad", f.srv.URL, name, exp.Unix()))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHealthCountsPeers(t *testing.T) {
	t.Parallel()
	f := startServer(t)

	readHealth := func() (agents int, panel bool) {
		resp, err := http.Get(f.srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var h struct {
			Status string `json:"status"`
			Agents int    `json:"agents"`
			Panel  bool   `json:"panel"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
		require.Equal(t, "ok", h.Status)
		return h.Agents, h.Panel
	}

	agents, panel := readHealth()
	require.Zero(t, agents)
	require.False(t, panel)

	ws := f.dialWS(t, f.issueToken(t, "agent", "tab-1"))
	agent := transport.NewPeer(transport.NewWSConn(ws), transport.WithName("agent"))
	go agent.Run(context.Background())
	t.Cleanup(func() { agent.Close() })

	require.Eventually(t, func() bool {
		agents, _ := readHealth()
		return agents == 1
	}, 2*time.Second, 20*time.Millisecond)
}
