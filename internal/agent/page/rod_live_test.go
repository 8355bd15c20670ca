package page

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Needs a Chrome started with --remote-debugging-port and the DevTools
// websocket URL in WEBINSIGHT_DEBUGGER_URL.
func TestRodSourceLive(t *testing.T) {
	if os.Getenv("SKIP_LIVE_TESTS") != "" {
		t.Skip("skipping live browser test (SKIP_LIVE_TESTS set)")
	}
	controlURL := os.Getenv("WEBINSIGHT_DEBUGGER_URL")
	if controlURL == "" {
		t.Skip("WEBINSIGHT_DEBUGGER_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	src, err := NewRodSource(ctx, controlURL, "https://example.com")
	require.NoError(t, err)
	defer src.Close()

	data, err := src.Extract(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, data.Title)
	require.Contains(t, data.URL, "example.com")

	shot, err := src.Screenshot(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, shot.PNG)
	require.Greater(t, shot.DevicePixelRatio, 0.0)
}
