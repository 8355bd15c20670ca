package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeff0926/webinsight-sub001/internal/capture"
	"github.com/jeff0926/webinsight-sub001/internal/crypto"
	"github.com/jeff0926/webinsight-sub001/internal/inference"
	"github.com/jeff0926/webinsight-sub001/internal/report"
	"github.com/jeff0926/webinsight-sub001/internal/storage"
	"github.com/jeff0926/webinsight-sub001/internal/transport"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

type hubFixture struct {
	hub      *Hub
	store    *storage.Store
	reports  *report.Renderer
	panel    *transport.Peer
	changes  chan wire.ContentChanged
	statuses chan wire.ReportStatus
}

func startHub(t *testing.T) *hubFixture {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "hub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	renderer, err := report.NewRenderer(t.TempDir())
	require.NoError(t, err)
	signer, err := crypto.NewURLSigner([]byte("hub-test-secret"))
	require.NoError(t, err)

	store := storage.NewStore(db)
	return &hubFixture{
		hub:      New(store, inference.NewExtractive(), renderer, signer),
		store:    store,
		reports:  renderer,
		changes:  make(chan wire.ContentChanged, 16),
		statuses: make(chan wire.ReportStatus, 16),
	}
}

// connectPanel attaches a panel link and starts reading it. Notifications
// land in the fixture channels.
func (f *hubFixture) connectPanel(t *testing.T) *transport.Peer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hubEnd, clientEnd := transport.NewPipe()
	go f.hub.ServePanel(ctx, hubEnd)

	panel := transport.NewPeer(clientEnd, transport.WithName("panel"))
	panel.HandleNotify(wire.KindContentChanged, func(_ context.Context, payload json.RawMessage) {
		var c wire.ContentChanged
		if json.Unmarshal(payload, &c) == nil {
			f.changes <- c
		}
	})
	panel.HandleNotify(wire.KindReportGenerationStatus, func(_ context.Context, payload json.RawMessage) {
		var s wire.ReportStatus
		if json.Unmarshal(payload, &s) == nil {
			f.statuses <- s
		}
	})
	go panel.Run(ctx)

	t.Cleanup(func() {
		cancel()
		panel.Close()
	})
	f.panel = panel
	return panel
}

// connectAgent attaches an agent link for tabID. configure registers the
// agent's handlers before the read loop starts.
func (f *hubFixture) connectAgent(t *testing.T, tabID string, configure func(*transport.Peer)) *transport.Peer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hubEnd, clientEnd := transport.NewPipe()
	go f.hub.ServeAgent(ctx, hubEnd, tabID)

	agent := transport.NewPeer(clientEnd, transport.WithName("agent-"+tabID))
	if configure != nil {
		configure(agent)
	}
	go agent.Run(ctx)

	t.Cleanup(func() {
		cancel()
		agent.Close()
	})
	return agent
}

func awaitChange(t *testing.T, f *hubFixture, reason string) wire.ContentChanged {
	t.Helper()
	for {
		select {
		case c := <-f.changes:
			if c.Reason == reason {
				return c
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no %q change notification arrived", reason)
		}
	}
}

func testViewport(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 120, 90))))
	return capture.EncodeDataURL(buf.Bytes())
}

func TestSavePageRoundTrip(t *testing.T) {
	f := startHub(t)
	panel := f.connectPanel(t)
	ctx := context.Background()

	resp := panel.Send(ctx, wire.KindSavePage, wire.SavePageRequest{
		PageData: wire.PageData{
			URL:   "https://go.dev/blog/pipelines",
			Title: "Go Concurrency Patterns",
			Text:  "Pipelines connect stages with channels so work flows forward.",
		},
	})
	require.True(t, resp.Success, "save failed: %s", resp.Error)

	var ref wire.SavedRef
	require.NoError(t, resp.Bind(&ref))

	item, err := f.store.GetItem(ctx, ref.ID)
	require.NoError(t, err)
	require.Equal(t, wire.ItemTypePage, item.Type)
	require.Equal(t, "Go Concurrency Patterns", item.Title)

	awaitChange(t, f, wire.ChangeSaved)
}

func TestListAndDeleteOverLink(t *testing.T) {
	f := startHub(t)
	panel := f.connectPanel(t)
	ctx := context.Background()

	ids := make([]string, 0, 2)
	for _, title := range []string{"First", "Second"} {
		resp := panel.Send(ctx, wire.KindSavePage, wire.SavePageRequest{
			PageData: wire.PageData{URL: "https://example.com/" + title, Title: title, Text: "Body text."},
		})
		require.True(t, resp.Success)
		var ref wire.SavedRef
		require.NoError(t, resp.Bind(&ref))
		ids = append(ids, ref.ID)
	}

	resp := panel.Send(ctx, wire.KindGetAllSavedContent, nil)
	require.True(t, resp.Success)
	var list wire.ItemList
	require.NoError(t, resp.Bind(&list))
	require.Len(t, list.Items, 2)

	resp = panel.Send(ctx, wire.KindDeleteItem, wire.DeleteItemRequest{ID: ids[0]})
	require.True(t, resp.Success)
	awaitChange(t, f, wire.ChangeDeleted)

	resp = panel.Send(ctx, wire.KindDeleteItem, wire.DeleteItemRequest{ID: ids[0]})
	require.False(t, resp.Success)
	require.Equal(t, wire.ErrNotFound, resp.Error)

	resp = panel.Send(ctx, wire.KindGetAllSavedContent, nil)
	require.True(t, resp.Success)
	require.NoError(t, resp.Bind(&list))
	require.Len(t, list.Items, 1)
	require.Equal(t, ids[1], list.Items[0].ID)
}

func TestForwardsAgentRequests(t *testing.T) {
	f := startHub(t)
	panel := f.connectPanel(t)
	f.connectAgent(t, "tab-1", func(p *transport.Peer) {
		p.Handle(wire.KindGetPageData, func(_ context.Context, _ json.RawMessage) wire.Response {
			return wire.OK(wire.PageData{URL: "https://example.com", Title: "Example"})
		})
	})
	ctx := context.Background()

	// Named tab.
	resp := panel.Send(ctx, wire.KindGetPageData, nil, transport.ToAgent("tab-1"))
	require.True(t, resp.Success, "forward failed: %s", resp.Error)
	var data wire.PageData
	require.NoError(t, resp.Bind(&data))
	require.Equal(t, "Example", data.Title)

	// No tab named: the most recent agent serves.
	resp = panel.Send(ctx, wire.KindGetPageData, nil, transport.ToAgent(""))
	require.True(t, resp.Success)

	// Unknown tab resolves immediately.
	resp = panel.Send(ctx, wire.KindGetPageData, nil, transport.ToAgent("ghost"))
	require.False(t, resp.Success)
	require.Equal(t, wire.ErrNoAgent, resp.Error)
}

func TestAgentCapturePersistsAndNotifies(t *testing.T) {
	f := startHub(t)
	f.connectPanel(t)
	agent := f.connectAgent(t, "tab-1", nil)
	ctx := context.Background()

	resp := agent.Send(ctx, wire.KindCaptureAreaFromContent, wire.CaptureAreaPayload{
		Rect:             wire.Rect{X: 10, Y: 10, Width: 40, Height: 30},
		DevicePixelRatio: 1,
		URL:              "https://example.com/article",
		Title:            "Article",
		Image:            testViewport(t),
	})
	require.True(t, resp.Success, "capture failed: %s", resp.Error)

	var ref wire.SavedRef
	require.NoError(t, resp.Bind(&ref))
	item, err := f.store.GetItem(ctx, ref.ID)
	require.NoError(t, err)
	require.Equal(t, wire.ItemTypeArea, item.Type)
	require.NotEmpty(t, item.ImageData)

	awaitChange(t, f, wire.ChangeSaved)
}

func TestReportPipelineOverLink(t *testing.T) {
	f := startHub(t)
	panel := f.connectPanel(t)
	ctx := context.Background()

	resp := panel.Send(ctx, wire.KindSavePage, wire.SavePageRequest{
		PageData: wire.PageData{
			URL:   "https://go.dev/blog/pipelines",
			Title: "Go Concurrency Patterns",
			Text: "Pipelines connect stages with channels so work flows forward. " +
				"Each stage runs in its own goroutine and owns its outbound channel. " +
				"Fan-out spreads work across workers and fan-in merges the results.",
		},
	})
	require.True(t, resp.Success)
	var ref wire.SavedRef
	require.NoError(t, resp.Bind(&ref))

	resp = panel.Send(ctx, wire.KindAddTagToItem, wire.AddTagRequest{
		ContentID: ref.ID,
		TagName:   "concurrency",
	})
	require.True(t, resp.Success)
	var tagged wire.AddTagResult
	require.NoError(t, resp.Bind(&tagged))
	awaitChange(t, f, wire.ChangeTagged)

	resp = panel.Send(ctx, wire.KindGetKeyPointsForTag, wire.TagRef{TagID: tagged.Tag.ID})
	require.True(t, resp.Success, "key points failed: %s", resp.Error)
	var kp wire.KeyPointsResult
	require.NoError(t, resp.Bind(&kp))
	require.NotEmpty(t, kp.KeyPoints)
	require.Equal(t, "1 item tagged 'concurrency'", kp.SourceInfo)
	awaitChange(t, f, wire.ChangeAnalyzed)

	resp = panel.Send(ctx, wire.KindGeneratePDFReportForTag, wire.ReportRequest{TagID: tagged.Tag.ID})
	require.True(t, resp.Success, "report failed: %s", resp.Error)
	var rep wire.ReportResult
	require.NoError(t, resp.Bind(&rep))
	require.True(t, report.ValidName(rep.Filename))
	require.Contains(t, rep.URL, "sig=")

	path, err := f.reports.Open(rep.Filename)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, rep.Filename))

	// Progress lines were queued ahead of the response on this link.
	select {
	case s := <-f.statuses:
		require.NotEmpty(t, s.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("no progress status arrived for the report run")
	}
}

func TestUnknownTagFailsCleanly(t *testing.T) {
	f := startHub(t)
	panel := f.connectPanel(t)
	ctx := context.Background()

	resp := panel.Send(ctx, wire.KindGetKeyPointsForTag, wire.TagRef{TagID: "ghost"})
	require.False(t, resp.Success)
	require.Equal(t, wire.ErrNotFound, resp.Error)

	resp = panel.Send(ctx, wire.KindGeneratePDFReportForTag, wire.ReportRequest{TagID: "ghost"})
	require.False(t, resp.Success)
	require.Equal(t, wire.ErrNotFound, resp.Error)
}
