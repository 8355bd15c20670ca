package panel

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

func runApp(t *testing.T, hub *fakeHub, input string) string {
	t.Helper()
	var out strings.Builder
	app := NewApp(hub, newFakeNotifySource(), &out)
	require.NoError(t, app.Run(context.Background(), strings.NewReader(input)))
	return out.String()
}

func TestAppListsOnStartup(t *testing.T) {
	hub := &fakeHub{send: func(kind wire.Kind, _ any) wire.Response {
		return itemsResponse(wire.ContentItem{ID: "a", Type: wire.ItemTypePage, Title: "Go Blog"})
	}}

	out := runApp(t, hub, "quit\n")
	require.Contains(t, out, "All content (1 items)")
	require.Contains(t, out, "[page] Go Blog")
}

func TestAppOpenLoadsTags(t *testing.T) {
	hub := &fakeHub{send: func(kind wire.Kind, _ any) wire.Response {
		switch kind {
		case wire.KindGetTagsForItem:
			return wire.OK(wire.TagList{Tags: []wire.Tag{{ID: "t1", Name: "go"}}})
		default:
			return itemsResponse(wire.ContentItem{ID: "a", Type: wire.ItemTypePage, Title: "Go Blog"})
		}
	}}

	out := runApp(t, hub, "open 1\nquit\n")
	require.Contains(t, out, "tags: go")
	require.Contains(t, hub.kinds(), wire.KindGetTagsForItem)
}

func TestAppSaveTargetsTab(t *testing.T) {
	hub := &fakeHub{send: func(kind wire.Kind, _ any) wire.Response {
		switch kind {
		case wire.KindGetPageData:
			return wire.OK(wire.PageData{URL: "https://example.com", Title: "Example", Text: "Body."})
		case wire.KindSavePage:
			return wire.OK(wire.SavedRef{ID: "id-9"})
		default:
			return itemsResponse()
		}
	}}

	out := runApp(t, hub, "tab tab-2\nsave\nquit\n")
	require.Contains(t, out, "targeting tab tab-2")
	require.Contains(t, out, "saved id-9")

	var saveReq wire.SavePageRequest
	for i, kind := range hub.kinds() {
		if kind == wire.KindSavePage {
			saveReq = hub.payload(i).(wire.SavePageRequest)
		}
	}
	require.Equal(t, "tab-2", saveReq.TabID)
}

func TestAppReportCommand(t *testing.T) {
	hub := &fakeHub{send: func(kind wire.Kind, _ any) wire.Response {
		switch kind {
		case wire.KindGetFilteredItemsByTag:
			return itemsResponse(wire.ContentItem{ID: "a", Type: wire.ItemTypePage})
		case wire.KindGetKeyPointsForTag:
			return wire.OK(wire.KeyPointsResult{NewID: "kp", KeyPoints: []string{"p"}, SourceInfo: "1 item tagged 'go'"})
		case wire.KindGeneratePDFReportForTag:
			return wire.OK(wire.ReportResult{Filename: "report-go-1.pdf", URL: "/v1/reports/report-go-1.pdf?exp=1&sig=x"})
		default:
			return itemsResponse()
		}
	}}

	out := runApp(t, hub, "report t1\nquit\n")
	require.Contains(t, out, "report ready")
	require.Contains(t, out, "download: /v1/reports/report-go-1.pdf")
}

func TestAppRejectsUnknownCommand(t *testing.T) {
	hub := &fakeHub{send: func(wire.Kind, any) wire.Response { return itemsResponse() }}
	out := runApp(t, hub, "frobnicate\nquit\n")
	require.Contains(t, out, `unknown command "frobnicate"`)
}

func TestAppBadIndexIsAnError(t *testing.T) {
	hub := &fakeHub{send: func(wire.Kind, any) wire.Response { return itemsResponse() }}
	out := runApp(t, hub, "open 7\nquit\n")
	require.Contains(t, out, "no item 7 in the listing")
}
