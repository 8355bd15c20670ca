package panel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

func TestCapturePage_PullsThenSaves(t *testing.T) {
	page := wire.PageData{URL: "https://example.com", Title: "Example", Text: "Body."}
	hub := &fakeHub{send: func(kind wire.Kind, _ any) wire.Response {
		switch kind {
		case wire.KindGetPageData:
			return wire.OK(page)
		case wire.KindSavePage:
			return wire.OK(wire.SavedRef{ID: "id-1"})
		default:
			return wire.Fail(wire.ErrUnknownKind)
		}
	}}

	ref, err := CapturePage(context.Background(), hub, "tab-1")
	require.NoError(t, err)
	require.Equal(t, "id-1", ref.ID)

	require.Equal(t, []wire.Kind{wire.KindGetPageData, wire.KindSavePage}, hub.kinds())
	req, ok := hub.payload(1).(wire.SavePageRequest)
	require.True(t, ok)
	require.Equal(t, page, req.PageData, "the agent's extraction is saved untouched")
	require.Equal(t, "tab-1", req.TabID)
}

func TestCapturePage_AgentFailureStopsEarly(t *testing.T) {
	hub := &fakeHub{send: func(wire.Kind, any) wire.Response {
		return wire.Fail(wire.ErrNoAgent)
	}}

	_, err := CapturePage(context.Background(), hub, "ghost")
	require.Error(t, err)
	require.Contains(t, err.Error(), wire.ErrNoAgent)
	require.Equal(t, 1, hub.callCount(), "nothing is saved without page data")
}

func TestStartAreaSelection(t *testing.T) {
	hub := &fakeHub{send: func(kind wire.Kind, _ any) wire.Response {
		require.Equal(t, wire.KindStartAreaSelection, kind)
		return wire.OK(nil)
	}}
	require.NoError(t, StartAreaSelection(context.Background(), hub, "tab-1"))

	hub.send = func(wire.Kind, any) wire.Response {
		return wire.Fail("selection already active")
	}
	err := StartAreaSelection(context.Background(), hub, "tab-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already active")
}

func TestTagItem_RejectsBlankName(t *testing.T) {
	hub := &fakeHub{}
	_, err := TagItem(context.Background(), hub, "a", "   ")
	require.Error(t, err)
	require.Zero(t, hub.callCount())
}

func TestTagItem_ReturnsTag(t *testing.T) {
	hub := &fakeHub{send: func(kind wire.Kind, _ any) wire.Response {
		return wire.OK(wire.AddTagResult{Tag: wire.Tag{ID: "t1", Name: "research"}})
	}}
	tag, err := TagItem(context.Background(), hub, "a", "research")
	require.NoError(t, err)
	require.Equal(t, "t1", tag.ID)
}

func TestDeleteItem_PropagatesNotFound(t *testing.T) {
	hub := &fakeHub{send: func(wire.Kind, any) wire.Response {
		return wire.Fail(wire.ErrNotFound)
	}}
	err := DeleteItem(context.Background(), hub, "ghost")
	require.Error(t, err)
	require.Contains(t, err.Error(), wire.ErrNotFound)
}
