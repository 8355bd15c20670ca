package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

func TestSavePage_PersistsAndEmitsChange(t *testing.T) {
	var stored wire.ContentItem
	b := &depsBuilder{
		content: fakeContentQueries{
			saveItem: func(ctx context.Context, item *wire.ContentItem) error {
				stored = *item
				return nil
			},
		},
	}

	req := wire.SavePageRequest{PageData: wire.PageData{
		URL:   "https://go.dev/blog/pipelines",
		Title: "Go Concurrency Patterns",
		Text:  "Pipelines connect stages with channels.",
	}}
	res := SavePage(context.Background(), b.build(), req)

	require.True(t, res.Response().Success)
	var ref wire.SavedRef
	require.NoError(t, res.Response().Bind(&ref))
	require.Equal(t, "id-1", ref.ID)

	require.Equal(t, wire.ItemTypePage, stored.Type)
	require.Equal(t, "Go Concurrency Patterns", stored.Title)
	require.Equal(t, "https://go.dev/blog/pipelines", stored.URL)
	require.Equal(t, "Pipelines connect stages with channels.", stored.Content)
	require.Equal(t, int64(1700000000000), stored.CreatedAt)

	require.Len(t, res.Changes(), 1)
	require.Equal(t, wire.ChangeSaved, res.Changes()[0].Reason)
}

func TestSavePage_TitleFallsBackToURL(t *testing.T) {
	var stored wire.ContentItem
	b := &depsBuilder{
		content: fakeContentQueries{
			saveItem: func(ctx context.Context, item *wire.ContentItem) error {
				stored = *item
				return nil
			},
		},
	}

	req := wire.SavePageRequest{PageData: wire.PageData{URL: "https://example.com", Text: "body"}}
	res := SavePage(context.Background(), b.build(), req)

	require.True(t, res.Response().Success)
	require.Equal(t, "https://example.com", stored.Title)
}

func TestSavePage_EmptyPageRejected(t *testing.T) {
	b := &depsBuilder{}
	res := SavePage(context.Background(), b.build(), wire.SavePageRequest{})

	require.False(t, res.Response().Success)
	require.Equal(t, wire.ErrInvalidPayload, res.Response().Error)
	require.Empty(t, res.Changes())
}

func TestSavePage_StoreFailure(t *testing.T) {
	b := &depsBuilder{
		content: fakeContentQueries{
			saveItem: func(ctx context.Context, item *wire.ContentItem) error {
				return fmt.Errorf("disk full")
			},
		},
	}

	req := wire.SavePageRequest{PageData: wire.PageData{URL: "https://example.com", Text: "body"}}
	res := SavePage(context.Background(), b.build(), req)

	require.False(t, res.Response().Success)
	require.Equal(t, wire.ErrInternal, res.Response().Error)
	require.Empty(t, res.Changes())
}
