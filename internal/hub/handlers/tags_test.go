package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeff0926/webinsight-sub001/internal/storage"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

func TestAddTag_EnsuresAndAttaches(t *testing.T) {
	attached := ""
	b := &depsBuilder{
		tags: fakeTagQueries{
			ensureTag: func(ctx context.Context, name string) (wire.Tag, error) {
				require.Equal(t, "research", name)
				return wire.Tag{ID: "t1", Name: "research"}, nil
			},
			attachTag: func(ctx context.Context, itemID, tagID string) error {
				require.Equal(t, "item-1", itemID)
				attached = tagID
				return nil
			},
		},
	}

	res := AddTag(context.Background(), b.build(), wire.AddTagRequest{
		ContentID: "item-1",
		TagName:   "research",
	})

	require.True(t, res.Response().Success)
	require.Equal(t, "t1", attached)

	var out wire.AddTagResult
	require.NoError(t, res.Response().Bind(&out))
	require.Equal(t, "t1", out.Tag.ID)
	require.Equal(t, "research", out.Tag.Name)

	require.Len(t, res.Changes(), 1)
	require.Equal(t, wire.ChangeTagged, res.Changes()[0].Reason)
	require.Equal(t, "t1", res.Changes()[0].TagID)
}

func TestAddTag_MissingItem(t *testing.T) {
	b := &depsBuilder{
		tags: fakeTagQueries{
			ensureTag: func(ctx context.Context, name string) (wire.Tag, error) {
				return wire.Tag{ID: "t1", Name: name}, nil
			},
			attachTag: func(ctx context.Context, itemID, tagID string) error {
				return storage.ErrNotFound
			},
		},
	}

	res := AddTag(context.Background(), b.build(), wire.AddTagRequest{
		ContentID: "gone",
		TagName:   "research",
	})
	require.False(t, res.Response().Success)
	require.Equal(t, wire.ErrNotFound, res.Response().Error)
	require.Empty(t, res.Changes())
}

func TestAddTag_BlankNameRejected(t *testing.T) {
	b := &depsBuilder{}
	res := AddTag(context.Background(), b.build(), wire.AddTagRequest{
		ContentID: "item-1",
		TagName:   "   ",
	})
	require.False(t, res.Response().Success)
	require.Equal(t, wire.ErrInvalidPayload, res.Response().Error)
}

func TestRemoveTag_EmitsUntagged(t *testing.T) {
	b := &depsBuilder{
		tags: fakeTagQueries{
			detachTag: func(ctx context.Context, itemID, tagID string) error {
				require.Equal(t, "item-1", itemID)
				require.Equal(t, "t1", tagID)
				return nil
			},
		},
	}

	res := RemoveTag(context.Background(), b.build(), wire.RemoveTagRequest{
		ContentID: "item-1",
		TagID:     "t1",
	})
	require.True(t, res.Response().Success)
	require.Len(t, res.Changes(), 1)
	require.Equal(t, wire.ChangeUntagged, res.Changes()[0].Reason)
	require.Equal(t, "t1", res.Changes()[0].TagID)
}

func TestRemoveTag_NotAttached(t *testing.T) {
	b := &depsBuilder{
		tags: fakeTagQueries{
			detachTag: func(ctx context.Context, itemID, tagID string) error {
				return storage.ErrNotFound
			},
		},
	}

	res := RemoveTag(context.Background(), b.build(), wire.RemoveTagRequest{
		ContentID: "item-1",
		TagID:     "t9",
	})
	require.False(t, res.Response().Success)
	require.Equal(t, wire.ErrNotFound, res.Response().Error)
}

func TestTagsForItem(t *testing.T) {
	b := &depsBuilder{
		tags: fakeTagQueries{
			tagsForItem: func(ctx context.Context, itemID string) ([]wire.Tag, error) {
				require.Equal(t, "item-1", itemID)
				return []wire.Tag{{ID: "t1", Name: "go"}}, nil
			},
		},
	}

	res := TagsForItem(context.Background(), b.build(), wire.ItemRef{ContentID: "item-1"})
	require.True(t, res.Response().Success)

	var list wire.TagList
	require.NoError(t, res.Response().Bind(&list))
	require.Len(t, list.Tags, 1)
	require.Equal(t, "go", list.Tags[0].Name)
}

func TestTagsForItem_MissingItem(t *testing.T) {
	b := &depsBuilder{
		tags: fakeTagQueries{
			tagsForItem: func(ctx context.Context, itemID string) ([]wire.Tag, error) {
				return nil, storage.ErrNotFound
			},
		},
	}

	res := TagsForItem(context.Background(), b.build(), wire.ItemRef{ContentID: "gone"})
	require.False(t, res.Response().Success)
	require.Equal(t, wire.ErrNotFound, res.Response().Error)
}

func TestListTags(t *testing.T) {
	b := &depsBuilder{
		tags: fakeTagQueries{
			listTags: func(ctx context.Context) ([]wire.Tag, error) {
				return []wire.Tag{{ID: "t1", Name: "go"}, {ID: "t2", Name: "rust"}}, nil
			},
		},
	}

	res := ListTags(context.Background(), b.build())
	require.True(t, res.Response().Success)

	var list wire.TagList
	require.NoError(t, res.Response().Bind(&list))
	require.Len(t, list.Tags, 2)
}
