package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/storage"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// ListTags returns every tag, sorted by name.
func ListTags(ctx context.Context, deps Deps) Result {
	tags, err := deps.Tags().ListTags(ctx)
	if err != nil {
		logger.Errorf("hub: list tags failed: %v", err)
		return fail(wire.ErrInternal)
	}
	return respond(wire.OK(wire.TagList{Tags: tags}))
}

// TagsForItem returns the tags attached to one item.
func TagsForItem(ctx context.Context, deps Deps, req wire.ItemRef) Result {
	if req.ContentID == "" {
		return fail(wire.ErrInvalidPayload)
	}
	tags, err := deps.Tags().TagsForItem(ctx, req.ContentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(wire.ErrNotFound)
		}
		logger.Errorf("hub: tags for item failed: %v", err)
		return fail(wire.ErrInternal)
	}
	return respond(wire.OK(wire.TagList{Tags: tags}))
}

// AddTag attaches a tag to an item, creating the tag when the name is new.
// Attaching an already-attached tag succeeds and changes nothing.
func AddTag(ctx context.Context, deps Deps, req wire.AddTagRequest) Result {
	if req.ContentID == "" || strings.TrimSpace(req.TagName) == "" {
		return fail(wire.ErrInvalidPayload)
	}

	tag, err := deps.Tags().EnsureTag(ctx, req.TagName)
	if err != nil {
		logger.Errorf("hub: ensure tag failed: %v", err)
		return fail(wire.ErrInternal)
	}
	if err := deps.Tags().AttachTag(ctx, req.ContentID, tag.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(wire.ErrNotFound)
		}
		logger.Errorf("hub: attach tag failed: %v", err)
		return fail(wire.ErrInternal)
	}
	return saved(wire.OK(wire.AddTagResult{Tag: tag}), wire.ChangeTagged, tag.ID)
}

// RemoveTag detaches a tag from an item.
func RemoveTag(ctx context.Context, deps Deps, req wire.RemoveTagRequest) Result {
	if req.ContentID == "" || req.TagID == "" {
		return fail(wire.ErrInvalidPayload)
	}
	if err := deps.Tags().DetachTag(ctx, req.ContentID, req.TagID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(wire.ErrNotFound)
		}
		logger.Errorf("hub: detach tag failed: %v", err)
		return fail(wire.ErrInternal)
	}
	return saved(wire.OK(nil), wire.ChangeUntagged, req.TagID)
}
