package handlers

import (
	"context"
	"errors"

	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/storage"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// ListContent returns every saved item, newest first.
func ListContent(ctx context.Context, deps Deps) Result {
	items, err := deps.Content().ListItems(ctx)
	if err != nil {
		logger.Errorf("hub: list content failed: %v", err)
		return fail(wire.ErrInternal)
	}
	return respond(wire.OK(wire.ItemList{Items: items}))
}

// FilterByTag returns the items carrying one tag, newest first.
func FilterByTag(ctx context.Context, deps Deps, req wire.TagFilterRequest) Result {
	if req.TagID == "" {
		return fail(wire.ErrInvalidPayload)
	}
	items, err := deps.Content().ListItemsByTag(ctx, req.TagID)
	if err != nil {
		logger.Errorf("hub: filter by tag failed: %v", err)
		return fail(wire.ErrInternal)
	}
	return respond(wire.OK(wire.ItemList{Items: items}))
}

// DeleteItem removes one saved item and emits a "deleted" change.
func DeleteItem(ctx context.Context, deps Deps, req wire.DeleteItemRequest) Result {
	if req.ID == "" {
		return fail(wire.ErrInvalidPayload)
	}
	if err := deps.Content().DeleteItem(ctx, req.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(wire.ErrNotFound)
		}
		logger.Errorf("hub: delete item failed: %v", err)
		return fail(wire.ErrInternal)
	}
	return saved(wire.OK(nil), wire.ChangeDeleted, "")
}
