package panel

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeff0926/webinsight-sub001/internal/transport"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// CapturePage pulls the current page out of a tab's agent and persists it.
// tabID may be empty to target the most recently registered tab.
func CapturePage(ctx context.Context, hub Requester, tabID string) (wire.SavedRef, error) {
	resp := hub.Send(ctx, wire.KindGetPageData, nil, transport.ToAgent(tabID))
	if !resp.Success {
		return wire.SavedRef{}, fmt.Errorf("get page data: %s", resp.Error)
	}
	var page wire.PageData
	if err := resp.Bind(&page); err != nil {
		return wire.SavedRef{}, fmt.Errorf("get page data: %w", err)
	}

	resp = hub.Send(ctx, wire.KindSavePage, wire.SavePageRequest{PageData: page, TabID: tabID})
	if !resp.Success {
		return wire.SavedRef{}, fmt.Errorf("save page: %s", resp.Error)
	}
	var ref wire.SavedRef
	if err := resp.Bind(&ref); err != nil {
		return wire.SavedRef{}, fmt.Errorf("save page: %w", err)
	}
	return ref, nil
}

// StartAreaSelection puts a tab's agent into selection mode. The capture
// itself arrives later from the agent, once the user commits a region.
func StartAreaSelection(ctx context.Context, hub Requester, tabID string) error {
	resp := hub.Send(ctx, wire.KindStartAreaSelection, nil, transport.ToAgent(tabID))
	if !resp.Success {
		return fmt.Errorf("start selection: %s", resp.Error)
	}
	return nil
}

// ListTags fetches every known tag.
func ListTags(ctx context.Context, hub Requester) ([]wire.Tag, error) {
	resp := hub.Send(ctx, wire.KindGetAllTags, nil)
	if !resp.Success {
		return nil, fmt.Errorf("list tags: %s", resp.Error)
	}
	var list wire.TagList
	if err := resp.Bind(&list); err != nil {
		return nil, err
	}
	return list.Tags, nil
}

// TagItem attaches a tag by name, creating it on first use.
func TagItem(ctx context.Context, hub Requester, contentID, tagName string) (wire.Tag, error) {
	if strings.TrimSpace(tagName) == "" {
		return wire.Tag{}, fmt.Errorf("tag name required")
	}
	resp := hub.Send(ctx, wire.KindAddTagToItem, wire.AddTagRequest{ContentID: contentID, TagName: tagName})
	if !resp.Success {
		return wire.Tag{}, fmt.Errorf("add tag: %s", resp.Error)
	}
	var result wire.AddTagResult
	if err := resp.Bind(&result); err != nil {
		return wire.Tag{}, err
	}
	return result.Tag, nil
}

// UntagItem detaches a tag from an item.
func UntagItem(ctx context.Context, hub Requester, contentID, tagID string) error {
	resp := hub.Send(ctx, wire.KindRemoveTagFromItem, wire.RemoveTagRequest{ContentID: contentID, TagID: tagID})
	if !resp.Success {
		return fmt.Errorf("remove tag: %s", resp.Error)
	}
	return nil
}

// DeleteItem removes an item from the store.
func DeleteItem(ctx context.Context, hub Requester, contentID string) error {
	resp := hub.Send(ctx, wire.KindDeleteItem, wire.DeleteItemRequest{ID: contentID})
	if !resp.Success {
		return fmt.Errorf("delete: %s", resp.Error)
	}
	return nil
}
