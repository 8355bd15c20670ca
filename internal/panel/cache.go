package panel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// Cache mirrors the hub's content listing for the UI. Reloads replace the
// listing wholesale; overlapping reloads resolve by issuance order, so the
// listing always reflects the most recently requested view no matter how
// the responses race back.
type Cache struct {
	hub      Requester
	onUpdate func()

	mu       sync.Mutex
	seq      int64
	filter   string
	items    []wire.ContentItem
	expanded map[string]bool
	tags     map[string][]wire.Tag
}

// NewCache builds an empty cache over the hub link. onUpdate fires after
// every applied change so the view can re-render (nil to skip).
func NewCache(hub Requester, onUpdate func()) *Cache {
	return &Cache{
		hub:      hub,
		onUpdate: onUpdate,
		expanded: make(map[string]bool),
		tags:     make(map[string][]wire.Tag),
	}
}

// Reload fetches the listing for filterKey ("" for everything) and replaces
// the cached items. A reload that has been superseded by a newer one by the
// time its response arrives is discarded silently.
func (c *Cache) Reload(ctx context.Context, filterKey string) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.filter = filterKey
	c.mu.Unlock()

	var resp wire.Response
	if filterKey == "" {
		resp = c.hub.Send(ctx, wire.KindGetAllSavedContent, nil)
	} else {
		resp = c.hub.Send(ctx, wire.KindGetFilteredItemsByTag, wire.TagFilterRequest{TagID: filterKey})
	}
	if !resp.Success {
		return errors.New(resp.Error)
	}
	var list wire.ItemList
	if err := resp.Bind(&list); err != nil {
		return err
	}

	c.mu.Lock()
	if seq < c.seq {
		c.mu.Unlock()
		logger.Debugf("panel: dropping stale listing for filter %q", filterKey)
		return nil
	}
	c.items = list.Items
	c.pruneLocked()
	c.mu.Unlock()

	c.update()
	return nil
}

// BindInvalidation subscribes the cache to content-change notifications so
// edits made anywhere refresh the listing under the active filter.
func (c *Cache) BindInvalidation(src NotificationSource) {
	src.HandleNotify(wire.KindContentChanged, func(ctx context.Context, payload json.RawMessage) {
		var change wire.ContentChanged
		if err := json.Unmarshal(payload, &change); err != nil {
			logger.Warnf("panel: bad content change payload: %v", err)
			return
		}
		logger.Debugf("panel: content changed (%s), reloading", change.Reason)
		if err := c.Reload(ctx, c.Filter()); err != nil {
			logger.Warnf("panel: reload after %s change failed: %v", change.Reason, err)
		}
	})
}

// Filter returns the active filter key, "" when unfiltered.
func (c *Cache) Filter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Expand opens an item and returns its tags, fetching them the first time.
// The item body is already local; expanding never refetches it.
func (c *Cache) Expand(ctx context.Context, contentID string) ([]wire.Tag, error) {
	c.mu.Lock()
	if tags, ok := c.tags[contentID]; ok {
		c.expanded[contentID] = true
		c.mu.Unlock()
		c.update()
		return tags, nil
	}
	c.mu.Unlock()

	resp := c.hub.Send(ctx, wire.KindGetTagsForItem, wire.ItemRef{ContentID: contentID})
	if !resp.Success {
		return nil, errors.New(resp.Error)
	}
	var list wire.TagList
	if err := resp.Bind(&list); err != nil {
		return nil, err
	}
	if list.Tags == nil {
		// Keep "loaded, no tags" distinguishable from "never loaded".
		list.Tags = []wire.Tag{}
	}

	c.mu.Lock()
	c.expanded[contentID] = true
	c.tags[contentID] = list.Tags
	c.mu.Unlock()

	c.update()
	return list.Tags, nil
}

// Collapse closes an item. Purely local.
func (c *Cache) Collapse(contentID string) {
	c.mu.Lock()
	delete(c.expanded, contentID)
	c.mu.Unlock()
	c.update()
}

// ItemView is one listing row with its local UI state.
type ItemView struct {
	Item     wire.ContentItem
	Expanded bool

	// Tags is populated once the row has been expanded.
	Tags []wire.Tag
}

// Snapshot copies the cached listing for rendering.
type Snapshot struct {
	Filter string
	Items  []ItemView
}

// Snapshot returns the current listing with UI state attached.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{Filter: c.filter, Items: make([]ItemView, 0, len(c.items))}
	for _, item := range c.items {
		snap.Items = append(snap.Items, ItemView{
			Item:     item,
			Expanded: c.expanded[item.ID],
			Tags:     c.tags[item.ID],
		})
	}
	return snap
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// pruneLocked drops UI state for items no longer in the listing and cached
// tag lists wholesale; a reload usually follows a change that could have
// retagged anything.
func (c *Cache) pruneLocked() {
	present := make(map[string]bool, len(c.items))
	for _, item := range c.items {
		present[item.ID] = true
	}
	for id := range c.expanded {
		if !present[id] {
			delete(c.expanded, id)
		}
	}
	c.tags = make(map[string][]wire.Tag)
}

func (c *Cache) update() {
	if c.onUpdate != nil {
		c.onUpdate()
	}
}
