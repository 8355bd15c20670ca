package handlers

import (
	"context"
	"strings"

	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// SavePage persists the extracted content of a whole page as a new item and
// emits a "saved" change on success.
func SavePage(ctx context.Context, deps Deps, req wire.SavePageRequest) Result {
	page := req.PageData
	if page.URL == "" && strings.TrimSpace(page.Text) == "" {
		return fail(wire.ErrInvalidPayload)
	}

	now := deps.Now().UnixMilli()
	item := wire.ContentItem{
		ID:        deps.NewID(),
		Type:      wire.ItemTypePage,
		Title:     pageTitle(page),
		URL:       page.URL,
		Content:   page.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := deps.Content().SaveItem(ctx, &item); err != nil {
		logger.Errorf("hub: save page failed: %v", err)
		return fail(wire.ErrInternal)
	}
	return saved(wire.OK(wire.SavedRef{ID: item.ID}), wire.ChangeSaved, "")
}

// pageTitle falls back to the URL for pages that carry no title.
func pageTitle(page wire.PageData) string {
	if t := strings.TrimSpace(page.Title); t != "" {
		return t
	}
	return page.URL
}
