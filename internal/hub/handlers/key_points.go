package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeff0926/webinsight-sub001/internal/inference"
	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/storage"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// KeyPointsForTag distills the items under a tag into bullet points and
// persists them as an analysis item, replacing any earlier run for the same
// tag. Progress is streamed to the panel while the model works.
func KeyPointsForTag(ctx context.Context, deps Deps, req wire.TagRef) Result {
	if req.TagID == "" {
		return fail(wire.ErrInvalidPayload)
	}

	tag, err := deps.Tags().GetTag(ctx, req.TagID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(wire.ErrNotFound)
		}
		logger.Errorf("hub: key points tag lookup failed: %v", err)
		return fail(wire.ErrInternal)
	}

	items, err := deps.Content().ListItemsByTag(ctx, tag.ID)
	if err != nil {
		logger.Errorf("hub: key points item load failed: %v", err)
		return fail(wire.ErrInternal)
	}
	docs := documentsFromItems(items)
	if len(docs) == 0 {
		return fail(wire.ErrNoContent)
	}

	deps.Notify(wire.ReportStatus{
		Message:  fmt.Sprintf("Generating key points for '%s' from %d items...", tag.Name, len(docs)),
		Severity: wire.SeverityInfo,
		TagID:    tag.ID,
	})

	points, err := deps.KeyPoints().KeyPoints(ctx, inference.KeyPointsRequest{
		Topic:     tag.Name,
		Documents: docs,
	})
	if err != nil {
		logger.Errorf("hub: key points generation failed: %v", err)
		deps.Notify(wire.ReportStatus{
			Message:  "Key points generation failed: " + err.Error(),
			Severity: wire.SeverityWarn,
			TagID:    tag.ID,
		})
		return fail(wire.ErrInternal)
	}
	if len(points) == 0 {
		return fail(wire.ErrNoContent)
	}

	now := deps.Now().UnixMilli()
	item := wire.ContentItem{
		ID:          deps.NewID(),
		Type:        wire.ItemTypeAnalysis,
		Subtype:     wire.SubtypeKeyPoints,
		Title:       wire.KeyPointsTitlePrefix + tag.Name,
		Content:     strings.Join(points, "\n"),
		SourceTagID: tag.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := deps.Content().SaveAnalysis(ctx, &item); err != nil {
		logger.Errorf("hub: save key points failed: %v", err)
		return fail(wire.ErrInternal)
	}

	result := wire.KeyPointsResult{
		NewID:      item.ID,
		KeyPoints:  points,
		SourceInfo: sourceInfo(len(docs), tag.Name),
	}
	return saved(wire.OK(result), wire.ChangeAnalyzed, tag.ID)
}

// documentsFromItems turns stored items into inference inputs. Analysis
// items are left out so earlier summaries never feed the next one, and
// items with no text contribute nothing.
func documentsFromItems(items []wire.ContentItem) []inference.Document {
	docs := make([]inference.Document, 0, len(items))
	for _, item := range items {
		if item.Type == wire.ItemTypeAnalysis {
			continue
		}
		if strings.TrimSpace(item.Content) == "" {
			continue
		}
		docs = append(docs, inference.Document{Title: item.Title, Content: item.Content})
	}
	return docs
}

func sourceInfo(n int, tagName string) string {
	if n == 1 {
		return fmt.Sprintf("1 item tagged '%s'", tagName)
	}
	return fmt.Sprintf("%d items tagged '%s'", n, tagName)
}
