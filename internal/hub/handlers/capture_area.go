package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeff0926/webinsight-sub001/internal/capture"
	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// minCaptureSize mirrors the agent-side selection minimum. The agent already
// refuses to emit smaller rects, but the hub accepts frames from any
// connected agent and re-checks.
const minCaptureSize = 5

// CaptureArea persists a committed area selection as a new item. Agents ship
// the uncropped viewport screenshot; the crop to the selected region happens
// here, scaled by the device pixel ratio, so the stored image holds exactly
// what the user framed.
func CaptureArea(ctx context.Context, deps Deps, req wire.CaptureAreaPayload) Result {
	rect := req.Rect
	if rect.Empty() || !rect.MeetsMinSize(minCaptureSize) {
		return fail(wire.ErrInvalidPayload)
	}

	imageData := ""
	if req.Image != "" {
		cropped, err := capture.CropDataURL(req.Image, rect, req.DevicePixelRatio)
		if err != nil {
			// A capture without its image is still worth keeping; the
			// text metadata survives.
			logger.Warnf("hub: area crop failed, saving without image: %v", err)
		} else {
			imageData = cropped
		}
	}

	now := deps.Now().UnixMilli()
	item := wire.ContentItem{
		ID:        deps.NewID(),
		Type:      wire.ItemTypeArea,
		Title:     captureTitle(req),
		URL:       req.URL,
		Content:   captureContent(req, rect),
		ImageData: imageData,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := deps.Content().SaveItem(ctx, &item); err != nil {
		logger.Errorf("hub: save area capture failed: %v", err)
		return fail(wire.ErrInternal)
	}
	return saved(wire.OK(wire.SavedRef{ID: item.ID}), wire.ChangeSaved, "")
}

// captureTitle labels the item after the page it was clipped from.
func captureTitle(req wire.CaptureAreaPayload) string {
	if t := strings.TrimSpace(req.Title); t != "" {
		return "Area capture: " + t
	}
	if req.URL != "" {
		return "Area capture: " + req.URL
	}
	return "Area capture"
}

// captureContent records where on the page the region sat, plus the page's
// outbound links, so area items stay useful in text-only listings and
// reports.
func captureContent(req wire.CaptureAreaPayload, rect wire.Rect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Region %dx%d at (%d, %d)", rect.Width, rect.Height, rect.X, rect.Y)
	if req.URL != "" {
		fmt.Fprintf(&b, " of %s", req.URL)
	}
	if len(req.Links) > 0 {
		b.WriteString("\nLinks on page:")
		for _, l := range req.Links {
			b.WriteString("\n- ")
			b.WriteString(l)
		}
	}
	return b.String()
}
