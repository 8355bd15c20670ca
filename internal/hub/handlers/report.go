package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeff0926/webinsight-sub001/internal/capture"
	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/report"
	"github.com/jeff0926/webinsight-sub001/internal/storage"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// downloadTTL is how long a signed report link stays valid. Long enough to
// click, short enough that links do not circulate.
const downloadTTL = 15 * time.Minute

// GenerateReport renders the PDF report for a tag and returns a signed
// download link. Key points are included when a stored analysis exists and
// the request does not opt out; generating them is the caller's separate
// step, not repeated here.
func GenerateReport(ctx context.Context, deps Deps, req wire.ReportRequest) Result {
	if req.TagID == "" {
		return fail(wire.ErrInvalidPayload)
	}

	tag, err := deps.Tags().GetTag(ctx, req.TagID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(wire.ErrNotFound)
		}
		logger.Errorf("hub: report tag lookup failed: %v", err)
		return fail(wire.ErrInternal)
	}

	deps.Notify(wire.ReportStatus{
		Message:  fmt.Sprintf("Collecting items tagged '%s'...", tag.Name),
		Severity: wire.SeverityInfo,
		TagID:    tag.ID,
	})

	items, err := deps.Content().ListItemsByTag(ctx, tag.ID)
	if err != nil {
		logger.Errorf("hub: report item load failed: %v", err)
		return fail(wire.ErrInternal)
	}

	data := report.ReportData{
		TagName:     tag.Name,
		GeneratedAt: deps.Now(),
	}
	var latestAnalysis *wire.ContentItem
	for i, item := range items {
		if item.IsKeyPointsAnalysis() {
			// Items arrive newest first; the first hit is the one to use.
			if latestAnalysis == nil {
				latestAnalysis = &items[i]
			}
			continue
		}
		if item.Type == wire.ItemTypeAnalysis {
			continue
		}
		data.Items = append(data.Items, reportItem(item))
	}
	if len(data.Items) == 0 {
		deps.Notify(wire.ReportStatus{
			Message:  fmt.Sprintf("No content tagged '%s' to report on", tag.Name),
			Severity: wire.SeverityError,
			TagID:    tag.ID,
		})
		return fail(wire.ErrNoContent)
	}
	if latestAnalysis != nil && !req.Options.SkipKeyPoints {
		data.KeyPoints = splitPoints(latestAnalysis.Content)
	}

	deps.Notify(wire.ReportStatus{
		Message:  fmt.Sprintf("Rendering PDF report for '%s' (%d items)...", tag.Name, len(data.Items)),
		Severity: wire.SeverityInfo,
		TagID:    tag.ID,
	})

	name, pages, err := deps.Renderer().Render(data)
	if err != nil {
		logger.Errorf("hub: report render failed: %v", err)
		deps.Notify(wire.ReportStatus{
			Message:  "Report rendering failed: " + err.Error(),
			Severity: wire.SeverityError,
			TagID:    tag.ID,
		})
		return fail(wire.ErrInternal)
	}
	logger.Infof("hub: rendered %s (%d pages)", name, pages)

	deps.Notify(wire.ReportStatus{
		Message:  "Report ready: " + name,
		Severity: wire.SeverityInfo,
		TagID:    tag.ID,
	})
	return respond(wire.OK(wire.ReportResult{
		Filename: name,
		URL:      signedDownloadURL(deps, name),
	}))
}

// reportItem maps a stored item onto its printed form, decoding the area
// image when one is attached.
func reportItem(item wire.ContentItem) report.ReportItem {
	out := report.ReportItem{
		Title:     item.Title,
		URL:       item.URL,
		Content:   item.Content,
		CreatedAt: item.CreatedAt,
	}
	if item.ImageData != "" {
		png, err := capture.DecodeDataURL(item.ImageData)
		if err != nil {
			logger.Warnf("hub: report image decode failed for %s: %v", item.ID, err)
		} else {
			out.ImagePNG = png
		}
	}
	return out
}

// splitPoints reverses the one-point-per-line storage format.
func splitPoints(content string) []string {
	var points []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			points = append(points, line)
		}
	}
	return points
}

func signedDownloadURL(deps Deps, name string) string {
	exp := deps.Now().Add(downloadTTL)
	sig := deps.Signer().Sign(name, exp)
	return fmt.Sprintf("/v1/reports/%s?exp=%d&sig=%s", name, exp.Unix(), sig)
}
