package panel

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// previewRunes bounds the body excerpt shown for an expanded row.
const previewRunes = 280

// RenderListing formats the cached items as numbered terminal rows.
// Expanded rows show a body excerpt and the item's tags.
func RenderListing(snap Snapshot) string {
	var b strings.Builder
	if snap.Filter == "" {
		fmt.Fprintf(&b, "All content (%d items)\n", len(snap.Items))
	} else {
		fmt.Fprintf(&b, "Filtered by tag %s (%d items)\n", snap.Filter, len(snap.Items))
	}
	if len(snap.Items) == 0 {
		b.WriteString("  nothing captured yet\n")
		return b.String()
	}

	for i, row := range snap.Items {
		item := row.Item
		fmt.Fprintf(&b, "%3d. [%s] %s  (%s)\n",
			i+1, itemMarker(item), title(item), when(item.CreatedAt))
		if !row.Expanded {
			continue
		}
		if item.URL != "" {
			fmt.Fprintf(&b, "     %s\n", item.URL)
		}
		if excerpt := excerpt(item.Content); excerpt != "" {
			fmt.Fprintf(&b, "     %s\n", excerpt)
		}
		// A nil slice means the tags were never fetched (or were dropped
		// by an invalidation); only a loaded list is worth a line.
		if row.Tags != nil {
			fmt.Fprintf(&b, "     tags: %s\n", tagLine(row.Tags))
		}
	}
	return b.String()
}

// RenderStatus formats one progress notification as a transient line.
func RenderStatus(s wire.ReportStatus) string {
	switch s.Severity {
	case wire.SeverityWarn:
		return "! " + s.Message
	case wire.SeverityError:
		return "x " + s.Message
	default:
		return "* " + s.Message
	}
}

// RenderTaskRun summarizes a finished report run.
func RenderTaskRun(run *TaskRun) string {
	var b strings.Builder
	for _, step := range run.Steps {
		switch {
		case step.Err != nil:
			fmt.Fprintf(&b, "  %-10s failed: %v\n", step.Name, step.Err)
		case step.Note != "":
			fmt.Fprintf(&b, "  %-10s %s\n", step.Name, step.Note)
		default:
			fmt.Fprintf(&b, "  %-10s ok\n", step.Name)
		}
	}
	if run.Succeeded() {
		fmt.Fprintf(&b, "report ready in %s: %s\n",
			run.Finished.Sub(run.Started).Round(time.Millisecond), run.Report.Filename)
	} else {
		fmt.Fprintf(&b, "report failed: %v\n", run.Err)
	}
	return b.String()
}

// RenderTags formats the tag catalog.
func RenderTags(tags []wire.Tag) string {
	if len(tags) == 0 {
		return "no tags yet\n"
	}
	var b strings.Builder
	for _, tag := range tags {
		fmt.Fprintf(&b, "  %-12s %s\n", tag.ID, tag.Name)
	}
	return b.String()
}

func itemMarker(item wire.ContentItem) string {
	switch item.Type {
	case wire.ItemTypePage:
		return "page"
	case wire.ItemTypeArea:
		return "area"
	case wire.ItemTypeNote:
		return "note"
	case wire.ItemTypeAnalysis:
		return "analysis"
	default:
		return item.Type
	}
}

func title(item wire.ContentItem) string {
	if item.Title != "" {
		return item.Title
	}
	if item.URL != "" {
		return item.URL
	}
	return "(untitled)"
}

func when(unixMilli int64) string {
	if unixMilli == 0 {
		return "-"
	}
	return time.UnixMilli(unixMilli).Format("2006-01-02 15:04")
}

func excerpt(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) > previewRunes {
		return string(runes[:previewRunes]) + "..."
	}
	return content
}

func tagLine(tags []wire.Tag) string {
	if len(tags) == 0 {
		return "(none)"
	}
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return strings.Join(names, ", ")
}
