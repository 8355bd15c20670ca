package panel

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

func TestRenderListing(t *testing.T) {
	snap := Snapshot{
		Filter: "",
		Items: []ItemView{
			{
				Item: wire.ContentItem{
					ID: "a", Type: wire.ItemTypePage, Title: "Go Blog",
					URL: "https://go.dev/blog", Content: "Concurrency   is not\nparallelism.",
					CreatedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC).UnixMilli(),
				},
				Expanded: true,
				Tags:     []wire.Tag{{ID: "t1", Name: "go"}, {ID: "t2", Name: "talks"}},
			},
			{Item: wire.ContentItem{ID: "b", Type: wire.ItemTypeArea, URL: "https://example.com/chart"}},
		},
	}

	out := RenderListing(snap)
	if !strings.Contains(out, "All content (2 items)") {
		t.Fatalf("missing header in %q", out)
	}
	if !strings.Contains(out, "[page] Go Blog") {
		t.Fatalf("missing page row in %q", out)
	}
	if !strings.Contains(out, "Concurrency is not parallelism.") {
		t.Fatalf("expanded body not flattened in %q", out)
	}
	if !strings.Contains(out, "tags: go, talks") {
		t.Fatalf("missing tag line in %q", out)
	}
	// The collapsed area row falls back to its URL and shows no body.
	if !strings.Contains(out, "[area] https://example.com/chart") {
		t.Fatalf("missing area row in %q", out)
	}
}

func TestRenderListingEmpty(t *testing.T) {
	out := RenderListing(Snapshot{Filter: "t9"})
	if !strings.Contains(out, "Filtered by tag t9") || !strings.Contains(out, "nothing captured yet") {
		t.Fatalf("unexpected empty render %q", out)
	}
}

func TestRenderStatusMarkers(t *testing.T) {
	cases := map[string]wire.ReportStatus{
		"* working":  {Message: "working", Severity: wire.SeverityInfo},
		"! degraded": {Message: "degraded", Severity: wire.SeverityWarn},
		"x broken":   {Message: "broken", Severity: wire.SeverityError},
	}
	for want, status := range cases {
		if got := RenderStatus(status); got != want {
			t.Fatalf("RenderStatus(%v) = %q, want %q", status, got, want)
		}
	}
}

func TestRenderTaskRun(t *testing.T) {
	run := &TaskRun{
		TagID:    "t1",
		Started:  time.Unix(100, 0),
		Finished: time.Unix(101, 0),
		Steps: []StepResult{
			{Name: "check", Note: "3 items, key points stored: false"},
			{Name: "key-points", Err: errors.New("model unavailable")},
			{Name: "report", Note: "report-go-1.pdf"},
		},
		Report: &wire.ReportResult{Filename: "report-go-1.pdf"},
	}

	out := RenderTaskRun(run)
	for _, want := range []string{"check", "failed: model unavailable", "report ready in 1s: report-go-1.pdf"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}

	run.Err = errors.New("report: internal_error")
	run.Report = nil
	out = RenderTaskRun(run)
	if !strings.Contains(out, "report failed: report: internal_error") {
		t.Fatalf("missing failure line in %q", out)
	}
}

func TestExcerptTruncates(t *testing.T) {
	long := strings.Repeat("word ", 200)
	got := excerpt(long)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("long excerpt not truncated: %q", got)
	}
	if len([]rune(got)) != previewRunes+3 {
		t.Fatalf("unexpected excerpt length %d", len([]rune(got)))
	}
}
