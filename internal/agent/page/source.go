// Package page extracts content and screenshots from the page an agent
// observes. Two implementations exist: RodSource drives a real Chrome tab
// over the DevTools protocol, and StaticSource reads an HTML file from disk
// so the rest of the agent stays testable without a browser.
package page

import (
	"context"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// maxLinks caps how many outbound links an extraction reports.
const maxLinks = 64

// Screenshot is a viewport capture.
type Screenshot struct {
	// PNG is the encoded image, in screenshot pixels.
	PNG []byte

	// DevicePixelRatio maps CSS pixels to screenshot pixels.
	DevicePixelRatio float64
}

// Source reads content from the page an agent is attached to.
type Source interface {
	// Extract returns the page's current content.
	Extract(ctx context.Context) (wire.PageData, error)

	// Screenshot captures the visible viewport.
	Screenshot(ctx context.Context) (Screenshot, error)

	// Close releases the underlying page.
	Close() error
}
