package agent

import "github.com/jeff0926/webinsight-sub001/internal/wire"

// Overlay visualizes the in-page selection. RodOverlay in the page package
// implements it for live tabs.
type Overlay interface {
	// Mount puts the selection layer onto the page.
	Mount(epoch int64) error

	// Track updates the marquee while dragging.
	Track(epoch int64, r wire.Rect) error

	// Teardown removes the layer. Must be safe to call when nothing is
	// mounted.
	Teardown(epoch int64) error
}

// NopOverlay discards overlay commands. Static pages have nothing to draw
// on.
type NopOverlay struct{}

func (NopOverlay) Mount(int64) error            { return nil }
func (NopOverlay) Track(int64, wire.Rect) error { return nil }
func (NopOverlay) Teardown(int64) error         { return nil }
