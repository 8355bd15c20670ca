package selection

import "github.com/jeff0926/webinsight-sub001/internal/wire"

// Command is the marker interface for effects emitted by the reducer and
// executed by the caller outside the loop.
type Command interface {
	isSelectionCommand()
}

// MountOverlayCommand puts the selection overlay onto the page.
type MountOverlayCommand struct {
	Epoch int64
}

func (MountOverlayCommand) isSelectionCommand() {}

// TrackRectCommand updates the visual marquee while dragging.
type TrackRectCommand struct {
	Epoch int64
	Rect  wire.Rect
}

func (TrackRectCommand) isSelectionCommand() {}

// TeardownCommand removes the overlay. On a commit it is emitted before
// EmitCaptureCommand so the overlay cannot appear in the screenshot.
type TeardownCommand struct {
	Epoch int64
}

func (TeardownCommand) isSelectionCommand() {}

// EmitCaptureCommand hands the committed rect to the capture pipeline.
type EmitCaptureCommand struct {
	Epoch int64
	Rect  wire.Rect
}

func (EmitCaptureCommand) isSelectionCommand() {}
