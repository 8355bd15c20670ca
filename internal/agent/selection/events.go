package selection

import "github.com/jeff0926/webinsight-sub001/internal/wire"

// Event is the marker interface for inputs consumed by the reducer.
type Event interface {
	isSelectionEvent()
}

// ActivateEvent arms the overlay. Reply receives nil once armed, or
// ErrAlreadyActive when a selection is already in progress.
type ActivateEvent struct {
	Reply chan error
}

func (ActivateEvent) isSelectionEvent() {}

// DeactivateEvent tears the overlay down from outside the drag, e.g. when
// the page navigates away. A no-op when inactive.
type DeactivateEvent struct{}

func (DeactivateEvent) isSelectionEvent() {}

// PointerDownEvent starts a drag at At.
type PointerDownEvent struct {
	Epoch int64
	At    wire.Point
}

func (PointerDownEvent) isSelectionEvent() {}

// PointerMoveEvent extends the drag to At.
type PointerMoveEvent struct {
	Epoch int64
	At    wire.Point
}

func (PointerMoveEvent) isSelectionEvent() {}

// PointerUpEvent ends the drag at At, committing or cancelling.
type PointerUpEvent struct {
	Epoch int64
	At    wire.Point
}

func (PointerUpEvent) isSelectionEvent() {}

// EscapeEvent cancels the attempt at any active phase.
type EscapeEvent struct {
	Epoch int64
}

func (EscapeEvent) isSelectionEvent() {}
