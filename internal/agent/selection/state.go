// Package selection owns the area-selection state machine.
//
// All pointer and lifecycle inputs are serialized onto one runtime loop; the
// pure reducer turns them into state transitions plus commands for the
// overlay and the capture pipeline. Nothing in here touches the page
// directly, which keeps every transition unit-testable.
package selection

import (
	"errors"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// ErrAlreadyActive is reported when activation is requested while a
// selection is already in progress.
var ErrAlreadyActive = errors.New("selection already active")

// Phase is the selection lifecycle phase.
type Phase string

const (
	// PhaseInactive means no overlay is mounted.
	PhaseInactive Phase = "Inactive"
	// PhaseArmed means the overlay is up and waiting for a pointer press.
	PhaseArmed Phase = "Armed"
	// PhaseDragging means a rectangle is being dragged out.
	PhaseDragging Phase = "Dragging"
)

// Terminal outcomes of a selection attempt, recorded for observability.
const (
	// OutcomeCommitted means a capture was emitted.
	OutcomeCommitted = "committed"
	// OutcomeCancelled means the attempt ended without a capture.
	OutcomeCancelled = "cancelled"
)

// State is the loop-owned selection state.
type State struct {
	Phase Phase

	// Origin is the pointer-down position. Valid only while dragging.
	Origin wire.Point

	// Current is the latest pointer position. Valid only while dragging.
	Current wire.Point

	// MinSize is the smallest committable edge in CSS pixels. Drags below
	// it in either dimension cancel instead of committing.
	MinSize int

	// Epoch increments on each activation. Pointer events carry the epoch
	// they were generated under so input from a torn-down overlay cannot
	// leak into a new selection.
	Epoch int64

	// LastOutcome records how the most recent attempt ended.
	LastOutcome string
}
