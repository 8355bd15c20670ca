package selection

import "github.com/jeff0926/webinsight-sub001/internal/wire"

// Reduce is the selection reducer. It is pure: the only outputs are the next
// state and the commands to execute.
func Reduce(state State, event Event) (State, []Command) {
	switch ev := event.(type) {
	case ActivateEvent:
		return reduceActivate(state, ev)
	case DeactivateEvent:
		return reduceDeactivate(state)
	case PointerDownEvent:
		return reducePointerDown(state, ev)
	case PointerMoveEvent:
		return reducePointerMove(state, ev)
	case PointerUpEvent:
		return reducePointerUp(state, ev)
	case EscapeEvent:
		return reduceEscape(state, ev)
	default:
		return state, nil
	}
}

func reduceActivate(state State, ev ActivateEvent) (State, []Command) {
	if state.Phase != PhaseInactive {
		replyTo(ev.Reply, ErrAlreadyActive)
		return state, nil
	}

	state.Epoch++
	state.Phase = PhaseArmed
	state.LastOutcome = ""
	replyTo(ev.Reply, nil)
	return state, []Command{MountOverlayCommand{Epoch: state.Epoch}}
}

func reduceDeactivate(state State) (State, []Command) {
	if state.Phase == PhaseInactive {
		return state, nil
	}
	epoch := state.Epoch
	state.Phase = PhaseInactive
	state.LastOutcome = OutcomeCancelled
	return state, []Command{TeardownCommand{Epoch: epoch}}
}

func reducePointerDown(state State, ev PointerDownEvent) (State, []Command) {
	if state.Phase != PhaseArmed || staleEpoch(state, ev.Epoch) {
		return state, nil
	}
	state.Phase = PhaseDragging
	state.Origin = ev.At
	state.Current = ev.At
	return state, nil
}

func reducePointerMove(state State, ev PointerMoveEvent) (State, []Command) {
	if state.Phase != PhaseDragging || staleEpoch(state, ev.Epoch) {
		return state, nil
	}
	state.Current = ev.At
	rect := wire.NormalizedRect(state.Origin, state.Current)
	return state, []Command{TrackRectCommand{Epoch: state.Epoch, Rect: rect}}
}

func reducePointerUp(state State, ev PointerUpEvent) (State, []Command) {
	if state.Phase != PhaseDragging || staleEpoch(state, ev.Epoch) {
		return state, nil
	}

	epoch := state.Epoch
	rect := wire.NormalizedRect(state.Origin, ev.At)
	state.Phase = PhaseInactive
	state.Origin = wire.Point{}
	state.Current = wire.Point{}

	if !rect.MeetsMinSize(state.MinSize) {
		state.LastOutcome = OutcomeCancelled
		return state, []Command{TeardownCommand{Epoch: epoch}}
	}

	// Teardown first: the overlay must be gone before the page is captured.
	state.LastOutcome = OutcomeCommitted
	return state, []Command{
		TeardownCommand{Epoch: epoch},
		EmitCaptureCommand{Epoch: epoch, Rect: rect},
	}
}

func reduceEscape(state State, ev EscapeEvent) (State, []Command) {
	if state.Phase == PhaseInactive || staleEpoch(state, ev.Epoch) {
		return state, nil
	}
	epoch := state.Epoch
	state.Phase = PhaseInactive
	state.Origin = wire.Point{}
	state.Current = wire.Point{}
	state.LastOutcome = OutcomeCancelled
	return state, []Command{TeardownCommand{Epoch: epoch}}
}

// staleEpoch filters input generated under a previous overlay. Zero means
// "current epoch" for callers that cannot know it.
func staleEpoch(state State, epoch int64) bool {
	return epoch != 0 && epoch != state.Epoch
}

func replyTo(reply chan error, err error) {
	if reply == nil {
		return
	}
	select {
	case reply <- err:
	default:
	}
}
