// Package agent implements the page-side peer. It answers content requests
// from the hub and runs the area-selection loop for its tab.
package agent

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jeff0926/webinsight-sub001/internal/agent/page"
	"github.com/jeff0926/webinsight-sub001/internal/agent/selection"
	"github.com/jeff0926/webinsight-sub001/internal/capture"
	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/transport"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// Config controls an Agent.
type Config struct {
	// TabID identifies the tab this agent serves.
	TabID string

	// MinSize is the smallest committable selection edge in CSS pixels.
	// Zero uses the selection default.
	MinSize int
}

// Agent binds a page source and the selection loop to a hub connection.
type Agent struct {
	peer    *transport.Peer
	source  page.Source
	overlay Overlay
	sel     *selection.Runtime
	tabID   string

	loopDone chan struct{}
}

// New wires an agent onto peer. Request handlers are registered
// immediately; Start launches the selection loop.
func New(peer *transport.Peer, source page.Source, overlay Overlay, cfg Config) *Agent {
	if overlay == nil {
		overlay = NopOverlay{}
	}
	a := &Agent{
		peer:     peer,
		source:   source,
		overlay:  overlay,
		sel:      selection.New(selection.Config{MinSize: cfg.MinSize}),
		tabID:    cfg.TabID,
		loopDone: make(chan struct{}),
	}
	peer.Handle(wire.KindGetPageData, a.handleGetPageData)
	peer.Handle(wire.KindStartAreaSelection, a.handleStartSelection)
	return a
}

// TabID returns the tab this agent serves.
func (a *Agent) TabID() string { return a.tabID }

// Start launches the selection loop and its command interpreter.
func (a *Agent) Start(ctx context.Context) {
	a.sel.Start()
	go a.commandLoop(ctx)
}

// Stop shuts the selection loop down and waits for in-flight commands.
// Start must have been called.
func (a *Agent) Stop() {
	a.sel.Stop()
	<-a.loopDone
}

// SelectionState reports the current selection state for status displays.
func (a *Agent) SelectionState() selection.State {
	return a.sel.Snapshot()
}

// HandleInput feeds overlay pointer input into the selection loop.
func (a *Agent) HandleInput(ev page.InputEvent) {
	var evt selection.Event
	at := wire.Point{X: ev.X, Y: ev.Y}
	switch ev.Kind {
	case page.InputDown:
		evt = selection.PointerDownEvent{Epoch: ev.Epoch, At: at}
	case page.InputMove:
		evt = selection.PointerMoveEvent{Epoch: ev.Epoch, At: at}
	case page.InputUp:
		evt = selection.PointerUpEvent{Epoch: ev.Epoch, At: at}
	case page.InputEscape:
		evt = selection.EscapeEvent{Epoch: ev.Epoch}
	default:
		logger.Warnf("agent: unknown input kind %q", ev.Kind)
		return
	}
	if !a.sel.Post(evt) {
		logger.Warnf("agent: selection loop rejected %s input", ev.Kind)
	}
}

func (a *Agent) handleGetPageData(ctx context.Context, _ json.RawMessage) wire.Response {
	data, err := a.source.Extract(ctx)
	if err != nil {
		logger.Errorf("agent: page extraction failed: %v", err)
		return wire.Fail(wire.ErrInternal)
	}
	return wire.OK(data)
}

func (a *Agent) handleStartSelection(ctx context.Context, _ json.RawMessage) wire.Response {
	reply := make(chan error, 1)
	if !a.sel.Post(selection.ActivateEvent{Reply: reply}) {
		return wire.Fail(wire.ErrInternal)
	}
	select {
	case err := <-reply:
		switch {
		case errors.Is(err, selection.ErrAlreadyActive):
			return wire.Fail(wire.ErrSelectionActive)
		case err != nil:
			logger.Errorf("agent: selection activation failed: %v", err)
			return wire.Fail(wire.ErrInternal)
		}
		return wire.OK(nil)
	case <-ctx.Done():
		return wire.Fail(wire.ErrCanceled)
	}
}

// commandLoop interprets reducer commands against the overlay and fires the
// capture when a selection commits. Commands arrive in reducer order, so on
// a commit the overlay teardown always lands before the screenshot.
func (a *Agent) commandLoop(ctx context.Context) {
	defer close(a.loopDone)
	for cmd := range a.sel.Commands() {
		switch c := cmd.(type) {
		case selection.MountOverlayCommand:
			if err := a.overlay.Mount(c.Epoch); err != nil {
				logger.Warnf("agent: overlay mount failed: %v", err)
			}
		case selection.TrackRectCommand:
			if err := a.overlay.Track(c.Epoch, c.Rect); err != nil {
				logger.Tracef("agent: overlay track failed: %v", err)
			}
		case selection.TeardownCommand:
			if err := a.overlay.Teardown(c.Epoch); err != nil {
				logger.Warnf("agent: overlay teardown failed: %v", err)
			}
		case selection.EmitCaptureCommand:
			a.emitCapture(ctx, c)
		}
	}
}

// emitCapture sends exactly one capture request for a committed selection.
func (a *Agent) emitCapture(ctx context.Context, cmd selection.EmitCaptureCommand) {
	data, err := a.source.Extract(ctx)
	if err != nil {
		logger.Errorf("agent: capture aborted, page extraction failed: %v", err)
		return
	}

	payload := wire.CaptureAreaPayload{
		Rect:             cmd.Rect,
		DevicePixelRatio: 1,
		URL:              data.URL,
		Title:            data.Title,
		Lang:             data.Lang,
		Links:            data.Links,
	}
	if shot, err := a.source.Screenshot(ctx); err != nil {
		logger.Warnf("agent: capture continues without image: %v", err)
	} else {
		payload.Image = capture.EncodeDataURL(shot.PNG)
		if shot.DevicePixelRatio > 0 {
			payload.DevicePixelRatio = shot.DevicePixelRatio
		}
	}

	resp := a.peer.Send(ctx, wire.KindCaptureAreaFromContent, payload)
	if !resp.Success {
		logger.Errorf("agent: capture rejected: %s", resp.Error)
		return
	}
	var ref wire.SavedRef
	if err := resp.Bind(&ref); err == nil {
		logger.Infof("agent: area capture saved as %s", ref.ID)
	}
}
