package page

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// Pointer input kinds reported by an overlay.
const (
	InputDown   = "down"
	InputMove   = "move"
	InputUp     = "up"
	InputEscape = "escape"
)

// InputEvent is a pointer or keyboard event captured by the page overlay.
type InputEvent struct {
	// Epoch is the selection epoch the overlay was mounted under.
	Epoch int64

	// Kind is one of the Input constants.
	Kind string

	// X, Y is the pointer position in CSS pixels. Zero for escape.
	X, Y int
}

// mountOverlayJS installs the selection layer and an event buffer the pump
// drains. Listeners write into the buffer only; nothing calls back out of
// the page.
const mountOverlayJS = `
(epoch) => {
	if (document.getElementById('__webinsight_overlay')) return;
	window.__webinsightSel = { epoch: epoch, events: [] };

	const layer = document.createElement('div');
	layer.id = '__webinsight_overlay';
	layer.style.cssText = 'position:fixed;inset:0;z-index:2147483647;cursor:crosshair;background:rgba(0,0,0,0.08);';

	const box = document.createElement('div');
	box.id = '__webinsight_box';
	box.style.cssText = 'position:fixed;border:1px solid #4a90d9;background:rgba(74,144,217,0.15);display:none;pointer-events:none;';
	layer.appendChild(box);

	const push = (kind, ev) => {
		const s = window.__webinsightSel;
		if (!s) return;
		s.events.push({ kind: kind, x: Math.round(ev.clientX || 0), y: Math.round(ev.clientY || 0) });
	};
	layer.addEventListener('pointerdown', (ev) => { ev.preventDefault(); push('down', ev); });
	layer.addEventListener('pointermove', (ev) => push('move', ev));
	layer.addEventListener('pointerup', (ev) => { ev.preventDefault(); push('up', ev); });

	const esc = (ev) => {
		if (ev.key === 'Escape') push('escape', ev);
	};
	window.__webinsightEsc = esc;
	window.addEventListener('keydown', esc, true);

	document.documentElement.appendChild(layer);
}
`

const trackOverlayJS = `
(epoch, x, y, w, h) => {
	const s = window.__webinsightSel;
	if (!s || s.epoch !== epoch) return;
	const box = document.getElementById('__webinsight_box');
	if (!box) return;
	box.style.display = 'block';
	box.style.left = x + 'px';
	box.style.top = y + 'px';
	box.style.width = w + 'px';
	box.style.height = h + 'px';
}
`

// teardownOverlayJS resolves after two animation frames so the removal is
// painted before any screenshot that follows.
const teardownOverlayJS = `
() => new Promise((resolve) => {
	const layer = document.getElementById('__webinsight_overlay');
	if (layer) layer.remove();
	if (window.__webinsightEsc) {
		window.removeEventListener('keydown', window.__webinsightEsc, true);
		delete window.__webinsightEsc;
	}
	delete window.__webinsightSel;
	requestAnimationFrame(() => requestAnimationFrame(resolve));
})
`

const drainOverlayJS = `
() => {
	const s = window.__webinsightSel;
	if (!s || s.events.length === 0) return null;
	const out = { epoch: s.epoch, events: s.events };
	s.events = [];
	return out;
}
`

// RodOverlay draws the selection marquee inside a live tab and buffers the
// pointer input it swallows.
type RodOverlay struct {
	page *rod.Page
}

// NewRodOverlay builds an overlay for the given tab.
func NewRodOverlay(p *rod.Page) *RodOverlay {
	return &RodOverlay{page: p}
}

func (o *RodOverlay) Mount(epoch int64) error {
	return o.eval(mountOverlayJS, epoch)
}

func (o *RodOverlay) Track(epoch int64, r wire.Rect) error {
	return o.eval(trackOverlayJS, epoch, r.X, r.Y, r.Width, r.Height)
}

func (o *RodOverlay) Teardown(int64) error {
	_, err := o.page.Evaluate(&rod.EvalOptions{
		JS:           teardownOverlayJS,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return fmt.Errorf("teardown overlay: %w", err)
	}
	return nil
}

func (o *RodOverlay) eval(js string, args ...interface{}) error {
	_, err := o.page.Evaluate(&rod.EvalOptions{
		JS:      js,
		JSArgs:  args,
		ByValue: true,
	})
	if err != nil {
		return fmt.Errorf("overlay eval: %w", err)
	}
	return nil
}

// Pump polls the page's input buffer and forwards captured events until ctx
// ends. Events keep the epoch of the overlay that buffered them, so input
// from a torn-down overlay is filtered out downstream.
func (o *RodOverlay) Pump(ctx context.Context, interval time.Duration, emit func(InputEvent)) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ev := range o.drain(ctx) {
				emit(ev)
			}
		}
	}
}

func (o *RodOverlay) drain(ctx context.Context) []InputEvent {
	res, err := o.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:      drainOverlayJS,
		ByValue: true,
	})
	if err != nil || res == nil || res.Value.Nil() {
		return nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil
	}

	var batch struct {
		Epoch  int64 `json:"epoch"`
		Events []struct {
			Kind string `json:"kind"`
			X    int    `json:"x"`
			Y    int    `json:"y"`
		} `json:"events"`
	}
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil
	}

	out := make([]InputEvent, 0, len(batch.Events))
	for _, ev := range batch.Events {
		out = append(out, InputEvent{Epoch: batch.Epoch, Kind: ev.Kind, X: ev.X, Y: ev.Y})
	}
	return out
}
