package page

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// extractJS gathers everything a capture needs in one page round trip.
const extractJS = `
() => {
	const meta = (name) => {
		const el = document.querySelector('meta[name="' + name + '"]');
		return el && el.content ? el.content : '';
	};
	const links = [];
	const seen = new Set();
	for (const a of document.querySelectorAll('a[href]')) {
		const href = a.href || '';
		if (!href.startsWith('http') || seen.has(href)) continue;
		seen.add(href);
		links.push(href);
		if (links.length >= 64) break;
	}
	return {
		url: location.href,
		title: document.title || '',
		lang: document.documentElement.lang || '',
		description: meta('description'),
		keywords: meta('keywords'),
		links: links,
		text: document.body ? document.body.innerText : '',
		html: document.documentElement ? document.documentElement.outerHTML : '',
		devicePixelRatio: window.devicePixelRatio || 1
	};
}
`

// RodSource drives a Chrome tab over the DevTools protocol.
type RodSource struct {
	browser *rod.Browser
	page    *rod.Page
	created bool
}

// NewRodSource connects to a running Chrome at controlURL and binds a tab.
// When targetURL is empty the first open page is reused; otherwise a new tab
// is opened and navigated there.
func NewRodSource(ctx context.Context, controlURL, targetURL string) (*RodSource, error) {
	if controlURL == "" {
		return nil, errors.New("debugger url is required")
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	if targetURL != "" {
		p, err := browser.Page(proto.TargetCreateTarget{URL: targetURL})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", targetURL, err)
		}
		return &RodSource{browser: browser, page: p, created: true}, nil
	}

	pages, err := browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, errors.New("no open page to attach to")
	}
	return &RodSource{browser: browser, page: pages[0]}, nil
}

// Extract evaluates the page and returns its content.
func (s *RodSource) Extract(ctx context.Context) (wire.PageData, error) {
	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           extractJS,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return wire.PageData{}, fmt.Errorf("evaluate page: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return wire.PageData{}, errors.New("page evaluation returned nothing")
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return wire.PageData{}, fmt.Errorf("read page result: %w", err)
	}
	var payload struct {
		URL              string   `json:"url"`
		Title            string   `json:"title"`
		Lang             string   `json:"lang"`
		Description      string   `json:"description"`
		Keywords         string   `json:"keywords"`
		Links            []string `json:"links"`
		Text             string   `json:"text"`
		HTML             string   `json:"html"`
		DevicePixelRatio float64  `json:"devicePixelRatio"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return wire.PageData{}, fmt.Errorf("decode page result: %w", err)
	}

	return wire.PageData{
		URL:         payload.URL,
		Title:       payload.Title,
		Lang:        payload.Lang,
		Description: payload.Description,
		Keywords:    splitKeywords(payload.Keywords),
		Links:       payload.Links,
		Text:        payload.Text,
		HTML:        payload.HTML,
	}, nil
}

// Screenshot captures the visible viewport as PNG.
func (s *RodSource) Screenshot(ctx context.Context) (Screenshot, error) {
	dpr := 1.0
	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:      `() => window.devicePixelRatio || 1`,
		ByValue: true,
	})
	if err == nil && res != nil {
		if v := res.Value.Num(); v > 0 {
			dpr = v
		}
	}

	data, err := s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return Screenshot{}, fmt.Errorf("capture screenshot: %w", err)
	}
	return Screenshot{PNG: data, DevicePixelRatio: dpr}, nil
}

// RodPage exposes the underlying tab so callers can build an overlay for
// the same page this source reads from.
func (s *RodSource) RodPage() *rod.Page {
	return s.page
}

// Close closes the tab when this source opened it. An attached tab belongs
// to the user and is left alone.
func (s *RodSource) Close() error {
	if s.created && s.page != nil {
		return s.page.Close()
	}
	return nil
}
