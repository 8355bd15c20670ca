package page

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// Placeholder viewport dimensions for static pages.
const (
	staticViewportWidth  = 1280
	staticViewportHeight = 800
)

// StaticSource serves a fixed HTML document from disk. The file is re-read
// on every Extract, so edits show up without restarting the agent.
type StaticSource struct {
	path string
	base *url.URL
}

// NewStaticSource opens a static page backed by the HTML file at path.
func NewStaticSource(path string) (*StaticSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("open page file: %w", err)
	}
	return &StaticSource{
		path: abs,
		base: &url.URL{Scheme: "file", Path: abs},
	}, nil
}

// Extract parses the file and returns its content.
func (s *StaticSource) Extract(ctx context.Context) (wire.PageData, error) {
	if err := ctx.Err(); err != nil {
		return wire.PageData{}, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return wire.PageData{}, fmt.Errorf("read page file: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return wire.PageData{}, fmt.Errorf("parse page file: %w", err)
	}

	ex := &htmlExtractor{
		base: s.base,
		seen: make(map[string]struct{}),
	}
	ex.collect(doc)

	data := ex.data
	data.URL = s.base.String()
	data.Text = collapseSpace(ex.text.String())
	data.HTML = string(raw)
	return data, nil
}

// Screenshot returns a blank viewport-sized bitmap. Static pages have no
// renderer, but a stand-in image keeps area captures working end to end.
func (s *StaticSource) Screenshot(ctx context.Context) (Screenshot, error) {
	if err := ctx.Err(); err != nil {
		return Screenshot{}, err
	}

	img := image.NewRGBA(image.Rect(0, 0, staticViewportWidth, staticViewportHeight))
	bg := image.NewUniform(color.RGBA{R: 0xf8, G: 0xf8, B: 0xf8, A: 0xff})
	draw.Draw(img, img.Bounds(), bg, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Screenshot{}, fmt.Errorf("encode placeholder: %w", err)
	}
	return Screenshot{PNG: buf.Bytes(), DevicePixelRatio: 1}, nil
}

func (s *StaticSource) Close() error { return nil }

// htmlExtractor walks a parsed document and accumulates page data.
type htmlExtractor struct {
	base *url.URL
	data wire.PageData
	text strings.Builder
	seen map[string]struct{}
}

func (ex *htmlExtractor) collect(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		case "html":
			if v := attrValue(n, "lang"); v != "" {
				ex.data.Lang = v
			}
		case "title":
			if ex.data.Title == "" {
				ex.data.Title = strings.TrimSpace(nodeText(n))
			}
			// Title text is not body text.
			return
		case "meta":
			switch strings.ToLower(attrValue(n, "name")) {
			case "description":
				ex.data.Description = strings.TrimSpace(attrValue(n, "content"))
			case "keywords":
				ex.data.Keywords = splitKeywords(attrValue(n, "content"))
			}
		case "a":
			ex.addLink(attrValue(n, "href"))
		}
	case html.TextNode:
		ex.text.WriteString(n.Data)
		ex.text.WriteByte(' ')
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		ex.collect(c)
	}
}

func (ex *htmlExtractor) addLink(href string) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || len(ex.data.Links) >= maxLinks {
		return
	}
	ref, err := url.Parse(href)
	if err != nil {
		return
	}
	u := ex.base.ResolveReference(ref)
	switch u.Scheme {
	case "http", "https", "file":
	default:
		return
	}
	u.Fragment = ""
	abs := u.String()
	if _, dup := ex.seen[abs]; dup {
		return
	}
	ex.seen[abs] = struct{}{}
	ex.data.Links = append(ex.data.Links, abs)
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// splitKeywords breaks a meta keywords value on commas and drops empties.
func splitKeywords(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// collapseSpace squeezes whitespace runs down to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
