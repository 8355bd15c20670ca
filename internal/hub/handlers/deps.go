// Package handlers contains the hub-side logic behind each coordination
// frame kind. Handlers are plain functions taking a Deps bundle and a typed
// request, returning a Result; the transport layer in the hub package owns
// sockets, routing and notification fan-out.
package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jeff0926/webinsight-sub001/internal/inference"
	"github.com/jeff0926/webinsight-sub001/internal/report"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// ContentQueries is the subset of content-item storage used by handlers.
type ContentQueries interface {
	SaveItem(ctx context.Context, item *wire.ContentItem) error
	SaveAnalysis(ctx context.Context, item *wire.ContentItem) error
	GetItem(ctx context.Context, id string) (wire.ContentItem, error)
	ListItems(ctx context.Context) ([]wire.ContentItem, error)
	ListItemsByTag(ctx context.Context, tagID string) ([]wire.ContentItem, error)
	DeleteItem(ctx context.Context, id string) error
}

// TagQueries is the subset of tag storage used by handlers.
type TagQueries interface {
	ListTags(ctx context.Context) ([]wire.Tag, error)
	GetTag(ctx context.Context, id string) (wire.Tag, error)
	EnsureTag(ctx context.Context, name string) (wire.Tag, error)
	TagsForItem(ctx context.Context, itemID string) ([]wire.Tag, error)
	AttachTag(ctx context.Context, itemID, tagID string) error
	DetachTag(ctx context.Context, itemID, tagID string) error
}

// ReportRenderer is the PDF surface used by the report handler.
type ReportRenderer interface {
	Render(data report.ReportData) (string, int, error)
}

// DownloadSigner signs expiring report download links.
type DownloadSigner interface {
	Sign(name string, exp time.Time) string
}

// Deps holds the narrow dependencies required by handler calls.
type Deps struct {
	content   ContentQueries
	tags      TagQueries
	keyPoints inference.Service
	renderer  ReportRenderer
	signer    DownloadSigner
	notify    func(wire.ReportStatus)
	now       func() time.Time
	newID     func() string
}

// NewDeps builds a dependency bundle for handler calls. notify, now and
// newID may be nil; the accessors then fall back to a no-op, wall-clock time
// and random UUIDs.
func NewDeps(
	content ContentQueries,
	tags TagQueries,
	keyPoints inference.Service,
	renderer ReportRenderer,
	signer DownloadSigner,
	notify func(wire.ReportStatus),
	now func() time.Time,
	newID func() string,
) Deps {
	return Deps{
		content:   content,
		tags:      tags,
		keyPoints: keyPoints,
		renderer:  renderer,
		signer:    signer,
		notify:    notify,
		now:       now,
		newID:     newID,
	}
}

func (d Deps) Content() ContentQueries      { return d.content }
func (d Deps) Tags() TagQueries             { return d.tags }
func (d Deps) KeyPoints() inference.Service { return d.keyPoints }
func (d Deps) Renderer() ReportRenderer     { return d.renderer }
func (d Deps) Signer() DownloadSigner       { return d.signer }

// Notify pushes a progress line toward the panel. Calls are ordered with the
// handler's eventual response on the panel socket, so progress always lands
// before the result it describes.
func (d Deps) Notify(status wire.ReportStatus) {
	if d.notify != nil {
		d.notify(status)
	}
}

func (d Deps) Now() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now()
}

func (d Deps) NewID() string {
	if d.newID != nil {
		return d.newID()
	}
	return uuid.NewString()
}
