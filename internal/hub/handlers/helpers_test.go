package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/jeff0926/webinsight-sub001/internal/inference"
	"github.com/jeff0926/webinsight-sub001/internal/report"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

type fakeContentQueries struct {
	saveItem       func(ctx context.Context, item *wire.ContentItem) error
	saveAnalysis   func(ctx context.Context, item *wire.ContentItem) error
	getItem        func(ctx context.Context, id string) (wire.ContentItem, error)
	listItems      func(ctx context.Context) ([]wire.ContentItem, error)
	listItemsByTag func(ctx context.Context, tagID string) ([]wire.ContentItem, error)
	deleteItem     func(ctx context.Context, id string) error
}

func (f fakeContentQueries) SaveItem(ctx context.Context, item *wire.ContentItem) error {
	return f.saveItem(ctx, item)
}

func (f fakeContentQueries) SaveAnalysis(ctx context.Context, item *wire.ContentItem) error {
	return f.saveAnalysis(ctx, item)
}

func (f fakeContentQueries) GetItem(ctx context.Context, id string) (wire.ContentItem, error) {
	return f.getItem(ctx, id)
}

func (f fakeContentQueries) ListItems(ctx context.Context) ([]wire.ContentItem, error) {
	return f.listItems(ctx)
}

func (f fakeContentQueries) ListItemsByTag(ctx context.Context, tagID string) ([]wire.ContentItem, error) {
	return f.listItemsByTag(ctx, tagID)
}

func (f fakeContentQueries) DeleteItem(ctx context.Context, id string) error {
	return f.deleteItem(ctx, id)
}

type fakeTagQueries struct {
	listTags    func(ctx context.Context) ([]wire.Tag, error)
	getTag      func(ctx context.Context, id string) (wire.Tag, error)
	ensureTag   func(ctx context.Context, name string) (wire.Tag, error)
	tagsForItem func(ctx context.Context, itemID string) ([]wire.Tag, error)
	attachTag   func(ctx context.Context, itemID, tagID string) error
	detachTag   func(ctx context.Context, itemID, tagID string) error
}

func (f fakeTagQueries) ListTags(ctx context.Context) ([]wire.Tag, error) {
	return f.listTags(ctx)
}

func (f fakeTagQueries) GetTag(ctx context.Context, id string) (wire.Tag, error) {
	return f.getTag(ctx, id)
}

func (f fakeTagQueries) EnsureTag(ctx context.Context, name string) (wire.Tag, error) {
	return f.ensureTag(ctx, name)
}

func (f fakeTagQueries) TagsForItem(ctx context.Context, itemID string) ([]wire.Tag, error) {
	return f.tagsForItem(ctx, itemID)
}

func (f fakeTagQueries) AttachTag(ctx context.Context, itemID, tagID string) error {
	return f.attachTag(ctx, itemID, tagID)
}

func (f fakeTagQueries) DetachTag(ctx context.Context, itemID, tagID string) error {
	return f.detachTag(ctx, itemID, tagID)
}

type fakeInference struct {
	keyPoints func(ctx context.Context, req inference.KeyPointsRequest) ([]string, error)
}

func (f fakeInference) KeyPoints(ctx context.Context, req inference.KeyPointsRequest) ([]string, error) {
	return f.keyPoints(ctx, req)
}

type fakeRenderer struct {
	render func(data report.ReportData) (string, int, error)
}

func (f fakeRenderer) Render(data report.ReportData) (string, int, error) {
	return f.render(data)
}

type fakeSigner struct{}

func (fakeSigner) Sign(name string, exp time.Time) string { return "sig-" + name }

// depsBuilder assembles handler deps with a fixed clock, sequential IDs and
// a notification recorder.
type depsBuilder struct {
	content  fakeContentQueries
	tags     fakeTagQueries
	infer    fakeInference
	renderer fakeRenderer
	statuses []wire.ReportStatus
}

func (b *depsBuilder) build() Deps {
	n := 0
	return NewDeps(
		b.content,
		b.tags,
		b.infer,
		b.renderer,
		fakeSigner{},
		func(s wire.ReportStatus) { b.statuses = append(b.statuses, s) },
		func() time.Time { return time.UnixMilli(1700000000000) },
		func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	)
}
