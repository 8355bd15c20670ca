package panel

import (
	"context"
	"sync"

	"github.com/jeff0926/webinsight-sub001/internal/transport"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// recordedCall is one request the fake hub saw.
type recordedCall struct {
	kind    wire.Kind
	payload any
}

// fakeHub answers panel requests from a func field and records every call.
type fakeHub struct {
	mu    sync.Mutex
	calls []recordedCall
	send  func(kind wire.Kind, payload any) wire.Response
}

func (f *fakeHub) Send(_ context.Context, kind wire.Kind, payload any, _ ...transport.SendOption) wire.Response {
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{kind: kind, payload: payload})
	f.mu.Unlock()
	if f.send == nil {
		return wire.OK(nil)
	}
	return f.send(kind, payload)
}

func (f *fakeHub) kinds() []wire.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]wire.Kind, len(f.calls))
	for i, c := range f.calls {
		kinds[i] = c.kind
	}
	return kinds
}

func (f *fakeHub) payload(i int) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i].payload
}

func (f *fakeHub) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeNotifySource captures notification handlers so tests can feed
// notifications by hand.
type fakeNotifySource struct {
	handlers map[wire.Kind]transport.NotifyFunc
}

func newFakeNotifySource() *fakeNotifySource {
	return &fakeNotifySource{handlers: make(map[wire.Kind]transport.NotifyFunc)}
}

func (f *fakeNotifySource) HandleNotify(kind wire.Kind, fn transport.NotifyFunc) {
	f.handlers[kind] = fn
}

// itemsResponse wraps items in a listing response.
func itemsResponse(items ...wire.ContentItem) wire.Response {
	return wire.OK(wire.ItemList{Items: items})
}
