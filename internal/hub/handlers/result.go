package handlers

import "github.com/jeff0926/webinsight-sub001/internal/wire"

// Result is the output of a handler invocation: the response for the calling
// peer plus the change notifications the hub should push to the panel.
type Result struct {
	resp    wire.Response
	changes []wire.ContentChanged
}

// NewResult constructs a handler result.
func NewResult(resp wire.Response, changes ...wire.ContentChanged) Result {
	return Result{resp: resp, changes: changes}
}

func respond(resp wire.Response) Result {
	return Result{resp: resp}
}

func fail(errStr string) Result {
	return Result{resp: wire.Fail(errStr)}
}

func saved(resp wire.Response, reason, tagID string) Result {
	return Result{
		resp:    resp,
		changes: []wire.ContentChanged{{Reason: reason, TagID: tagID}},
	}
}

// Response returns the payload to send back to the caller.
func (r Result) Response() wire.Response { return r.resp }

// Changes returns the notifications to fan out to the panel, in emission
// order.
func (r Result) Changes() []wire.ContentChanged { return r.changes }
