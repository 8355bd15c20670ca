// Package wire defines the message envelope and typed payloads exchanged
// between the WebInsight contexts (agent, hub, panel).
//
// Every exchange is either a request that is answered by exactly one
// response, or a fire-and-forget notification. The envelope carries a
// routing target so the hub can forward frames between peers that cannot
// reach each other directly.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Frame types.
const (
	// FrameRequest is a request expecting exactly one response with the same ID.
	FrameRequest = "request"
	// FrameResponse answers a request, matched by ID.
	FrameResponse = "response"
	// FrameNotify is a one-way notification; it carries no ID and gets no reply.
	FrameNotify = "notify"
)

// Routing targets for forwarded frames.
const (
	// TargetHub routes a frame to the hub itself (the default).
	TargetHub = "hub"
	// TargetAgent routes a frame to the agent for the tab named by TabID.
	TargetAgent = "agent"
	// TargetPanel routes a frame to the connected panel.
	TargetPanel = "panel"
)

// Frame is the envelope for every message on a peer link.
type Frame struct {
	// Type is one of FrameRequest, FrameResponse or FrameNotify.
	Type string `json:"type"`

	// ID correlates a response with its request. Empty for notifications.
	ID string `json:"id,omitempty"`

	// Kind names the operation. Empty for responses.
	Kind Kind `json:"kind,omitempty"`

	// To optionally routes the frame to another peer via the hub.
	To string `json:"to,omitempty"`

	// TabID selects the agent when To is TargetAgent.
	TabID string `json:"tabId,omitempty"`

	// Payload is the request or notification body.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Response is the result body. Set only when Type is FrameResponse.
	Response *Response `json:"response,omitempty"`
}

// Response is the uniform result shape for every request.
//
// Success distinguishes the two variants: a successful response may carry a
// payload, a failed one carries a short machine-readable error string.
type Response struct {
	// Success reports whether the operation completed.
	Success bool `json:"success"`

	// Payload is the operation result. Present only on success.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Error describes the failure. Present only when Success is false.
	Error string `json:"error,omitempty"`
}

// OK builds a successful response carrying v as its payload.
// A nil v produces a payload-free success.
func OK(v any) Response {
	if v == nil {
		return Response{Success: true}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return Fail(fmt.Sprintf("encode payload: %v", err))
	}
	return Response{Success: true, Payload: raw}
}

// Fail builds a failure response with the given error string.
func Fail(errStr string) Response {
	return Response{Success: false, Error: errStr}
}

// Failf builds a failure response from a format string.
func Failf(format string, args ...any) Response {
	return Fail(fmt.Sprintf(format, args...))
}

// Bind decodes the response payload into out. It fails on unsuccessful
// responses and on missing payloads so callers never read half-filled
// results.
func (r Response) Bind(out any) error {
	if !r.Success {
		if r.Error == "" {
			return fmt.Errorf("request failed")
		}
		return fmt.Errorf("request failed: %s", r.Error)
	}
	if len(r.Payload) == 0 {
		return fmt.Errorf("response has no payload")
	}
	return json.Unmarshal(r.Payload, out)
}

// NewRequest builds a request frame with a fresh correlation ID.
func NewRequest(kind Kind, payload any) (Frame, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:    FrameRequest,
		ID:      uuid.NewString(),
		Kind:    kind,
		Payload: raw,
	}, nil
}

// NewNotify builds a notification frame.
func NewNotify(kind Kind, payload any) (Frame, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:    FrameNotify,
		Kind:    kind,
		Payload: raw,
	}, nil
}

// NewResponse builds the response frame answering the request with id.
func NewResponse(id string, resp Response) Frame {
	r := resp
	return Frame{
		Type:     FrameResponse,
		ID:       id,
		Response: &r,
	}
}

func marshalPayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return raw, nil
}

// Validate checks the structural invariants of a frame before it is routed.
func (f Frame) Validate() error {
	switch f.Type {
	case FrameRequest:
		if f.ID == "" {
			return fmt.Errorf("request frame missing id")
		}
		if f.Kind == "" {
			return fmt.Errorf("request frame missing kind")
		}
	case FrameResponse:
		if f.ID == "" {
			return fmt.Errorf("response frame missing id")
		}
		if f.Response == nil {
			return fmt.Errorf("response frame missing body")
		}
	case FrameNotify:
		if f.Kind == "" {
			return fmt.Errorf("notify frame missing kind")
		}
	default:
		return fmt.Errorf("unknown frame type %q", f.Type)
	}
	return nil
}
