// Package hub is the coordinator between agents and panels. It terminates
// every peer connection, answers hub-addressed requests with the handlers
// package, forwards agent-addressed requests to the right tab, and pushes
// change and progress notifications to the panel.
package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jeff0926/webinsight-sub001/internal/crypto"
	"github.com/jeff0926/webinsight-sub001/internal/hub/handlers"
	"github.com/jeff0926/webinsight-sub001/internal/inference"
	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/report"
	"github.com/jeff0926/webinsight-sub001/internal/storage"
	"github.com/jeff0926/webinsight-sub001/internal/transport"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// forwardTimeout bounds hub-to-agent forwards below the panel's own request
// timeout, so the panel hears the verdict from the hub rather than from its
// own timer.
const forwardTimeout = 10 * time.Second

// Hub coordinates all connected peers of one install.
type Hub struct {
	reg  *registry
	deps handlers.Deps
}

// New wires the hub against its collaborators.
func New(store *storage.Store, svc inference.Service, renderer *report.Renderer, signer *crypto.URLSigner) *Hub {
	h := &Hub{reg: newRegistry()}
	h.deps = handlers.NewDeps(store, store, svc, renderer, signer, h.notifyStatus, nil, nil)
	return h
}

// ServeAgent runs the hub side of one agent connection until the link
// drops. A second connection for the same tab replaces the first.
func (h *Hub) ServeAgent(ctx context.Context, conn transport.Conn, tabID string) error {
	peer := transport.NewPeer(conn, transport.WithName("hub-agent["+tabID+"]"))
	peer.Handle(wire.KindCaptureAreaFromContent, h.handleCaptureArea)

	if prev := h.reg.addAgent(tabID, peer); prev != nil {
		logger.Infof("hub: tab %s reconnected, dropping the old link", tabID)
		prev.Close()
	}
	defer h.reg.removeAgent(tabID, peer)

	logger.Infof("hub: agent connected for tab %s", tabID)
	err := peer.Run(ctx)
	logger.Infof("hub: agent for tab %s disconnected", tabID)
	return err
}

// ServePanel runs the hub side of the panel connection until the link
// drops. Only one panel is served at a time; a newcomer replaces it.
func (h *Hub) ServePanel(ctx context.Context, conn transport.Conn) error {
	peer := transport.NewPeer(conn,
		transport.WithName("hub-panel"),
		transport.WithRequestHook(h.forwardHook),
	)
	peer.Handle(wire.KindSavePage, h.handleSavePage)
	peer.Handle(wire.KindGetAllSavedContent, h.handleListContent)
	peer.Handle(wire.KindGetFilteredItemsByTag, h.handleFilterByTag)
	peer.Handle(wire.KindGetAllTags, h.handleListTags)
	peer.Handle(wire.KindGetTagsForItem, h.handleTagsForItem)
	peer.Handle(wire.KindAddTagToItem, h.handleAddTag)
	peer.Handle(wire.KindRemoveTagFromItem, h.handleRemoveTag)
	peer.Handle(wire.KindGetKeyPointsForTag, h.handleKeyPoints)
	peer.Handle(wire.KindGeneratePDFReportForTag, h.handleGenerateReport)
	peer.Handle(wire.KindDeleteItem, h.handleDeleteItem)

	if prev := h.reg.setPanel(peer); prev != nil {
		logger.Infof("hub: panel reconnected, dropping the old link")
		prev.Close()
	}
	defer h.reg.clearPanel(peer)

	logger.Infof("hub: panel connected")
	err := peer.Run(ctx)
	logger.Infof("hub: panel disconnected")
	return err
}

// AgentCount reports how many agents are connected.
func (h *Hub) AgentCount() int { return h.reg.agentCount() }

// PanelConnected reports whether a panel is attached.
func (h *Hub) PanelConnected() bool { return h.reg.currentPanel() != nil }

// forwardHook relays agent-addressed requests from the panel link to the
// target agent's own link and hands the agent's response back. Requests for
// tabs with no agent resolve immediately instead of timing out.
func (h *Hub) forwardHook(ctx context.Context, f wire.Frame) (wire.Response, bool) {
	if f.To != wire.TargetAgent {
		return wire.Response{}, false
	}
	agent, ok := h.reg.agent(f.TabID)
	if !ok {
		logger.Warnf("hub: no agent for tab %q", f.TabID)
		return wire.Fail(wire.ErrNoAgent), true
	}

	logger.Debugf("hub: forwarding %s to tab %q", f.Kind, f.TabID)
	var payload any
	if len(f.Payload) > 0 {
		payload = f.Payload
	}
	return agent.Send(ctx, f.Kind, payload, transport.WithTimeout(forwardTimeout)), true
}

// finish fans a handler's change notifications out to the panel, then hands
// the response back toward the caller.
func (h *Hub) finish(res handlers.Result) wire.Response {
	for _, c := range res.Changes() {
		h.notifyChange(c)
	}
	return res.Response()
}

func (h *Hub) notifyChange(c wire.ContentChanged) {
	panel := h.reg.currentPanel()
	if panel == nil {
		return
	}
	if err := panel.Post(wire.KindContentChanged, c); err != nil {
		logger.Debugf("hub: dropping content change: %v", err)
	}
}

func (h *Hub) notifyStatus(s wire.ReportStatus) {
	panel := h.reg.currentPanel()
	if panel == nil {
		logger.Debugf("hub: no panel for status %q", s.Message)
		return
	}
	if err := panel.Post(wire.KindReportGenerationStatus, s); err != nil {
		logger.Debugf("hub: dropping status: %v", err)
	}
}

// decode unmarshals a request payload, tolerating an absent body.
func decode(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}

func (h *Hub) handleCaptureArea(ctx context.Context, payload json.RawMessage) wire.Response {
	var req wire.CaptureAreaPayload
	if err := decode(payload, &req); err != nil {
		return wire.Fail(wire.ErrInvalidPayload)
	}
	return h.finish(handlers.CaptureArea(ctx, h.deps, req))
}

func (h *Hub) handleSavePage(ctx context.Context, payload json.RawMessage) wire.Response {
	var req wire.SavePageRequest
	if err := decode(payload, &req); err != nil {
		return wire.Fail(wire.ErrInvalidPayload)
	}
	return h.finish(handlers.SavePage(ctx, h.deps, req))
}

func (h *Hub) handleListContent(ctx context.Context, _ json.RawMessage) wire.Response {
	return h.finish(handlers.ListContent(ctx, h.deps))
}

func (h *Hub) handleFilterByTag(ctx context.Context, payload json.RawMessage) wire.Response {
	var req wire.TagFilterRequest
	if err := decode(payload, &req); err != nil {
		return wire.Fail(wire.ErrInvalidPayload)
	}
	return h.finish(handlers.FilterByTag(ctx, h.deps, req))
}

func (h *Hub) handleListTags(ctx context.Context, _ json.RawMessage) wire.Response {
	return h.finish(handlers.ListTags(ctx, h.deps))
}

func (h *Hub) handleTagsForItem(ctx context.Context, payload json.RawMessage) wire.Response {
	var req wire.ItemRef
	if err := decode(payload, &req); err != nil {
		return wire.Fail(wire.ErrInvalidPayload)
	}
	return h.finish(handlers.TagsForItem(ctx, h.deps, req))
}

func (h *Hub) handleAddTag(ctx context.Context, payload json.RawMessage) wire.Response {
	var req wire.AddTagRequest
	if err := decode(payload, &req); err != nil {
		return wire.Fail(wire.ErrInvalidPayload)
	}
	return h.finish(handlers.AddTag(ctx, h.deps, req))
}

func (h *Hub) handleRemoveTag(ctx context.Context, payload json.RawMessage) wire.Response {
	var req wire.RemoveTagRequest
	if err := decode(payload, &req); err != nil {
		return wire.Fail(wire.ErrInvalidPayload)
	}
	return h.finish(handlers.RemoveTag(ctx, h.deps, req))
}

func (h *Hub) handleKeyPoints(ctx context.Context, payload json.RawMessage) wire.Response {
	var req wire.TagRef
	if err := decode(payload, &req); err != nil {
		return wire.Fail(wire.ErrInvalidPayload)
	}
	return h.finish(handlers.KeyPointsForTag(ctx, h.deps, req))
}

func (h *Hub) handleGenerateReport(ctx context.Context, payload json.RawMessage) wire.Response {
	var req wire.ReportRequest
	if err := decode(payload, &req); err != nil {
		return wire.Fail(wire.ErrInvalidPayload)
	}
	return h.finish(handlers.GenerateReport(ctx, h.deps, req))
}

func (h *Hub) handleDeleteItem(ctx context.Context, payload json.RawMessage) wire.Response {
	var req wire.DeleteItemRequest
	if err := decode(payload, &req); err != nil {
		return wire.Fail(wire.ErrInvalidPayload)
	}
	return h.finish(handlers.DeleteItem(ctx, h.deps, req))
}
