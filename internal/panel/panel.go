// Package panel holds the client-side state behind the capture UI: a
// content cache that mirrors the hub's store, the report orchestrator, and
// the actions a user can trigger against a tab. Everything here speaks to
// the hub through one request interface, so tests swap the link for a fake
// without touching a socket.
package panel

import (
	"context"

	"github.com/jeff0926/webinsight-sub001/internal/transport"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// Requester issues one request to the hub and returns its response.
// *transport.Peer satisfies it.
type Requester interface {
	Send(ctx context.Context, kind wire.Kind, payload any, opts ...transport.SendOption) wire.Response
}

// NotificationSource registers consumers for hub notifications.
// *transport.Peer satisfies it.
type NotificationSource interface {
	HandleNotify(kind wire.Kind, fn transport.NotifyFunc)
}
